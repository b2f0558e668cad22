package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metadata-validator/internal/models"
)

func TestSetAndClear(t *testing.T) {
	s := New()
	assert.Nil(t, s.Glossary())

	s.SetGlossary(models.ParsedDataset{FileName: "first.xlsx"})
	first := s.Glossary()
	require.NotNil(t, first)

	s.SetGlossary(models.ParsedDataset{FileName: "second.xlsx"})
	assert.Equal(t, "second.xlsx", s.Glossary().FileName)
	assert.Equal(t, "first.xlsx", first.FileName, "earlier snapshot must not change")

	s.ClearGlossary()
	assert.Nil(t, s.Glossary())
}

func TestSlotsAreIndependent(t *testing.T) {
	s := New()
	s.SetDictionary(models.ParsedDataset{FileName: "dict.csv"})
	s.SetPolicy(models.ParsedPolicyDocument{FileName: "policy.txt"})

	s.ClearPolicy()

	snap := s.Snapshot()
	assert.Nil(t, snap.Glossary)
	assert.Nil(t, snap.Policy)
	require.NotNil(t, snap.Dictionary)
	assert.Equal(t, "dict.csv", snap.Dictionary.FileName)
	assert.Same(t, snap.Dictionary, s.Dataset(SlotDictionary))
}

func TestSubscribe(t *testing.T) {
	s := New()

	var slots []Slot
	var last Snapshot
	s.Subscribe(func(slot Slot, snap Snapshot) {
		slots = append(slots, slot)
		last = snap
	})

	s.SetSample(models.DatasetProfile{FileName: "rows.csv"})
	s.Clear(SlotSample)
	s.Clear(Slot("unknown"))

	assert.Equal(t, []Slot{SlotSample, SlotSample}, slots)
	assert.Nil(t, last.Sample)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetGlossary(models.ParsedDataset{FileName: "g.csv"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, "g.csv", s.Glossary().FileName)
}
