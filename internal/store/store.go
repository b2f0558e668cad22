package store

import (
	"sync"
	"sync/atomic"

	"metadata-validator/internal/models"
)

// Slot names the dataset held by a store slot
type Slot string

const (
	SlotGlossary   Slot = "glossary"
	SlotDictionary Slot = "dictionary"
	SlotPolicy     Slot = "policy"
	SlotSample     Slot = "sample"
)

// Snapshot is a consistent view of every slot at one point in time.
// Nil fields mean the slot is empty.
type Snapshot struct {
	Glossary   *models.ParsedDataset        `json:"glossary"`
	Dictionary *models.ParsedDataset        `json:"dictionary"`
	Policy     *models.ParsedPolicyDocument `json:"policy"`
	Sample     *models.DatasetProfile       `json:"sample"`
}

// Listener is notified after a slot was replaced or cleared
type Listener func(slot Slot, snap Snapshot)

// Store holds the most recently extracted datasets for a session. Values are
// replaced wholesale and never mutated in place, so readers may keep the
// pointers they got without locking.
type Store struct {
	glossary   atomic.Pointer[models.ParsedDataset]
	dictionary atomic.Pointer[models.ParsedDataset]
	policy     atomic.Pointer[models.ParsedPolicyDocument]
	sample     atomic.Pointer[models.DatasetProfile]

	mu        sync.Mutex
	listeners []Listener
}

// New creates an empty store
func New() *Store {
	return &Store{}
}

// Subscribe registers a listener called after every change
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetGlossary replaces the glossary dataset
func (s *Store) SetGlossary(d models.ParsedDataset) {
	s.glossary.Store(&d)
	s.notify(SlotGlossary)
}

// SetDictionary replaces the dictionary dataset
func (s *Store) SetDictionary(d models.ParsedDataset) {
	s.dictionary.Store(&d)
	s.notify(SlotDictionary)
}

// SetPolicy replaces the policy document
func (s *Store) SetPolicy(d models.ParsedPolicyDocument) {
	s.policy.Store(&d)
	s.notify(SlotPolicy)
}

// SetSample replaces the sample dataset profile
func (s *Store) SetSample(p models.DatasetProfile) {
	s.sample.Store(&p)
	s.notify(SlotSample)
}

// Glossary returns the glossary dataset, or nil
func (s *Store) Glossary() *models.ParsedDataset { return s.glossary.Load() }

// Dictionary returns the dictionary dataset, or nil
func (s *Store) Dictionary() *models.ParsedDataset { return s.dictionary.Load() }

// Policy returns the policy document, or nil
func (s *Store) Policy() *models.ParsedPolicyDocument { return s.policy.Load() }

// Sample returns the sample dataset profile, or nil
func (s *Store) Sample() *models.DatasetProfile { return s.sample.Load() }

// Dataset returns the glossary or dictionary dataset by slot
func (s *Store) Dataset(slot Slot) *models.ParsedDataset {
	switch slot {
	case SlotGlossary:
		return s.Glossary()
	case SlotDictionary:
		return s.Dictionary()
	}
	return nil
}

// Clear resets one slot to empty
func (s *Store) Clear(slot Slot) {
	switch slot {
	case SlotGlossary:
		s.glossary.Store(nil)
	case SlotDictionary:
		s.dictionary.Store(nil)
	case SlotPolicy:
		s.policy.Store(nil)
	case SlotSample:
		s.sample.Store(nil)
	default:
		return
	}
	s.notify(slot)
}

func (s *Store) ClearGlossary()   { s.Clear(SlotGlossary) }
func (s *Store) ClearDictionary() { s.Clear(SlotDictionary) }
func (s *Store) ClearPolicy()     { s.Clear(SlotPolicy) }
func (s *Store) ClearSample()     { s.Clear(SlotSample) }

// Snapshot returns the current value of every slot
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Glossary:   s.glossary.Load(),
		Dictionary: s.dictionary.Load(),
		Policy:     s.policy.Load(),
		Sample:     s.sample.Load(),
	}
}

func (s *Store) notify(slot Slot) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	snap := s.Snapshot()
	for _, l := range listeners {
		l(slot, snap)
	}
}
