package search

import (
	"errors"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metadata-validator/internal/metrics"
	"metadata-validator/internal/models"
	"metadata-validator/internal/store"
)

func testSnapshot() store.Snapshot {
	return store.Snapshot{
		Glossary: &models.ParsedDataset{
			FileName: "glossary.csv",
			Fields: []models.FieldRecord{
				{FieldName: "customer_email", TableName: "dim_customer", Definition: "Primary email address of the customer"},
				{FieldName: "trade_date", TableName: "fact_trades", Definition: "Date the trade was executed"},
			},
		},
		Policy: &models.ParsedPolicyDocument{
			FileName: "policy.txt",
			PolicyRules: []models.PolicyRule{
				{Name: "Data Classification Rule 1", Description: "All PII data must be encrypted at rest.", Category: "Data Classification", Severity: models.SeverityCritical},
			},
			Sections: []models.DocumentSection{
				{Name: "Retention", Content: "Trade records are kept for seven years."},
			},
		},
	}
}

func TestDocuments(t *testing.T) {
	docs := Documents(testSnapshot())
	require.Len(t, docs, 4)

	assert.Equal(t, "glossary/field/0", docs[0].ID)
	assert.Equal(t, TypeField, docs[0].Type)
	assert.Equal(t, "dim_customer", docs[0].Table)
	assert.Equal(t, "policy/rule/0", docs[2].ID)
	assert.Equal(t, "critical", docs[2].Severity)
	assert.Equal(t, TypeSection, docs[3].Type)

	assert.Empty(t, Documents(store.Snapshot{}))
}

func TestSearch(t *testing.T) {
	s, err := NewSearcher()
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Rebuild(testSnapshot()))

	count, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	res, err := s.Search("encrypted", 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalHits)
	assert.Equal(t, "policy/rule/0", res.Hits[0].ID)
	assert.Equal(t, TypeRule, res.Hits[0].Type)
	assert.Equal(t, "Data Classification", res.Hits[0].Category)

	res, err = s.Search("trade", 10, TypeField)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalHits)
	assert.Equal(t, "trade_date", res.Hits[0].Title)

	res, err = s.Search("trade", 10, TypeSection, TypeRule)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalHits)
	assert.Equal(t, "Retention", res.Hits[0].Title)
}

func TestSearchEmptyQuery(t *testing.T) {
	s, err := NewSearcher()
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Search("   ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAttachFollowsStore(t *testing.T) {
	s, err := NewSearcher()
	require.NoError(t, err)
	defer s.Close()
	s.Metrics = metrics.NewMetrics(prometheus.NewRegistry())

	st := store.New()
	require.NoError(t, s.Attach(st))

	res, err := s.Search("email", 5)
	require.NoError(t, err)
	assert.Zero(t, res.TotalHits)

	st.SetGlossary(*testSnapshot().Glossary)
	res, err = s.Search("email", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalHits)

	st.ClearGlossary()
	res, err = s.Search("email", 5)
	require.NoError(t, err)
	assert.Zero(t, res.TotalHits)

	assert.Equal(t, 3.0, testutil.ToFloat64(s.Metrics.SearchQueries))
}

func TestAttachIndexesLatestStoreContents(t *testing.T) {
	s, err := NewSearcher()
	require.NoError(t, err)
	defer s.Close()

	st := store.New()

	// Holds the glossary notification until the policy upload has finished,
	// so the glossary rebuild runs last.
	entered := make(chan struct{})
	release := make(chan struct{})
	st.Subscribe(func(slot store.Slot, _ store.Snapshot) {
		if slot == store.SlotGlossary {
			close(entered)
			<-release
		}
	})
	require.NoError(t, s.Attach(st))

	done := make(chan struct{})
	go func() {
		defer close(done)
		st.SetGlossary(*testSnapshot().Glossary)
	}()
	<-entered

	st.SetPolicy(models.ParsedPolicyDocument{
		FileName: "policy.txt",
		PolicyRules: []models.PolicyRule{
			{Name: "Encryption", Description: "All PII data must be encrypted at rest.", Category: "Data Classification", Severity: models.SeverityCritical},
		},
	})
	close(release)
	<-done

	res, err := s.Search("encrypted", 5, TypeRule)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalHits)

	res, err = s.Search("email", 5, TypeField)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalHits)

	n, err := s.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

type failingIndex struct{}

func (failingIndex) Search(*bleve.SearchRequest) (*bleve.SearchResult, error) {
	return nil, errors.New("index unavailable")
}
func (failingIndex) DocCount() (uint64, error) { return 0, nil }
func (failingIndex) Close() error              { return nil }

func TestSearchIndexFailure(t *testing.T) {
	s := &Searcher{}
	var idx Index = failingIndex{}
	s.current.Store(&idx)

	_, err := s.Search("anything", 5)
	assert.ErrorContains(t, err, "search failed")
}
