package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"metadata-validator/internal/models"
	"metadata-validator/internal/processor"
	"metadata-validator/internal/scoring"
	"metadata-validator/internal/service"
	"metadata-validator/internal/store"
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Documents uint64 `json:"indexed_documents"`
}

// ScoreRequest carries the three components of a match score
type ScoreRequest struct {
	DescriptionMatch *float64 `json:"description_match" binding:"required"`
	TypeMatch        bool     `json:"type_match"`
	SensitivityMatch bool     `json:"sensitivity_match"`
}

// ScoreResponse is the composite score and its band
type ScoreResponse struct {
	Score  int    `json:"score"`
	Band   string `json:"band"`
	Status string `json:"status"`
}

// StoreResponse summarizes what is loaded
type StoreResponse struct {
	GlossaryFields   int    `json:"glossary_fields"`
	DictionaryFields int    `json:"dictionary_fields"`
	PolicyRules      int    `json:"policy_rules"`
	PolicyDomains    int    `json:"policy_domains"`
	SampleColumns    int    `json:"sample_columns"`
	IndexedDocuments uint64 `json:"indexed_documents"`
}

func (s *Server) handleHealth(c *gin.Context) {
	docs, err := s.svc.Search.DocCount()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.Version, Documents: docs})
}

func (s *Server) handleUpload(c *gin.Context) {
	kind, ok := s.kindParam(c)
	if !ok {
		return
	}
	name, data, ok := s.formFile(c)
	if !ok {
		return
	}

	res, err := s.svc.Ingest(kind, name, data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetDataset(c *gin.Context) {
	kind, ok := s.kindParam(c)
	if !ok {
		return
	}

	var v any
	switch kind {
	case processor.KindGlossary, processor.KindDictionary:
		if d := s.svc.Store.Dataset(store.Slot(kind)); d != nil {
			v = d
		}
	case processor.KindPolicy:
		if p := s.svc.Store.Policy(); p != nil {
			v = p
		}
	case processor.KindSample:
		if p := s.svc.Store.Sample(); p != nil {
			v = p
		}
	}
	if v == nil {
		s.writeError(c, service.ErrEmptySlot)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleClearDataset(c *gin.Context) {
	kind, ok := s.kindParam(c)
	if !ok {
		return
	}
	s.svc.Store.Clear(store.Slot(kind))
	c.JSON(http.StatusOK, gin.H{"message": string(kind) + " cleared"})
}

func (s *Server) handleStore(c *gin.Context) {
	snap := s.svc.Store.Snapshot()
	var resp StoreResponse
	if snap.Glossary != nil {
		resp.GlossaryFields = len(snap.Glossary.Fields)
	}
	if snap.Dictionary != nil {
		resp.DictionaryFields = len(snap.Dictionary.Fields)
	}
	if snap.Policy != nil {
		resp.PolicyRules = len(snap.Policy.PolicyRules)
		resp.PolicyDomains = len(snap.Policy.DomainHierarchy)
	}
	if snap.Sample != nil {
		resp.SampleColumns = len(snap.Sample.Columns)
	}
	resp.IndexedDocuments, _ = s.svc.Search.DocCount()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePolicySummary(c *gin.Context) {
	summary, err := s.svc.PolicySummary()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	pct := *req.DescriptionMatch
	if pct < 0 || pct > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description_match must be between 0 and 100"})
		return
	}

	score := scoring.Score(pct, req.TypeMatch, req.SensitivityMatch)
	band := scoring.BandFor(score)
	c.JSON(http.StatusOK, ScoreResponse{Score: score, Band: band.Name, Status: band.Status})
}

func (s *Server) handleValidate(c *gin.Context) {
	kind, ok := s.kindParam(c, processor.KindGlossary, processor.KindDictionary)
	if !ok {
		return
	}
	report, err := s.svc.Validate(c.Request.Context(), kind)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondReport(c, report)
}

func (s *Server) handleCompare(c *gin.Context) {
	kind, ok := s.kindParam(c, processor.KindGlossary, processor.KindDictionary)
	if !ok {
		return
	}
	name, data, ok := s.formFile(c)
	if !ok {
		return
	}
	report, err := s.svc.Compare(c.Request.Context(), kind, name, data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondReport(c, report)
}

// respondReport writes a report, exporting it first when ?export=true
func (s *Server) respondReport(c *gin.Context, report models.ValidationReport) {
	if export, _ := strconv.ParseBool(c.Query("export")); export {
		if _, err := s.svc.Export(c.Request.Context(), &report); err != nil {
			s.writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleSearch(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	var types []string
	for _, t := range c.QueryArray("type") {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, part)
			}
		}
	}

	res, err := s.svc.Search.Search(c.Query("q"), limit, types...)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleExport(c *gin.Context) {
	n, err := s.svc.Export(c.Request.Context(), nil)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows_written": n, "target": s.svc.ExportName})
}
