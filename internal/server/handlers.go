package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/recall/internal/engine"
	"github.com/lazypower/recall/internal/memory"
	"github.com/lazypower/recall/internal/temporal"
)

type createMemoryRequest struct {
	Content   string   `json:"content"`
	Source    string   `json:"source,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Confirmed bool     `json:"confirmed,omitempty"`
	Updates   string   `json:"updates,omitempty"` // ID of the record this fact replaces
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	rec, err := s.svc.Remember(r.Context(), req.Content, engine.RememberOpts{
		Source:    memory.Source(req.Source),
		Tags:      req.Tags,
		Confirmed: req.Confirmed,
		Updates:   req.Updates,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, memoryView(rec))
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 50)

	records, err := s.db.LatestMemories(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]map[string]any, len(records))
	for i, rec := range records {
		views[i] = memoryView(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": views})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")

	rec, err := s.db.GetMemory(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}

	writeJSON(w, http.StatusOK, memoryView(rec))
}

func (s *Server) handleConfirmMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")

	if err := s.svc.Confirm(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ingestRequest struct {
	Content string   `json:"content"`
	Source  string   `json:"source,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	source := req.Source
	if source == "" {
		source = string(memory.SourceDocument)
	}

	records, err := s.svc.Ingest(r.Context(), req.Content, engine.RememberOpts{
		Source: memory.Source(source),
		Tags:   req.Tags,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views := make([]map[string]any, len(records))
	for i, rec := range records {
		views[i] = memoryView(rec)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"memories": views})
}

type addRelationshipRequest struct {
	Type       string  `json:"type"`
	TargetID   string  `json:"target_id"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (s *Server) handleAddRelationship(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")

	var req addRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	relType := memory.RelationType(req.Type)
	switch relType {
	case memory.RelUpdates, memory.RelExtends, memory.RelDerives, memory.RelContradicts, memory.RelRelatedTo:
	default:
		writeError(w, http.StatusBadRequest, "invalid relationship type")
		return
	}
	if req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "target_id is required")
		return
	}

	confidence := req.Confidence
	if confidence == 0 {
		confidence = 1.0
	}

	err := s.svc.Relate(id, memory.Relationship{
		Type:       relType,
		TargetID:   req.TargetID,
		Confidence: confidence,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	opts := engine.SearchOpts{
		TopK: intQuery(r, "limit", s.search.TopK),
		Tag:  r.URL.Query().Get("tag"),
	}
	opts.VectorWeight = floatQuery(r, "vector_weight", s.search.VectorWeight)
	opts.KeywordWeight = floatQuery(r, "keyword_weight", s.search.KeywordWeight)

	results, err := s.svc.Recall(r.Context(), query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	views := make([]map[string]any, len(results))
	for i, res := range results {
		v := memoryView(res.Record)
		v["score"] = res.Score
		if res.Record.Temporal != nil && res.Record.Temporal.EventTime != nil {
			v["event_recency"] = temporal.RecencyScore(*res.Record.Temporal.EventTime, now)
		}
		views[i] = v
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": views})
}

// memoryView shapes a record for API responses; raw embeddings stay out of
// the payload.
func memoryView(rec *memory.Record) map[string]any {
	v := map[string]any{
		"id":             rec.ID,
		"content":        rec.Content,
		"created_at":     rec.CreatedAt,
		"confidence":     rec.Confidence,
		"latest":         rec.Latest,
		"static":         rec.Static,
		"superseded":     rec.IsSuperseded(),
		"metadata":       rec.Metadata,
		"container_tags": rec.ContainerTags,
	}
	if len(rec.Relationships) > 0 {
		v["relationships"] = rec.Relationships
	}
	if rec.Temporal != nil {
		v["temporal"] = rec.Temporal
	}
	return v
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func floatQuery(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}
