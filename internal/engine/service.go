package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lazypower/recall/internal/extract"
	"github.com/lazypower/recall/internal/memory"
	"github.com/lazypower/recall/internal/store"
	"github.com/lazypower/recall/internal/temporal"
)

// Service orchestrates record creation, supersession, and retrieval against
// the store. The scoring itself stays in the pure functions of this package;
// Service is the layer that owns side effects (persistence, access touches).
type Service struct {
	DB       *store.DB
	Embedder Embedder
}

// NewService creates a Service.
func NewService(db *store.DB, embedder Embedder) *Service {
	return &Service{DB: db, Embedder: embedder}
}

// RememberOpts controls record creation.
type RememberOpts struct {
	Source    memory.Source
	Tags      []string
	Confirmed bool
	Updates   string // ID of a record this new fact supersedes
}

// Remember classifies content, extracts temporal metadata, embeds, and
// persists a new record. When Updates names an existing record, the new
// record starts an updates chain and the old one is marked superseded.
// Superseded records stay in the store.
func (s *Service) Remember(ctx context.Context, content string, opts RememberOpts) (*memory.Record, error) {
	if content == "" {
		return nil, fmt.Errorf("empty content")
	}

	now := time.Now()

	var vec []float64
	model := ""
	if s.Embedder != nil {
		var err error
		vec, err = s.Embedder.Embed(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		model = s.Embedder.Model()
	}

	cand := extract.Classify(content)
	info := temporal.Extract(content, now)

	rec := memory.New(content, vec, now)
	rec.Static = cand.Static
	rec.ContainerTags = opts.Tags
	rec.Metadata.Entities = cand.Entities
	rec.Metadata.Topics = cand.Topics
	rec.Metadata.Importance = cand.Importance
	rec.Metadata.UserConfirmed = opts.Confirmed
	rec.Temporal = &info
	if opts.Source != "" {
		rec.Metadata.Source = opts.Source
	}

	var old *memory.Record
	if opts.Updates != "" {
		var err error
		old, err = s.DB.GetMemory(opts.Updates)
		if err != nil {
			return nil, fmt.Errorf("load superseded record: %w", err)
		}
		if old == nil {
			return nil, fmt.Errorf("unknown record %q", opts.Updates)
		}
		rec.AddRelationship(memory.Relationship{
			Type:       memory.RelUpdates,
			TargetID:   old.ID,
			Confidence: 1.0,
			CreatedAt:  now,
		})
	}

	if err := s.DB.SaveMemory(rec, model); err != nil {
		return nil, fmt.Errorf("save memory: %w", err)
	}

	if old != nil {
		if err := s.DB.MarkSuperseded(old.ID, rec.ID, now); err != nil {
			return nil, fmt.Errorf("mark superseded: %w", err)
		}
		log.Printf("remember: %s supersedes %s", rec.ID, old.ID)
	}

	s.linkSamePeriod(rec)

	return rec, nil
}

// maxPeriodLinks caps automatic relatedTo edges per new record.
const maxPeriodLinks = 3

// linkSamePeriod connects a record to existing latest records whose event
// time falls in the same period at this record's granularity. Best effort;
// failures are logged, not returned.
func (s *Service) linkSamePeriod(rec *memory.Record) {
	if rec.Temporal == nil || rec.Temporal.EventTime == nil {
		return
	}

	records, err := s.DB.AllMemories()
	if err != nil {
		log.Printf("remember: load memories for period links: %v", err)
		return
	}

	linked := 0
	for _, other := range records {
		if other.ID == rec.ID || !other.Latest {
			continue
		}
		if other.Temporal == nil || other.Temporal.EventTime == nil {
			continue
		}
		if !temporal.SamePeriod(*rec.Temporal.EventTime, *other.Temporal.EventTime, rec.Temporal.Granularity) {
			continue
		}

		rel := memory.Relationship{
			Type:       memory.RelRelatedTo,
			TargetID:   other.ID,
			Confidence: 0.5,
			CreatedAt:  rec.CreatedAt,
		}
		rec.AddRelationship(rel)
		if err := s.DB.SaveRelationship(rec.ID, rel); err != nil {
			log.Printf("remember: period link %s -> %s: %v", rec.ID, other.ID, err)
			continue
		}
		linked++
		if linked >= maxPeriodLinks {
			return
		}
	}
}

// Ingest splits free-form content into candidate facts and stores each one.
// Questions and fragments are dropped. Updates chains are a single-record
// concern, so opts.Updates is ignored here.
func (s *Service) Ingest(ctx context.Context, content string, opts RememberOpts) ([]*memory.Record, error) {
	cands := extract.Candidates(content)
	if len(cands) == 0 {
		return nil, fmt.Errorf("no usable facts in content")
	}

	opts.Updates = ""
	var out []*memory.Record
	for _, c := range cands {
		rec, err := s.Remember(ctx, c.Content, opts)
		if err != nil {
			return out, fmt.Errorf("ingest %q: %w", c.Content, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Confirm marks a record user-confirmed and restores its stored confidence
// to full.
func (s *Service) Confirm(id string) error {
	rec, err := s.DB.GetMemory(id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("unknown record %q", id)
	}

	if err := s.DB.ConfirmMemory(id); err != nil {
		return err
	}
	return s.DB.UpdateConfidence(id, 1.0)
}

// Recall runs hybrid search then the reranker, and touches every returned
// record so access frequency feeds future rankings.
func (s *Service) Recall(ctx context.Context, query string, opts SearchOpts) ([]memory.Scored, error) {
	candidates, err := Search(ctx, s.DB, s.Embedder, query, opts)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := Rerank(query, candidates, opts.topK(), now)

	for _, r := range results {
		if err := s.DB.TouchMemory(r.Record.ID, now); err != nil {
			log.Printf("recall: touch %s: %v", r.Record.ID, err)
		}
	}

	return results, nil
}

// Relate adds a typed edge between two existing records and persists it.
func (s *Service) Relate(sourceID string, rel memory.Relationship) error {
	src, err := s.DB.GetMemory(sourceID)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("unknown record %q", sourceID)
	}

	target, err := s.DB.GetMemory(rel.TargetID)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("unknown target %q", rel.TargetID)
	}

	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now()
	}
	if err := s.DB.SaveRelationship(sourceID, rel); err != nil {
		return err
	}

	// A contradiction weakens the target fact's stored confidence.
	if rel.Type == memory.RelContradicts {
		damped := target.Confidence * 0.8
		if err := s.DB.UpdateConfidence(target.ID, damped); err != nil {
			return fmt.Errorf("lower contradicted confidence: %w", err)
		}
		log.Printf("relate: contradiction lowers %s confidence to %.2f", target.ID, damped)
	}
	return nil
}

// FallbackEmbedder builds a TF-IDF embedder from the current store contents,
// for deployments without an embedding service.
func FallbackEmbedder(db *store.DB) (Embedder, error) {
	records, err := db.AllMemories()
	if err != nil {
		return nil, fmt.Errorf("load memories for tfidf: %w", err)
	}
	return NewTFIDFEmbedder(records, 512), nil
}
