// Package memory defines the record model for the memory graph: content,
// embedding, confidence, typed relationships, and the decay math that turns
// stored confidence into effective confidence at query time.
package memory

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/recall/internal/temporal"
)

// RelationType is a typed, directed edge between two records.
type RelationType string

const (
	RelUpdates     RelationType = "updates"
	RelExtends     RelationType = "extends"
	RelDerives     RelationType = "derives"
	RelContradicts RelationType = "contradicts"
	RelRelatedTo   RelationType = "relatedTo"
)

// Source identifies where a memory came from.
type Source string

const (
	SourceConversation Source = "conversation"
	SourceDocument     Source = "document"
	SourceUserInput    Source = "userInput"
	SourceDerived      Source = "derived"
	SourceImported     Source = "imported"
)

// Relationship is an edge from the owning record to TargetID. Edges reference
// targets by identifier rather than pointer; traversal goes back through the
// store's snapshot.
type Relationship struct {
	Type       RelationType `json:"type"`
	TargetID   string       `json:"target_id"`
	Confidence float64      `json:"confidence"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Metadata carries the mutable usage and classification signals of a record.
type Metadata struct {
	Source        Source     `json:"source"`
	Entities      []string   `json:"entities,omitempty"`
	Topics        []string   `json:"topics,omitempty"`
	Importance    float64    `json:"importance"`
	AccessCount   int        `json:"access_count"`
	LastAccessed  *time.Time `json:"last_accessed,omitempty"`
	UserConfirmed bool       `json:"user_confirmed"`
}

// Record is a single stored fact. Content, embedding, and creation time are
// fixed at creation; everything else mutates through the methods below.
// Supersession is logical (Latest flag), never a delete.
type Record struct {
	ID            string         `json:"id"`
	Content       string         `json:"content"`
	Embedding     []float64      `json:"embedding,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Confidence    float64        `json:"confidence"`
	Relationships []Relationship `json:"relationships,omitempty"`
	Metadata      Metadata       `json:"metadata"`
	Latest        bool           `json:"latest"`
	Static        bool           `json:"static"`
	ContainerTags []string       `json:"container_tags,omitempty"`
	Temporal      *temporal.Info `json:"temporal,omitempty"`
}

// Scored pairs a record with a ranking score. Produced and consumed only
// inside ranking pipelines.
type Scored struct {
	Record *Record `json:"record"`
	Score  float64 `json:"score"`
}

// New creates a record with a fresh ID and full confidence.
func New(content string, embedding []float64, now time.Time) *Record {
	return &Record{
		ID:         uuid.NewString(),
		Content:    content,
		Embedding:  embedding,
		CreatedAt:  now,
		Confidence: 1.0,
		Latest:     true,
		Metadata:   Metadata{Source: SourceUserInput, Importance: 0.5},
	}
}

// AddRelationship appends r, replacing any prior edge with the same
// (type, target) pair so repeated identical edges stay idempotent. Adding an
// updates edge marks this record as the latest fact in its chain.
func (r *Record) AddRelationship(rel Relationship) {
	kept := r.Relationships[:0]
	for _, existing := range r.Relationships {
		if existing.Type == rel.Type && existing.TargetID == rel.TargetID {
			continue
		}
		kept = append(kept, existing)
	}
	r.Relationships = append(kept, rel)

	if rel.Type == RelUpdates {
		r.Latest = true
	}
}

// RelationshipsOf filters edges by type, preserving insertion order.
func (r *Record) RelationshipsOf(t RelationType) []Relationship {
	var out []Relationship
	for _, rel := range r.Relationships {
		if rel.Type == t {
			out = append(out, rel)
		}
	}
	return out
}

// IsSuperseded reports whether a newer record has replaced this one: not the
// latest, and part of an updates chain.
func (r *Record) IsSuperseded() bool {
	return !r.Latest && len(r.RelationshipsOf(RelUpdates)) > 0
}

// DecayFactor computes the age- and access-dependent multiplier in [0,1].
// Static records decay at 0.01/day, episodic at 0.05/day. Frequent access
// counters decay; the product is clamped because a large access boost can
// push it past 1.0.
func (r *Record) DecayFactor(now time.Time) float64 {
	daysSinceCreation := now.Sub(r.CreatedAt).Hours() / 24
	daysSinceAccess := daysSinceCreation
	if r.Metadata.LastAccessed != nil {
		daysSinceAccess = now.Sub(*r.Metadata.LastAccessed).Hours() / 24
	}

	decayRate := 0.05
	if r.Static {
		decayRate = 0.01
	}

	accessCount := r.Metadata.AccessCount
	if accessCount > 10 {
		accessCount = 10
	}
	accessBoost := float64(accessCount) * 0.1

	ageFactor := math.Exp(-decayRate * daysSinceCreation)
	accessFactor := math.Exp(-decayRate*daysSinceAccess) + accessBoost

	return math.Min(ageFactor*accessFactor, 1.0)
}

// EffectiveConfidence is the stored confidence decayed by age and access.
func (r *Record) EffectiveConfidence(now time.Time) float64 {
	return r.Confidence * r.DecayFactor(now)
}

// Touch records a retrieval: bumps the access count and last-accessed time.
func (r *Record) Touch(now time.Time) {
	r.Metadata.AccessCount++
	r.Metadata.LastAccessed = &now
}

// HasTag reports whether the record carries the given container tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.ContainerTags {
		if t == tag {
			return true
		}
	}
	return false
}
