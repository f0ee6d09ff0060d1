package memory

import (
	"math"
	"testing"
	"time"
)

func TestAddRelationshipIdempotent(t *testing.T) {
	now := time.Now()
	r := New("fact", nil, now)

	r.AddRelationship(Relationship{Type: RelRelatedTo, TargetID: "other", Confidence: 0.4, CreatedAt: now})
	r.AddRelationship(Relationship{Type: RelRelatedTo, TargetID: "other", Confidence: 0.9, CreatedAt: now})

	rels := r.RelationshipsOf(RelRelatedTo)
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9 (latest wins)", rels[0].Confidence)
	}
}

func TestAddRelationshipPreservesOtherEdges(t *testing.T) {
	now := time.Now()
	r := New("fact", nil, now)

	r.AddRelationship(Relationship{Type: RelExtends, TargetID: "a", CreatedAt: now})
	r.AddRelationship(Relationship{Type: RelContradicts, TargetID: "a", CreatedAt: now})
	r.AddRelationship(Relationship{Type: RelExtends, TargetID: "b", CreatedAt: now})

	if len(r.Relationships) != 3 {
		t.Fatalf("expected 3 relationships, got %d", len(r.Relationships))
	}
	if got := len(r.RelationshipsOf(RelExtends)); got != 2 {
		t.Errorf("extends edges = %d, want 2", got)
	}
}

func TestUpdatesRelationshipMarksLatest(t *testing.T) {
	now := time.Now()
	r := New("newer fact", nil, now)
	r.Latest = false

	r.AddRelationship(Relationship{Type: RelUpdates, TargetID: "old", CreatedAt: now})

	if !r.Latest {
		t.Error("adding an updates relationship should mark the record latest")
	}
}

func TestIsSuperseded(t *testing.T) {
	now := time.Now()

	r := New("fact", nil, now)
	r.AddRelationship(Relationship{Type: RelUpdates, TargetID: "new", CreatedAt: now})
	if r.IsSuperseded() {
		t.Error("latest record must not be superseded, whatever its relationships")
	}

	r.Latest = false
	if !r.IsSuperseded() {
		t.Error("non-latest record with an updates edge must be superseded")
	}

	plain := New("fact", nil, now)
	plain.Latest = false
	if plain.IsSuperseded() {
		t.Error("non-latest record without an updates edge is not superseded")
	}
}

func TestDecayFactorClamped(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name        string
		static      bool
		ageDays     int
		accessCount int
	}{
		{"fresh heavy access", false, 0, 10},
		{"static heavy access", true, 1, 50},
		{"old untouched", false, 400, 0},
		{"old heavy access", true, 100, 10},
	}

	for _, tc := range cases {
		r := New("fact", nil, now.AddDate(0, 0, -tc.ageDays))
		r.Static = tc.static
		r.Metadata.AccessCount = tc.accessCount
		la := now
		r.Metadata.LastAccessed = &la

		if got := r.DecayFactor(now); got > 1.0 {
			t.Errorf("%s: decay factor %v exceeds 1.0", tc.name, got)
		}
	}
}

func TestDecayFactorStaticSlower(t *testing.T) {
	now := time.Now()
	created := now.AddDate(0, 0, -30)

	episodic := New("fact", nil, created)
	static := New("fact", nil, created)
	static.Static = true

	if static.DecayFactor(now) <= episodic.DecayFactor(now) {
		t.Errorf("static decay %v should exceed episodic decay %v after 30 days",
			static.DecayFactor(now), episodic.DecayFactor(now))
	}
}

func TestDecayFactorNeverAccessedUsesCreation(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r := New("fact", nil, now.AddDate(0, 0, -10))

	// With no access, both day counts equal days since creation.
	want := math.Min(math.Exp(-0.05*10)*math.Exp(-0.05*10), 1.0)
	got := r.DecayFactor(now)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("decay factor = %v, want %v", got, want)
	}
}

func TestEffectiveConfidence(t *testing.T) {
	now := time.Now()
	r := New("fact", nil, now)
	r.Confidence = 0.8

	// Fresh record: decay factor 1.0, effective equals stored.
	if got := r.EffectiveConfidence(now); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("effective confidence = %v, want 0.8", got)
	}
}

func TestTouch(t *testing.T) {
	now := time.Now()
	r := New("fact", nil, now)

	r.Touch(now)
	r.Touch(now.Add(time.Hour))

	if r.Metadata.AccessCount != 2 {
		t.Errorf("access count = %d, want 2", r.Metadata.AccessCount)
	}
	if r.Metadata.LastAccessed == nil || !r.Metadata.LastAccessed.Equal(now.Add(time.Hour)) {
		t.Errorf("last accessed = %v, want %v", r.Metadata.LastAccessed, now.Add(time.Hour))
	}
}

func TestHasTag(t *testing.T) {
	r := New("fact", nil, time.Now())
	r.ContainerTags = []string{"work", "personal"}

	if !r.HasTag("work") {
		t.Error("expected HasTag(work) = true")
	}
	if r.HasTag("travel") {
		t.Error("expected HasTag(travel) = false")
	}
}
