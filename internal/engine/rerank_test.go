package engine

import (
	"math"
	"testing"
	"time"

	"github.com/lazypower/recall/internal/memory"
)

func TestRerankEmpty(t *testing.T) {
	got := Rerank("anything", nil, 10, time.Now())
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestRerankStaticOutranksEpisodic(t *testing.T) {
	now := time.Now()

	static := memory.New("my name is Ada", nil, now)
	static.Static = true
	episodic := memory.New("I had coffee", nil, now)

	candidates := []memory.Scored{
		{Record: episodic, Score: 0.5},
		{Record: static, Score: 0.5},
	}

	got := Rerank("", candidates, 2, now)
	if got[0].Record.ID != static.ID {
		t.Errorf("static record should outrank episodic at equal base score")
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("static score %v should exceed episodic %v", got[0].Score, got[1].Score)
	}
}

func TestRerankAdjustmentOrder(t *testing.T) {
	now := time.Now()

	r := memory.New("fact", nil, now)
	r.Static = true
	r.Metadata.AccessCount = 4

	got := Rerank("", []memory.Scored{{Record: r, Score: 0.5}}, 1, now)

	// (base + recency*0.1) * confidence * static, then + access boost.
	want := (0.5+1.0*0.1)*r.EffectiveConfidence(now)*1.2 + 4*0.05
	if math.Abs(got[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", got[0].Score, want)
	}
}

func TestRerankAccessBoostCapped(t *testing.T) {
	now := time.Now()

	light := memory.New("fact", nil, now)
	light.Metadata.AccessCount = 6
	heavy := memory.New("fact", nil, now)
	heavy.Metadata.AccessCount = 600

	lightOut := Rerank("", []memory.Scored{{Record: light, Score: 0}}, 1, now)
	heavyOut := Rerank("", []memory.Scored{{Record: heavy, Score: 0}}, 1, now)

	if lightOut[0].Score != heavyOut[0].Score {
		t.Errorf("access boost should cap at 0.3: %v vs %v", lightOut[0].Score, heavyOut[0].Score)
	}
}

func TestRerankRecencyBands(t *testing.T) {
	now := time.Now()

	cases := []struct {
		age  time.Duration
		want float64
	}{
		{2 * time.Hour, 1.0},
		{3 * 24 * time.Hour, 0.5},
		{20 * 24 * time.Hour, 0.2},
		{90 * 24 * time.Hour, 0.0},
	}

	for _, tc := range cases {
		r := memory.New("fact", nil, now.Add(-tc.age))
		if got := recencyBoost(r, now); got != tc.want {
			t.Errorf("age %v: boost = %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestRerankTruncates(t *testing.T) {
	now := time.Now()
	var candidates []memory.Scored
	for i := 0; i < 25; i++ {
		candidates = append(candidates, memory.Scored{Record: memory.New("fact", nil, now), Score: 0.1})
	}

	if got := Rerank("", candidates, 5, now); len(got) != 5 {
		t.Errorf("expected 5 results, got %d", len(got))
	}
	// Zero topK falls back to the default of 10.
	if got := Rerank("", candidates, 0, now); len(got) != 10 {
		t.Errorf("expected 10 results at default topK, got %d", len(got))
	}
}
