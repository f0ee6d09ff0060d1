// Package extract is the fallback fact extractor: plain text classification
// that turns free-form input into candidate memory facts with entities,
// topics, and a static/episodic call. No model calls anywhere.
package extract

import (
	"strings"
	"unicode"
)

// Candidate is one extracted fact ready to become a memory record.
type Candidate struct {
	Content    string
	Static     bool
	Entities   []string
	Topics     []string
	Importance float64
}

// Durable-fact phrasing: statements about identity, preference, or standing
// circumstance rather than a one-off event.
var staticPhrases = []string{
	"my name is", "i live", "i work", "i am from", "i'm from",
	"i love", "i hate", "i prefer", "i always", "i never",
	"my birthday", "allergic", "my favorite", "my favourite",
}

var importancePhrases = []string{"important", "remember", "don't forget", "critical"}

// topicKeywords buckets content into coarse topics.
var topicKeywords = map[string]string{
	"work": "work", "job": "work", "office": "work", "meeting": "work", "project": "work",
	"family": "family", "mother": "family", "father": "family", "sister": "family",
	"brother": "family", "wife": "family", "husband": "family", "kids": "family",
	"travel": "travel", "trip": "travel", "flight": "travel", "visited": "travel", "vacation": "travel",
	"food": "food", "restaurant": "food", "dinner": "food", "lunch": "food", "cooking": "food",
	"health": "health", "doctor": "health", "gym": "health", "exercise": "health", "sleep": "health",
	"learning": "education", "study": "education", "course": "education", "reading": "education",
	"music": "hobbies", "movie": "hobbies", "game": "hobbies", "hiking": "hobbies",
}

// Candidates splits content into sentences and classifies each one that looks
// like a usable fact. Questions and fragments are dropped.
func Candidates(content string) []Candidate {
	var out []Candidate
	for _, sentence := range splitSentences(content) {
		c, ok := classify(sentence)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Classify runs the single-statement path: the whole content treated as one
// candidate fact, no sentence splitting.
func Classify(content string) Candidate {
	c, ok := classify(content)
	if !ok {
		c = Candidate{Content: strings.TrimSpace(content), Importance: 0.3}
	}
	return c
}

func classify(sentence string) (Candidate, bool) {
	sentence = strings.TrimSpace(sentence)
	if len(sentence) < 10 {
		return Candidate{}, false
	}
	if strings.HasSuffix(sentence, "?") {
		return Candidate{}, false
	}

	lower := strings.ToLower(sentence)

	c := Candidate{
		Content:    sentence,
		Static:     containsAny(lower, staticPhrases),
		Entities:   entities(sentence),
		Topics:     topics(lower),
		Importance: 0.5,
	}

	if c.Static {
		c.Importance += 0.2
	}
	if containsAny(lower, importancePhrases) {
		c.Importance += 0.2
	}
	if c.Importance > 1.0 {
		c.Importance = 1.0
	}

	return c, true
}

// splitSentences keeps the trailing question mark so classify can drop
// questions after the split.
func splitSentences(content string) []string {
	var out []string
	start := 0
	for i, r := range content {
		if r != '.' && r != '!' && r != '?' && r != '\n' {
			continue
		}
		s := strings.TrimSpace(content[start:i])
		if s != "" {
			if r == '?' {
				s += "?"
			}
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(content[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// entities picks out capitalized words past the sentence start as a cheap
// proper-noun proxy. Consecutive capitalized words join into one entity.
func entities(sentence string) []string {
	words := strings.Fields(sentence)
	var out []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}

	for i, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if i == 0 || trimmed == "" || trimmed == "I" || !unicode.IsUpper([]rune(trimmed)[0]) {
			flush()
			continue
		}
		current = append(current, trimmed)
	}
	flush()

	return dedupe(out)
}

func topics(lower string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, token := range strings.Fields(lower) {
		token = strings.Trim(token, ".,!;:'\"")
		topic, ok := topicKeywords[token]
		if ok && !seen[topic] {
			seen[topic] = true
			out = append(out, topic)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
