package grading

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		canonical string
		want      bool
	}{
		{name: "exact", candidate: "Paris", canonical: "Paris", want: true},
		{name: "case insensitive", candidate: "PARIS", canonical: "paris", want: true},
		{name: "question form", candidate: "What is Paris", canonical: "Paris", want: true},
		{name: "punctuation", candidate: "Who is St. Augustine?", canonical: "St Augustine", want: true},
		{name: "containment", candidate: "a mitochondrion", canonical: "mitochondrion", want: true},
		{name: "canonical contains candidate", candidate: "Lincoln", canonical: "Abraham Lincoln", want: true},
		{name: "overlap threshold", candidate: "Abraham Lincoln was a president", canonical: "Lincoln president", want: true},
		{name: "below threshold", candidate: "red green blue", canonical: "red yellow purple", want: false},
		{name: "unrelated", candidate: "banana", canonical: "orange", want: false},
		{name: "empty candidate", candidate: "", canonical: "Paris", want: false},
		{name: "stopwords only", candidate: "What is the", canonical: "the", want: false},
		{name: "article inside word kept", candidate: "Anastasia", canonical: "nastasia", want: true},
		{name: "unicode fold", candidate: "ÉCOLE", canonical: "école", want: true},
		{name: "empty canonical", candidate: "Paris", canonical: "", want: false},
		{name: "anything against empty canonical", candidate: "anything", canonical: "", want: false},
		{name: "stopword-only canonical", candidate: "the answer", canonical: "The", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsMatch(tt.candidate, tt.canonical))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"What is   the Eiffel Tower?": "eiffel tower",
		"  A  cat  ":                  "cat",
		"Who are The Beatles":         "beatles",
		"Théâtre":                     "théâtre",
		"rock & roll":                 "rock roll",
		"Anastasia, whatnot":          "anastasia whatnot",
		"":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestIsMatchConcurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, IsMatch("What is Paris", "Paris"))
				assert.False(t, IsMatch("banana", "orange"))
			}
		}()
	}
	wg.Wait()
}
