package corpus

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/spigell/roster-matcher/internal/roster"
)

var (
	ErrEmptyDataset  = errors.New("dataset contains no records")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Corpus is a fitted TF-IDF model over one uploaded roster. It is immutable
// after Build and safe for concurrent readers.
type Corpus struct {
	tokenizer *Tokenizer

	// vocabulary maps a term to its id; terms[id] is the reverse.
	vocabulary map[string]int
	terms      []string

	// idf[id] is the smoothed inverse document frequency of terms[id].
	idf []float64

	// vectors[i] is the L2-normalized weight vector of record i.
	vectors []Vector
}

// Build tokenizes every record and fits the vocabulary and IDF table.
// Term ids are assigned in first-seen order so that equal input always
// yields an identical corpus.
func Build(records []roster.Record, cfg TokenizerConfig) (*Corpus, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	tokenizer, err := NewTokenizer(cfg)
	if err != nil {
		return nil, err
	}

	c := &Corpus{
		tokenizer:  tokenizer,
		vocabulary: make(map[string]int),
		vectors:    make([]Vector, len(records)),
	}

	counts := make([]map[int]int, len(records))
	var documentFrequency []int

	for i, rec := range records {
		tokens := tokenizer.Tokens(rec.Text(tokenizer.cfg.IncludeName))
		termCounts := make(map[int]int, len(tokens))
		for _, token := range tokens {
			id, ok := c.vocabulary[token]
			if !ok {
				id = len(c.terms)
				c.vocabulary[token] = id
				c.terms = append(c.terms, token)
				documentFrequency = append(documentFrequency, 0)
			}
			if termCounts[id] == 0 {
				documentFrequency[id]++
			}
			termCounts[id]++
		}
		counts[i] = termCounts
	}

	n := float64(len(records))
	c.idf = make([]float64, len(c.terms))
	for id, df := range documentFrequency {
		c.idf[id] = math.Log((1+n)/(1+float64(df))) + 1
	}

	for i, termCounts := range counts {
		c.vectors[i] = c.weigh(termCounts)
	}

	return c, nil
}

// weigh converts term counts into a unit-length tf-idf vector.
func (c *Corpus) weigh(termCounts map[int]int) Vector {
	vec := make(Vector, 0, len(termCounts))
	for id, count := range termCounts {
		vec = append(vec, Term{ID: id, Weight: c.tf(count) * c.idf[id]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].ID < vec[j].ID })
	return vec.Normalize()
}

func (c *Corpus) tf(count int) float64 {
	if c.tokenizer.cfg.TF == TFLog1p {
		return math.Log1p(float64(count))
	}
	return float64(count)
}

// Vectorize builds a unit-length query vector from text using the fitted
// vocabulary. Terms the corpus has never seen are dropped.
func (c *Corpus) Vectorize(text string) Vector {
	termCounts := make(map[int]int)
	for _, token := range c.tokenizer.Tokens(text) {
		if id, ok := c.vocabulary[token]; ok {
			termCounts[id]++
		}
	}
	if len(termCounts) == 0 {
		return nil
	}
	return c.weigh(termCounts)
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.vectors)
}

func (c *Corpus) VocabularySize() int {
	return len(c.terms)
}

// Vector returns the document vector at position i.
func (c *Corpus) Vector(i int) (Vector, error) {
	if i < 0 || i >= len(c.vectors) {
		return nil, fmt.Errorf("document %d out of range [0, %d)", i, len(c.vectors))
	}
	return c.vectors[i], nil
}

// IDF returns the inverse document frequency of term, if known.
func (c *Corpus) IDF(term string) (float64, bool) {
	id, ok := c.vocabulary[term]
	if !ok {
		return 0, false
	}
	return c.idf[id], true
}

// TermID returns the vocabulary id of term, if known.
func (c *Corpus) TermID(term string) (int, bool) {
	id, ok := c.vocabulary[term]
	return id, ok
}

// Config returns the tokenizer configuration the corpus was fitted with.
func (c *Corpus) Config() TokenizerConfig {
	return c.tokenizer.Config()
}
