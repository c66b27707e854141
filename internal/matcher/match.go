package matcher

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/roster-matcher/internal/ai"
	"github.com/spigell/roster-matcher/internal/corpus"
	"github.com/spigell/roster-matcher/internal/roster"
)

// Dataset is one uploaded roster and the corpus fitted over it. Records and
// corpus documents are index-aligned.
type Dataset struct {
	Records  []roster.Record
	Corpus   *corpus.Corpus
	LoadedAt time.Time
}

// NewDataset fits a corpus over a private copy of records.
func NewDataset(records []roster.Record, cfg corpus.TokenizerConfig) (*Dataset, error) {
	c, err := corpus.Build(records, cfg)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Records:  append([]roster.Record(nil), records...),
		Corpus:   c,
		LoadedAt: time.Now().UTC(),
	}, nil
}

func (d *Dataset) Len() int {
	return len(d.Records)
}

// Match is a ranked reference to a record.
type Match struct {
	// Index is the record position in the uploaded roster.
	Index  int
	Record roster.Record
	Score  float64
	// Rank is 1-based.
	Rank int
	AI   *ai.Assessment
}

type Matches struct {
	// Query is the text the matches were ranked against.
	Query string
	Items []*Match
}

// Rank scores every document of ds against query and returns up to topK
// matches ordered by descending cosine similarity. Documents with zero
// similarity are never returned, so an empty or fully out-of-vocabulary
// query yields no matches.
func Rank(ds *Dataset, query string, topK int) (*Matches, error) {
	if ds == nil || ds.Corpus == nil {
		return nil, ErrNoDataset
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, topK)
	}
	if !utf8.ValidString(query) {
		return nil, fmt.Errorf("%w: query is not valid UTF-8", ErrInvalidQuery)
	}

	result := &Matches{Query: query, Items: make([]*Match, 0)}
	if strings.TrimSpace(query) == "" {
		return result, nil
	}

	qvec := ds.Corpus.Vectorize(query)
	if qvec.IsZero() {
		return result, nil
	}

	if topK > ds.Corpus.Len() {
		topK = ds.Corpus.Len()
	}

	for i := 0; i < ds.Corpus.Len(); i++ {
		dvec, err := ds.Corpus.Vector(i)
		if err != nil {
			return nil, err
		}
		score := clamp01(qvec.Dot(dvec))
		if score == 0 {
			continue
		}
		result.Items = append(result.Items, &Match{
			Index:  i,
			Record: ds.Records[i],
			Score:  score,
		})
	}

	// Items are appended in upload order, so a stable sort keeps ties in
	// that order.
	sort.SliceStable(result.Items, func(a, b int) bool {
		return result.Items[a].Score > result.Items[b].Score
	})

	if len(result.Items) > topK {
		result.Items = result.Items[:topK]
	}
	result.renumber()

	return result, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func (m *Matches) Len() int {
	return len(m.Items)
}

// Records returns the matched records in rank order.
func (m *Matches) Records() []roster.Record {
	records := make([]roster.Record, 0, len(m.Items))
	for _, match := range m.Items {
		records = append(records, match.Record)
	}
	return records
}

// Exclude removes every match whose record field equals one of targets and
// returns the names of the removed records. Order is preserved.
func (m *Matches) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[strings.TrimSpace(t)] = struct{}{}
	}

	var excluded []string
	kept := m.Items[:0]
	for _, match := range m.Items {
		if _, ok := set[match.Record.GetStringField(field)]; ok {
			excluded = append(excluded, match.Record.Name)
			continue
		}
		kept = append(kept, match)
	}
	m.Items = kept
	m.renumber()

	return excluded
}

// Filter keeps the matches for which keep returns true and reports how many
// were dropped.
func (m *Matches) Filter(keep func(*Match) bool) int {
	kept := m.Items[:0]
	for _, match := range m.Items {
		if keep(match) {
			kept = append(kept, match)
		}
	}
	dropped := len(m.Items) - len(kept)
	m.Items = kept
	m.renumber()
	return dropped
}

func (m *Matches) renumber() {
	for i, match := range m.Items {
		match.Rank = i + 1
	}
}

// ExportRows converts matches to the download representation.
func (m *Matches) ExportRows() []roster.ExportRow {
	rows := make([]roster.ExportRow, 0, len(m.Items))
	for _, match := range m.Items {
		rows = append(rows, roster.ExportRow{
			Name:         match.Record.Name,
			Employment:   match.Record.Employment,
			BoardService: match.Record.BoardService,
			Score:        match.Score,
			Rank:         match.Rank,
		})
	}
	return rows
}
