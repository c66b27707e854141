package corpus

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TFScheme selects how raw term counts are scaled.
type TFScheme string

const (
	TFRaw   TFScheme = "raw"
	TFLog1p TFScheme = "log1p"
)

// TokenizerConfig controls text normalization. A Corpus keeps the config it
// was built with so that queries are always tokenized the same way.
type TokenizerConfig struct {
	Lowercase        bool     `mapstructure:"lowercase"`
	StripPunctuation bool     `mapstructure:"strip-punctuation"`
	Stopwords        []string `mapstructure:"stopwords"`
	MinTokenLength   int      `mapstructure:"min-token-length"`
	// NGramMax is 1 for unigrams only or 2 to add adjacent-word bigrams.
	NGramMax int      `mapstructure:"ngram-max"`
	TF       TFScheme `mapstructure:"tf"`
	// IncludeName adds the record name to the indexed text.
	IncludeName bool `mapstructure:"include-name"`
}

// DefaultStopwords is the small English function-word list stripped from
// roster text by default.
var DefaultStopwords = []string{"the", "of", "and", "a", "an", "for", "in", "on", "at", "by", "with"}

func DefaultTokenizerConfig() TokenizerConfig {
	return TokenizerConfig{
		Lowercase:        true,
		StripPunctuation: true,
		Stopwords:        append([]string(nil), DefaultStopwords...),
		MinTokenLength:   2,
		NGramMax:         1,
		TF:               TFRaw,
	}
}

// Validate reports configuration errors wrapped in ErrInvalidConfig.
// Zero NGramMax and empty TF are accepted and mean 1 and raw.
func (c TokenizerConfig) Validate() error {
	if c.MinTokenLength < 0 {
		return fmt.Errorf("%w: min-token-length must not be negative, got %d", ErrInvalidConfig, c.MinTokenLength)
	}
	if c.NGramMax < 0 || c.NGramMax > 2 {
		return fmt.Errorf("%w: ngram-max must be 1 or 2, got %d", ErrInvalidConfig, c.NGramMax)
	}
	switch c.TF {
	case "", TFRaw, TFLog1p:
	default:
		return fmt.Errorf("%w: unknown tf scheme %q", ErrInvalidConfig, c.TF)
	}
	return nil
}

func (c TokenizerConfig) withDefaults() TokenizerConfig {
	if c.NGramMax == 0 {
		c.NGramMax = 1
	}
	if c.TF == "" {
		c.TF = TFRaw
	}
	c.Stopwords = append([]string(nil), c.Stopwords...)
	return c
}

// Tokenizer turns free text into index terms.
type Tokenizer struct {
	cfg       TokenizerConfig
	stopwords map[string]struct{}
}

func NewTokenizer(cfg TokenizerConfig) (*Tokenizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	t := &Tokenizer{cfg: cfg, stopwords: make(map[string]struct{}, len(cfg.Stopwords))}
	for _, word := range cfg.Stopwords {
		// Stopwords go through the same folding as text so that "The"
		// matches "the" when lowercasing is on.
		for _, folded := range t.split(t.fold(word)) {
			t.stopwords[folded] = struct{}{}
		}
	}
	return t, nil
}

func (t *Tokenizer) Config() TokenizerConfig {
	cfg := t.cfg
	cfg.Stopwords = append([]string(nil), t.cfg.Stopwords...)
	return cfg
}

// Tokens returns the terms of text in order, including bigrams when enabled.
func (t *Tokenizer) Tokens(text string) []string {
	words := t.split(t.fold(text))

	kept := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) < t.cfg.MinTokenLength {
			continue
		}
		if _, stop := t.stopwords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}

	if t.cfg.NGramMax < 2 || len(kept) < 2 {
		return kept
	}

	tokens := make([]string, 0, 2*len(kept)-1)
	tokens = append(tokens, kept...)
	for i := 0; i+1 < len(kept); i++ {
		tokens = append(tokens, kept[i]+" "+kept[i+1])
	}
	return tokens
}

func (t *Tokenizer) fold(text string) string {
	text = norm.NFKC.String(text)
	if t.cfg.Lowercase {
		text = strings.ToLower(text)
	}
	return text
}

func (t *Tokenizer) split(text string) []string {
	if !t.cfg.StripPunctuation {
		return strings.Fields(text)
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
