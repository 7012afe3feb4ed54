package vits

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ekisa-team/speechgate/internal/backend"
	"github.com/ekisa-team/speechgate/internal/mapsafe"
	"github.com/ekisa-team/speechgate/internal/xfs"
)

const (
	vocabFile           = "vocab.json"
	tokenizerConfigFile = "tokenizer_config.json"

	// blankID is interleaved between characters when add_blank is set.
	blankID int64 = 0
)

// TokenizerOptions mirror the flags of an MMS tokenizer_config.json.
type TokenizerOptions struct {
	AddBlank    bool
	LowerCase   bool
	NeedsUroman bool
}

// Tokenizer is the character level tokenizer shipped with MMS VITS
// checkpoints. Every character known to the vocabulary becomes one id.
type Tokenizer struct {
	vocab map[string]int64
	opts  TokenizerOptions
}

var _ backend.Tokenizer = (*Tokenizer)(nil)

// NewTokenizer creates a tokenizer over vocab.
func NewTokenizer(vocab map[string]int64, opts TokenizerOptions) *Tokenizer {
	return &Tokenizer{vocab: vocab, opts: opts}
}

// LoadTokenizer reads vocab.json and tokenizer_config.json from a
// checkpoint directory.
func LoadTokenizer(dir string) (*Tokenizer, error) {
	data, err := os.ReadFile(filepath.Join(dir, vocabFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrInvalidModelFiles, err)
	}

	var vocab map[string]int64
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("decode %s: %w", vocabFile, err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%w: empty %s", backend.ErrInvalidModelFiles, vocabFile)
	}

	// Defaults match the MMS tokenizer when the config file is absent.
	opts := TokenizerOptions{AddBlank: true, LowerCase: true}

	raw, ok, err := xfs.ReadFileIfExists(filepath.Join(dir, tokenizerConfigFile))
	if err != nil {
		return nil, err
	}
	if ok {
		var tc map[string]any
		if err := json.Unmarshal(raw, &tc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", tokenizerConfigFile, err)
		}
		opts.AddBlank = mapsafe.Get(tc, "add_blank", opts.AddBlank)
		opts.LowerCase = mapsafe.Get(tc, "do_lower_case", opts.LowerCase)
		opts.NeedsUroman = mapsafe.Get(tc, "is_uroman", false)
	}

	if opts.NeedsUroman {
		slog.Warn("Checkpoint expects romanized input, text is passed through unchanged", "path", dir)
	}

	return NewTokenizer(vocab, opts), nil
}

// Encode returns the input ids for text. Characters missing from the
// vocabulary are dropped.
func (t *Tokenizer) Encode(text string) ([]int64, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("text is not valid UTF-8")
	}
	if t.opts.LowerCase {
		text = strings.ToLower(text)
	}

	ids := make([]int64, 0, len(text))
	for _, r := range text {
		if id, ok := t.vocab[string(r)]; ok {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 || !t.opts.AddBlank {
		return ids, nil
	}

	out := make([]int64, 2*len(ids)+1)
	for i, id := range ids {
		out[2*i] = blankID
		out[2*i+1] = id
	}
	out[len(out)-1] = blankID

	return out, nil
}
