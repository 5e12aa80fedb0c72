// Package ocr runs text extraction per frame and computes the diff against
// the previously persisted frame's text.
package ocr

import (
	"context"
	"sort"
	"strings"
)

// WordRecord is one recognized token from the OCR engine's structured
// (TSV-like) output.
type WordRecord struct {
	Level    int     `json:"level"`
	PageNum  int     `json:"page_num"`
	BlockNum int     `json:"block_num"`
	ParNum   int     `json:"par_num"`
	LineNum  int     `json:"line_num"`
	WordNum  int     `json:"word_num"`
	Left     int     `json:"left"`
	Top      int     `json:"top"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Conf     float64 `json:"conf"`
	Text     string  `json:"text"`
}

// Result is the output of a single Extract call.
type Result struct {
	Text  string       `json:"output"`
	Words []WordRecord `json:"data"`
}

// Engine extracts text from a single frame image.
type Engine interface {
	Extract(ctx context.Context, imageData []byte) (Result, error)
}

// Tokenize splits text into a case-sensitive, order-insensitive token set.
func Tokenize(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// DiffTokens returns the sorted tokens present in current but not previous
// (Section 4.3, step 3: "new_text_json_vs_previous_frame").
func DiffTokens(current, previous map[string]struct{}) []string {
	diff := make([]string, 0)
	for tok := range current {
		if _, ok := previous[tok]; !ok {
			diff = append(diff, tok)
		}
	}
	sort.Strings(diff)
	return diff
}

// SortedTokens returns the token set as a sorted slice, for deterministic
// JSON encoding.
func SortedTokens(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
