// Package text splits book text into marker-delimited segments and builds the
// bounded excerpt that is sent to the model.
package text

import (
	"regexp"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// MaxExcerptChars caps the excerpt length in characters (code points).
const MaxExcerptChars = 15000

// DefaultPartIndex is the segment analyzed when a request names none.
const DefaultPartIndex = 3

// markers may span lines; the shortest <<...>> match wins.
var markerPattern = regexp.MustCompile(`(?s)<<.*?>>`)

// Split cuts s at every <<...>> marker and drops the markers. Leading and
// trailing segments are kept even when empty, so a text without markers
// yields exactly one segment.
func Split(s string) []string {
	return markerPattern.Split(s, -1)
}

// Clamp maps index into [0, count-1]. count must be positive.
func Clamp(index, count int) int {
	if index >= count {
		index = count - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// Select returns the segment at index after clamping it into range.
func Select(segments []string, index int) string {
	if len(segments) == 0 {
		return ""
	}
	return segments[Clamp(index, len(segments))]
}

// Excerpt trims surrounding whitespace and keeps at most max characters.
func Excerpt(segment string, max int) string {
	s := strings.TrimSpace(segment)
	if max < 0 {
		return s
	}

	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

var loadEncoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding("o200k_base")
})

// EstimateTokens counts o200k_base tokens in s. It returns -1 when the
// encoding is unavailable.
func EstimateTokens(s string) int {
	enc, err := loadEncoding()
	if err != nil {
		return -1
	}
	return len(enc.Encode(s, nil, nil))
}
