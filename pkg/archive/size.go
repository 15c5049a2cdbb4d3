package archive

import (
	"strconv"
	"strings"
)

var sizeUnits = map[byte]float64{
	'K': 1024,
	'M': 1024 * 1024,
	'G': 1024 * 1024 * 1024,
}

// ParseSize converts listing sizes like "146K", "1.2M" or "512" into bytes.
// Anything that is not a number yields 0 so the file is merely ranked last.
func ParseSize(text string) float64 {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return 0
	}

	multiplier := 1.0
	if m, ok := sizeUnits[s[len(s)-1]]; ok {
		multiplier = m
		s = strings.TrimSpace(s[:len(s)-1])
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return value * multiplier
}
