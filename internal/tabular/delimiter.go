package tabular

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// delimiterSampleLines is how many leading lines feed the sniffer.
const delimiterSampleLines = 5

// candidate delimiters, in tie-break preference order.
var candidateDelimiters = []rune{';', ',', '\t', '|'}

// DetectDelimiter sniffs the field delimiter by counting candidate
// characters across the first few lines and choosing the most
// frequent. Semicolon is the default when no candidate appears, these
// datasets being semicolon-delimited French exports.
func DetectDelimiter(text string) rune {
	lines := strings.SplitN(text, "\n", delimiterSampleLines+1)
	if len(lines) > delimiterSampleLines {
		lines = lines[:delimiterSampleLines]
	}
	sample := strings.Join(lines, "\n")

	best := ';'
	bestCount := 0
	for _, c := range candidateDelimiters {
		if n := strings.Count(sample, string(c)); n > bestCount {
			best = c
			bestCount = n
		}
	}
	return best
}

// DelimiterFromString parses a delimiter override. Empty input means
// no override (0); anything longer than one character is rejected.
func DelimiterFromString(s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return r, nil
}
