package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		name string
		text string
		want rune
	}{
		{"semicolon", "a;b;c\n1;2;3\n4;5;6", ';'},
		{"comma", "a,b,c\n1,2,3", ','},
		{"tab", "a\tb\tc\n1\t2\t3", '\t'},
		{"pipe", "a|b|c\n1|2|3", '|'},
		{"no candidate defaults to semicolon", "abc\ndef", ';'},
		{"empty input defaults to semicolon", "", ';'},
		{"majority wins", "a;b,c;d\n1;2;3,4", ';'},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectDelimiter(tc.text))
		})
	}
}

func TestDelimiterFromString(t *testing.T) {
	d, err := DelimiterFromString("")
	assert.NoError(t, err)
	assert.Equal(t, rune(0), d)

	d, err = DelimiterFromString(";")
	assert.NoError(t, err)
	assert.Equal(t, ';', d)

	d, err = DelimiterFromString("\t")
	assert.NoError(t, err)
	assert.Equal(t, '\t', d)

	// One rune, even multi-byte, is acceptable.
	d, err = DelimiterFromString("é")
	assert.NoError(t, err)
	assert.Equal(t, 'é', d)

	_, err = DelimiterFromString(`\t`)
	assert.Error(t, err, "a literal backslash-t is two characters")

	_, err = DelimiterFromString(";;")
	assert.Error(t, err)
}

func TestDetectDelimiterOnlySamplesLeadingLines(t *testing.T) {
	// Commas beyond the fifth line must not influence the choice.
	text := "a;b\n1;2\n3;4\n5;6\n7;8\n" + strings.Repeat("x,y,z,w,v\n", 50)
	assert.Equal(t, ';', DetectDelimiter(text))
}
