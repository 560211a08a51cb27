// Package tabular turns raw delimited text files of unknown encoding
// and delimiter into uniform all-text frames.
package tabular

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts raw file bytes to a string. With no forced
// encoding it tries UTF-8 (with or without BOM) first and falls back
// to Latin-1, which accepts every byte sequence; decoding therefore
// never hard-fails on the fallback chain.
func Decode(raw []byte, forced string) (string, error) {
	if forced != "" {
		return decodeAs(raw, forced)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return charmap.ISO8859_1.NewDecoder().String(string(raw))
}

func decodeAs(raw []byte, encoding string) (string, error) {
	switch encoding {
	case "utf-8", "utf8":
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("input is not valid UTF-8")
		}
		return string(raw), nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().String(string(raw))
	default:
		return "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}
