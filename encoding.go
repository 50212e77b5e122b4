package retailsql

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding is the character encoding of a text dataset
type Encoding int

const (
	// EncodingISO88591 is ISO-8859-1 (Latin-1), the encoding of the Online Retail export
	EncodingISO88591 Encoding = iota
	// EncodingWindows1252 is Windows code page 1252
	EncodingWindows1252
	// EncodingUTF8 is UTF-8; a leading byte order mark is removed
	EncodingUTF8
)

// DefaultEncoding is used when the builder is not given an encoding
const DefaultEncoding = EncodingISO88591

// String returns the canonical name of the encoding
func (e Encoding) String() string {
	switch e {
	case EncodingWindows1252:
		return "windows-1252"
	case EncodingUTF8:
		return "utf-8"
	default:
		return "iso-8859-1"
	}
}

// ParseEncoding converts a configuration value such as "latin1" or "utf-8" to Encoding.
// An empty name selects DefaultEncoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultEncoding, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return EncodingISO88591, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	default:
		return DefaultEncoding, fmt.Errorf("unknown encoding %q", name)
	}
}

// textEncoding returns the x/text encoding for e
func (e Encoding) textEncoding() encoding.Encoding {
	switch e {
	case EncodingWindows1252:
		return charmap.Windows1252
	case EncodingUTF8:
		return unicode.UTF8BOM
	default:
		return charmap.ISO8859_1
	}
}

// decodeReader returns a reader producing UTF-8 text from r
func decodeReader(r io.Reader, e Encoding) io.Reader {
	return transform.NewReader(r, e.textEncoding().NewDecoder())
}
