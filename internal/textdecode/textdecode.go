// Package textdecode adapts golang.org/x/text encodings to the tail
// reader's byte-oriented line decoding. The service's upstream log
// producers write 8-bit Cyrillic (Windows-1251) by default; some exchange
// files fall back to ISO-8859-1.
package textdecode

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Decoder turns a raw line of bytes into text, or reports why it could not.
type Decoder interface {
	Decode(raw []byte) (string, error)
	Name() string
}

type charmapDecoder struct {
	name string
	enc  *encoding.Decoder
}

func (c *charmapDecoder) Name() string { return c.name }

func (c *charmapDecoder) Decode(raw []byte) (string, error) {
	out, err := c.enc.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(out), nil
}

type utf8Decoder struct{}

func (utf8Decoder) Name() string { return "utf-8" }

func (utf8Decoder) Decode(raw []byte) (string, error) {
	return string(raw), nil
}

// Named constructs the Decoder matching the config `encoding` key. Unknown
// names fall back to cp1251, mirroring config.py's `default_encoding`.
func Named(name string) Decoder {
	switch name {
	case "utf-8", "utf8":
		return utf8Decoder{}
	case "iso-8859-1", "iso8859-1", "latin1":
		return &charmapDecoder{name: "iso-8859-1", enc: charmap.ISO8859_1.NewDecoder()}
	case "cp1251", "windows-1251", "":
		return &charmapDecoder{name: "cp1251", enc: charmap.Windows1251.NewDecoder()}
	default:
		return &charmapDecoder{name: "cp1251", enc: charmap.Windows1251.NewDecoder()}
	}
}
