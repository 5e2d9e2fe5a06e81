// Package pathcodec converts attachment paths between their raw, escaped
// (storage) and display forms.
//
// The escaped form encodes every rune as a six character `\uXXXX` token so
// that separators and non-ASCII names survive a round trip through systems
// with a different locale. The display form swaps separators for a single
// glyph and is never used for file system access.
package pathcodec

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"

	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"
)

const (
	tokenPrefix = `\u`
	tokenLen    = 6

	// DisplayGlyph is the separator shown to users (yen sign, as rendered by
	// Japanese Windows for the backslash)
	DisplayGlyph = '¥'
)

// Codec holds the separator conventions for display and normalization
type Codec struct {
	Separator rune // Canonical separator
	Alternate rune // Alternate separator unified into Separator
	Glyph     rune // Display glyph
}

// Default uses the host separator as canonical
var Default = NewCodec(filepath.Separator)

// NewCodec creates a Codec with the given canonical separator.
// The other of '/' and '\' becomes the alternate.
func NewCodec(sep rune) Codec {
	alt := '/'
	if sep == '/' {
		alt = '\\'
	}
	return Codec{Separator: sep, Alternate: alt, Glyph: DisplayGlyph}
}

// Escape encodes every rune of raw as a `\uXXXX` token. Runes above U+FFFF are
// written as a UTF-16 surrogate pair (two tokens). Decode(Escape(s)) == s holds
// for valid UTF-8 only: each invalid byte is escaped as U+FFFD.
func Escape(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) * tokenLen)
	for _, r := range raw {
		if r1, r2 := utf16.EncodeRune(r); r1 != '�' || r2 != '�' {
			writeToken(&b, r1)
			writeToken(&b, r2)
			continue
		}
		writeToken(&b, r)
	}
	return b.String()
}

func writeToken(b *strings.Builder, r rune) {
	fmt.Fprintf(b, `\u%04x`, r)
}

// Decode is the strict inverse of Escape
func Decode(escaped string) (string, error) {
	if len(escaped)%tokenLen != 0 {
		return "", fmt.Errorf("%w: length %d is not a multiple of %d", model.ErrMalformedReference, len(escaped), tokenLen)
	}

	units := make([]uint16, 0, len(escaped)/tokenLen)
	for i := 0; i < len(escaped); i += tokenLen {
		tok := escaped[i : i+tokenLen]
		if !strings.HasPrefix(tok, tokenPrefix) {
			return "", fmt.Errorf("%w: bad token %q at offset %d", model.ErrMalformedReference, tok, i)
		}
		v, err := strconv.ParseUint(tok[2:], 16, 16)
		if err != nil {
			return "", fmt.Errorf("%w: bad token %q at offset %d", model.ErrMalformedReference, tok, i)
		}
		units = append(units, uint16(v))
	}

	// Reject lone surrogates; utf16.Decode would silently map them to U+FFFD
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u >= 0xDC00 || i+1 >= len(units) || utf16.DecodeRune(u, rune(units[i+1])) == '�' {
			return "", fmt.Errorf("%w: unpaired surrogate at token %d", model.ErrMalformedReference, i)
		}
		i++
	}

	return string(utf16.Decode(units)), nil
}

// Unescape decodes an escaped path. Malformed input is returned unchanged,
// which also lets legacy rows holding plain paths pass through.
func Unescape(escaped string) string {
	raw, err := Decode(escaped)
	if err != nil {
		logger.Debug("Keeping unescaped path reference: %v", err)
		return escaped
	}
	return raw
}

// IsEscaped reports whether s is a well-formed escaped path
func IsEscaped(s string) bool {
	_, err := Decode(s)
	return err == nil
}

// ToDisplay replaces every separator with the display glyph.
// A UNC prefix `\\server` becomes two glyphs and stays distinguishable.
func (c Codec) ToDisplay(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == c.Separator || r == c.Alternate {
			return c.Glyph
		}
		return r
	}, raw)
}

// ToRaw maps the display glyph and the alternate separator back to the
// canonical separator
func (c Codec) ToRaw(display string) string {
	return strings.Map(func(r rune) rune {
		if r == c.Glyph || r == c.Alternate {
			return c.Separator
		}
		return r
	}, display)
}

// Normalize unifies separators and collapses runs of them to one.
// A leading run of two or more separators (network location) becomes exactly two.
func (c Codec) Normalize(path string) string {
	isSep := func(r rune) bool { return r == c.Separator || r == c.Alternate }

	runes := []rune(path)
	var b strings.Builder
	b.Grow(len(path))

	i := 0
	lead := 0
	for i < len(runes) && isSep(runes[i]) {
		lead++
		i++
	}
	switch {
	case lead >= 2:
		b.WriteRune(c.Separator)
		b.WriteRune(c.Separator)
	case lead == 1:
		b.WriteRune(c.Separator)
	}

	prevSep := lead > 0
	for ; i < len(runes); i++ {
		r := runes[i]
		if isSep(r) {
			if !prevSep {
				b.WriteRune(c.Separator)
			}
			prevSep = true
			continue
		}
		b.WriteRune(r)
		prevSep = false
	}
	return b.String()
}

// ToDisplay converts with the Default codec
func ToDisplay(raw string) string { return Default.ToDisplay(raw) }

// ToRaw converts with the Default codec
func ToRaw(display string) string { return Default.ToRaw(display) }

// Normalize normalizes with the Default codec
func Normalize(path string) string { return Default.Normalize(path) }
