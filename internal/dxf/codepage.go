package dxf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultCodePage is the code page assumed when a pre-2007 drawing does
// not declare one, and the one the writer declares.
const DefaultCodePage = "ANSI_1252"

// utf8Version is the first $ACADVER whose strings are UTF-8.
const utf8Version = 1021

var codePages = map[string]*charmap.Charmap{
	"ANSI_874":   charmap.Windows874,
	"ANSI_1250":  charmap.Windows1250,
	"ANSI_1251":  charmap.Windows1251,
	"ANSI_1252":  charmap.Windows1252,
	"ANSI_1253":  charmap.Windows1253,
	"ANSI_1254":  charmap.Windows1254,
	"ANSI_1255":  charmap.Windows1255,
	"ANSI_1256":  charmap.Windows1256,
	"ANSI_1257":  charmap.Windows1257,
	"ANSI_1258":  charmap.Windows1258,
	"DOS437":     charmap.CodePage437,
	"DOS850":     charmap.CodePage850,
	"DOS852":     charmap.CodePage852,
	"DOS855":     charmap.CodePage855,
	"DOS860":     charmap.CodePage860,
	"DOS863":     charmap.CodePage863,
	"DOS865":     charmap.CodePage865,
	"DOS866":     charmap.CodePage866,
	"ISO8859-1":  charmap.ISO8859_1,
	"ISO8859-2":  charmap.ISO8859_2,
	"ISO8859-5":  charmap.ISO8859_5,
	"ISO8859-7":  charmap.ISO8859_7,
	"ISO8859-15": charmap.ISO8859_15,
	"MACINTOSH":  charmap.Macintosh,
}

// lookupCodePage returns the charmap for a $DWGCODEPAGE value.
// Unknown names fall back to DefaultCodePage.
func lookupCodePage(name string) (*charmap.Charmap, bool) {
	cm, ok := codePages[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return codePages[DefaultCodePage], false
	}
	return cm, true
}

// isUTF8Version reports whether drawings of the given $ACADVER store
// strings as UTF-8.
func isUTF8Version(version string) bool {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(version), "AC"))
	return err == nil && n >= utf8Version
}

// textCodec decodes and encodes string values of one drawing.
type textCodec struct {
	cm *charmap.Charmap // nil means UTF-8
}

func (c textCodec) decode(raw []byte) (string, error) {
	if c.cm == nil || !hasHighBytes(raw) {
		return unescapeUnicode(string(raw)), nil
	}
	out, err := c.cm.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return unescapeUnicode(string(out)), nil
}

// encode converts s to the code page. Runes the code page cannot
// represent are written as \U+XXXX escapes.
func (c textCodec) encode(s string) string {
	if c.cm == nil {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteByte(byte(r))
			continue
		}
		if enc, ok := c.cm.EncodeRune(r); ok {
			b.WriteByte(enc)
			continue
		}
		fmt.Fprintf(&b, `\U+%04X`, r)
	}
	return b.String()
}

func hasHighBytes(raw []byte) bool {
	for _, b := range raw {
		if b >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// unescapeUnicode replaces \U+XXXX sequences with the rune they name.
func unescapeUnicode(s string) string {
	if !strings.Contains(s, `\U+`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], `\U+`) && i+7 <= len(s) {
			if n, err := strconv.ParseUint(s[i+3:i+7], 16, 32); err == nil {
				b.WriteRune(rune(n))
				i += 7
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
