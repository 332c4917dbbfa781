package pdftext

import (
	"bytes"
	"fmt"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Font describes how the strings shown with one page font map to text.
type Font struct {
	Name      string
	Composite bool // Type0 font with multi-byte codes
	ToUnicode *CMap
}

// Decode converts the bytes of a shown string to text. Composite fonts
// without a ToUnicode map cannot be decoded and yield ErrNoText.
func (f *Font) Decode(raw []byte) (string, error) {
	if f == nil || (f.ToUnicode == nil && !f.Composite) {
		return decodeText(raw), nil
	}
	if f.ToUnicode == nil {
		return "", fmt.Errorf("%w: font %s has no ToUnicode map", ErrNoText, f.Name)
	}

	width := f.ToUnicode.codeBytes
	if width == 0 {
		width = 1
		if f.Composite {
			width = 2
		}
	}

	var out []rune
	for i := 0; i+width <= len(raw); i += width {
		var code uint32
		for _, b := range raw[i : i+width] {
			code = code<<8 | uint32(b)
		}
		if text, ok := f.ToUnicode.codes[code]; ok {
			out = append(out, []rune(text)...)
			continue
		}
		if !f.Composite {
			out = append(out, []rune(decodeText(raw[i:i+width]))...)
		}
	}
	return cleanText(string(out)), nil
}

// CMap is the code to text mapping of a ToUnicode stream.
type CMap struct {
	codes     map[uint32]string
	codeBytes int
}

// ParseCMap reads the codespace range and the bfchar/bfrange sections of a
// ToUnicode CMap.
func ParseCMap(data []byte) *CMap {
	cm := &CMap{codes: make(map[uint32]string)}
	tokens := cmapTokens(data)

	for i := 0; i < len(tokens); i++ {
		switch tokens[i].word {
		case "begincodespacerange":
			if i+1 < len(tokens) && tokens[i+1].hex != nil {
				cm.codeBytes = len(tokens[i+1].hex)
			}
		case "beginbfchar":
			for i++; i+1 < len(tokens) && tokens[i].word != "endbfchar"; i += 2 {
				src, dst := tokens[i], tokens[i+1]
				if src.hex == nil || dst.hex == nil {
					continue
				}
				cm.codes[codeOf(src.hex)] = utf16Text(dst.hex)
			}
		case "beginbfrange":
			for i++; i+2 < len(tokens) && tokens[i].word != "endbfrange"; {
				lo, hi := tokens[i], tokens[i+1]
				i += 2
				if lo.hex == nil || hi.hex == nil {
					continue
				}
				start, end := codeOf(lo.hex), codeOf(hi.hex)

				if tokens[i].word == "[" {
					i++
					for code := start; i < len(tokens) && tokens[i].word != "]"; i++ {
						if tokens[i].hex != nil && code <= end {
							cm.codes[code] = utf16Text(tokens[i].hex)
							code++
						}
					}
					i++
					continue
				}

				dst := tokens[i].hex
				i++
				if dst == nil || end < start || end-start > 0xFFFF {
					continue
				}
				units := utf16Units(dst)
				if len(units) == 0 {
					continue
				}
				for code := start; code <= end; code++ {
					next := append([]uint16(nil), units...)
					next[len(next)-1] += uint16(code - start)
					cm.codes[code] = string(utf16.Decode(next))
				}
			}
		}
	}

	return cm
}

type cmapToken struct {
	word string
	hex  []byte
}

func cmapTokens(data []byte) []cmapToken {
	var tokens []cmapToken
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '<' && i+1 < len(data) && data[i+1] == '<',
			c == '>' && i+1 < len(data) && data[i+1] == '>':
			i += 2
		case c == '<':
			end := bytes.IndexByte(data[i+1:], '>')
			if end < 0 {
				return tokens
			}
			tokens = append(tokens, cmapToken{hex: decodeHex(data[i+1 : i+1+end])})
			i += end + 2
		case c == '[' || c == ']':
			tokens = append(tokens, cmapToken{word: string(c)})
			i++
		case c == '(':
			_, end := readLiteral(data, i)
			i = end
		default:
			j := i + 1
			for j < len(data) && isRegular(data[j]) {
				j++
			}
			tokens = append(tokens, cmapToken{word: string(data[i:j])})
			i = j
		}
	}
	return tokens
}

func codeOf(b []byte) uint32 {
	var code uint32
	for _, c := range b {
		code = code<<8 | uint32(c)
	}
	return code
}

func utf16Units(b []byte) []uint16 {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return units
}

func utf16Text(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	return string(utf16.Decode(utf16Units(b)))
}

// pageFonts loads the fonts of a page's resources, keyed by resource name.
func pageFonts(ctx *model.Context, pageNr int) (map[string]*Font, error) {
	d, _, inherited, err := ctx.PageDict(pageNr, true)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageNr, err)
	}

	var resources types.Dict
	if inherited != nil && inherited.Resources != nil {
		resources = inherited.Resources
	} else if obj, found := d.Find("Resources"); found {
		if resources, err = ctx.DereferenceDict(obj); err != nil {
			return nil, fmt.Errorf("page %d resources: %w", pageNr, err)
		}
	}
	if resources == nil {
		return nil, nil
	}

	obj, found := resources.Find("Font")
	if !found {
		return nil, nil
	}
	fontDicts, err := ctx.DereferenceDict(obj)
	if err != nil {
		return nil, fmt.Errorf("page %d fonts: %w", pageNr, err)
	}

	fonts := make(map[string]*Font, len(fontDicts))
	for name, obj := range fontDicts {
		fd, err := ctx.DereferenceDict(obj)
		if err != nil || fd == nil {
			continue
		}
		fonts[name] = loadFont(ctx, name, fd)
	}
	return fonts, nil
}

func loadFont(ctx *model.Context, name string, fd types.Dict) *Font {
	f := &Font{Name: name}
	if subtype := fd.NameEntry("Subtype"); subtype != nil && *subtype == "Type0" {
		f.Composite = true
	}

	obj, found := fd.Find("ToUnicode")
	if !found {
		return f
	}
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil || sd == nil {
		return f
	}
	if err := sd.Decode(); err != nil {
		return f
	}
	f.ToUnicode = ParseCMap(sd.Content)
	return f
}
