package pdftext

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// kernSpace is the TJ displacement (thousandths of an em) treated as a word gap.
const kernSpace = 200

// ContentText extracts the text shown by a page content stream.
//
// Strings drawn by Tj, TJ, ' and " are collected in drawing order and decoded
// with the font selected by the last Tf; fonts maps resource names to fonts
// and may be nil. T*, ET and Td/TD with a vertical offset start a new line;
// a horizontal-only Td/TD becomes a space.
func ContentText(content []byte, fonts map[string]*Font) (string, error) {
	var (
		w        lineWriter
		pending  []shown
		operands []float64
		inArray  int
		lastName string
		font     *Font
	)

	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			raw, end := readLiteral(content, i)
			pending = append(pending, shown{raw: unescapeLiteral(raw)})
			i = end
		case c == '<' && i+1 < len(content) && content[i+1] == '<',
			c == '>' && i+1 < len(content) && content[i+1] == '>':
			i += 2
		case c == '<':
			end := bytes.IndexByte(content[i+1:], '>')
			if end < 0 {
				i = len(content)
				break
			}
			pending = append(pending, shown{raw: decodeHex(content[i+1 : i+1+end])})
			i += end + 2
		case c == '[':
			inArray++
			i++
		case c == ']':
			if inArray > 0 {
				inArray--
			}
			i++
		case c == '/':
			j := i + 1
			for j < len(content) && isRegular(content[j]) {
				j++
			}
			lastName = string(content[i+1 : j])
			i = j
		case isNumberStart(c):
			j := i + 1
			for j < len(content) && isNumberStart(content[j]) {
				j++
			}
			v, err := strconv.ParseFloat(string(content[i:j]), 64)
			if err == nil {
				if inArray > 0 {
					if v <= -kernSpace {
						pending = append(pending, shown{gap: true})
					}
				} else {
					operands = append(operands, v)
				}
			}
			i = j
		case isRegular(c):
			j := i
			for j < len(content) && isRegular(content[j]) {
				j++
			}
			op := string(content[i:j])
			i = j

			switch op {
			case "Tf":
				font = fonts[lastName]
			case "Tj", "TJ", "'", "\"":
				text, err := decodeShown(pending, font)
				if err != nil {
					return "", err
				}
				if op == "'" || op == "\"" {
					w.newline()
				}
				w.write(text)
			case "Td", "TD":
				if len(operands) >= 2 && operands[len(operands)-1] != 0 {
					w.newline()
				} else {
					w.space()
				}
			case "T*", "ET":
				w.newline()
			case "ID":
				i = skipInlineImage(content, i)
			}
			pending = nil
			operands = operands[:0]
			lastName = ""
		default:
			i++
		}
	}
	w.newline()

	return strings.Join(w.lines, "\n"), nil
}

// shown is one string operand of a text showing operator, or a word gap from TJ kerning.
type shown struct {
	raw []byte
	gap bool
}

func decodeShown(parts []shown, font *Font) (string, error) {
	var b strings.Builder
	for _, part := range parts {
		if part.gap {
			b.WriteByte(' ')
			continue
		}
		text, err := font.Decode(part.raw)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

type lineWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *lineWriter) write(s string) {
	w.cur.WriteString(s)
}

func (w *lineWriter) space() {
	s := w.cur.String()
	if s != "" && !strings.HasSuffix(s, " ") {
		w.cur.WriteByte(' ')
	}
}

func (w *lineWriter) newline() {
	if line := strings.TrimSpace(w.cur.String()); line != "" {
		w.lines = append(w.lines, line)
	}
	w.cur.Reset()
}

// readLiteral returns the raw bytes of the literal string starting at start
// (without the outer parentheses) and the index after the closing parenthesis.
func readLiteral(content []byte, start int) ([]byte, int) {
	var out []byte
	depth := 0
	i := start
	for i < len(content) {
		ch := content[i]
		if ch == '\\' && i+1 < len(content) {
			out = append(out, ch, content[i+1])
			i += 2
			continue
		}
		switch ch {
		case '(':
			depth++
			if depth > 1 {
				out = append(out, ch)
			}
		case ')':
			depth--
			if depth == 0 {
				return out, i + 1
			}
			out = append(out, ch)
		default:
			out = append(out, ch)
		}
		i++
	}
	return out, i
}

// unescapeLiteral resolves the escape sequences of a literal string.
func unescapeLiteral(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out = append(out, s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r':
			// line continuation
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
		default:
			if c >= '0' && c <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				v, _ := strconv.ParseUint(string(s[i:j]), 8, 16)
				out = append(out, byte(v))
				i = j - 1
			} else {
				out = append(out, c)
			}
		}
	}
	return out
}

func decodeHex(s []byte) []byte {
	digits := make([]byte, 0, len(s)+1)
	for _, c := range s {
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, hex.DecodedLen(len(digits)))
	n, err := hex.Decode(out, digits)
	if err != nil {
		return out[:n]
	}
	return out
}

// decodeText converts string bytes shown without a ToUnicode map to UTF-8.
// Strings with a UTF-16BE byte order mark are decoded as UTF-16, everything
// else as Windows-1252.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		return cleanText(string(utf16.Decode(utf16Units(b[2:]))))
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		decoded = b
	}
	return cleanText(string(decoded))
}

// cleanText turns tabs and line breaks into spaces and drops other control characters.
func cleanText(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r == unicode.ReplacementChar || unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}

// skipInlineImage returns the index after the EI operator that ends inline image data.
func skipInlineImage(content []byte, i int) int {
	for j := i; j+2 <= len(content); j++ {
		if content[j] == 'E' && content[j+1] == 'I' && j > 0 && isSpace(content[j-1]) &&
			(j+2 == len(content) || isSpace(content[j+2])) {
			return j + 2
		}
	}
	return len(content)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(c byte) bool {
	return !isSpace(c) && !isDelimiter(c)
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}
