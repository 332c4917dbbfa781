package pdftext

import (
	"errors"
	"testing"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "lines from Td",
			content:  "BT /F1 12 Tf 72 712 Td (Rechnungsdatum: 15.03.2024) Tj 0 -14 Td (Adobe Systems) Tj ET",
			expected: "Rechnungsdatum: 15.03.2024\nAdobe Systems",
		},
		{
			name:     "horizontal Td stays on line",
			content:  "BT (Datum:) Tj 40 0 Td (01.02.2024) Tj ET",
			expected: "Datum: 01.02.2024",
		},
		{
			name:     "TJ kerning",
			content:  "BT [(Rech)-20(nung)-300(Nr)] TJ ET",
			expected: "Rechnung Nr",
		},
		{
			name:     "escapes and octal",
			content:  `BT (M\374ller \(GmbH\)) Tj ET`,
			expected: "Müller (GmbH)",
		},
		{
			name:     "windows-1252 euro",
			content:  `BT (12,00 \200) Tj ET`,
			expected: "12,00 €",
		},
		{
			name:     "nested parentheses",
			content:  "BT (a (b) c) Tj ET",
			expected: "a (b) c",
		},
		{
			name:     "hex string",
			content:  "BT <48656C6C6F> Tj ET",
			expected: "Hello",
		},
		{
			name:     "utf-16 hex string",
			content:  "BT <FEFF00C400DF> Tj ET",
			expected: "Äß",
		},
		{
			name:     "quote operator starts line",
			content:  "BT (a) Tj (b) ' ET",
			expected: "a\nb",
		},
		{
			name:     "T* and separate text objects",
			content:  "BT (one) Tj T* (two) Tj ET BT (three) Tj ET",
			expected: "one\ntwo\nthree",
		},
		{
			name:     "marked content dictionary",
			content:  "/Span <</MCID 0>> BDC BT (x) Tj ET EMC",
			expected: "x",
		},
		{
			name:     "comment ignored",
			content:  "% (hidden) Tj\nBT (shown) Tj ET",
			expected: "shown",
		},
		{
			name:     "strings outside text operators dropped",
			content:  "/GS1 gs (ignored) BT (kept) Tj ET",
			expected: "kept",
		},
		{
			name:     "inline image skipped",
			content:  "BI /W 2 /H 1 ID (x)) EI BT (after) Tj ET",
			expected: "after",
		},
		{
			name:     "empty",
			content:  "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContentText([]byte(tt.content), nil)
			if err != nil {
				t.Fatalf("ContentText() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ContentText() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestContentTextFonts(t *testing.T) {
	fonts := map[string]*Font{
		"F1": {Name: "F1"},
		"F2": {Name: "F2", Composite: true, ToUnicode: ParseCMap([]byte(identityCMap))},
		"F3": {Name: "F3", Composite: true},
	}

	tests := []struct {
		name     string
		content  string
		expected string
		wantErr  bool
	}{
		{
			name:     "simple font",
			content:  "BT /F1 12 Tf (Rechnung) Tj ET",
			expected: "Rechnung",
		},
		{
			name:     "composite font through ToUnicode",
			content:  "BT /F2 10 Tf <00240047005200450048> Tj ET",
			expected: "Adobe",
		},
		{
			name:     "switching fonts",
			content:  "BT /F1 12 Tf (Datum:) Tj 30 0 Td /F2 10 Tf <00240047> Tj ET",
			expected: "Datum: Ad",
		},
		{
			name:     "unknown codes dropped",
			content:  "BT /F2 10 Tf <0024FFFF0047> Tj ET",
			expected: "Ad",
		},
		{
			name:    "composite font without ToUnicode",
			content: "BT /F3 10 Tf <00240047> Tj ET",
			wantErr: true,
		},
		{
			name:     "unknown resource name falls back",
			content:  "BT /F9 12 Tf (plain) Tj ET",
			expected: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContentText([]byte(tt.content), fonts)
			if tt.wantErr {
				if !errors.Is(err, ErrNoText) {
					t.Fatalf("ContentText() error = %v, want ErrNoText", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ContentText() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ContentText() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

const identityCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Adobe-Identity-UCS def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
5 beginbfchar
<0024> <0041>
<0047> <0064>
<0052> <006F>
<0045> <0062>
<0048> <0065>
endbfchar
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

func TestParseCMap(t *testing.T) {
	data := `1 begincodespacerange <00> <FF> endcodespacerange
2 beginbfchar
<01> <00DC>
<02> <D83DDE00>
endbfchar
2 beginbfrange
<10> <12> <0061>
<20> <21> [<0058> <00660069>]
endbfrange`

	cm := ParseCMap([]byte(data))
	if cm.codeBytes != 1 {
		t.Errorf("codeBytes = %d, want 1", cm.codeBytes)
	}

	tests := map[uint32]string{
		0x01: "Ü",
		0x02: "\U0001F600",
		0x10: "a",
		0x11: "b",
		0x12: "c",
		0x20: "X",
		0x21: "fi",
	}
	for code, want := range tests {
		if got := cm.codes[code]; got != want {
			t.Errorf("code %#x = %q, want %q", code, got, want)
		}
	}
	if _, ok := cm.codes[0x13]; ok {
		t.Error("bfrange mapped past its end")
	}
}

func TestFontDecode(t *testing.T) {
	simple := &Font{Name: "F1", ToUnicode: ParseCMap([]byte("1 beginbfchar <41> <0042> endbfchar"))}
	got, err := simple.Decode([]byte("AC"))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != "BC" {
		t.Errorf("simple font Decode() = %q, want %q", got, "BC")
	}

	var none *Font
	if got, _ := none.Decode([]byte("M\xfcller")); got != "Müller" {
		t.Errorf("nil font Decode() = %q", got)
	}

	if _, err := (&Font{Name: "F3", Composite: true}).Decode([]byte{0, 0x24}); !errors.Is(err, ErrNoText) {
		t.Errorf("composite Decode() error = %v, want ErrNoText", err)
	}
}
