package pdftext

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildPDF writes a minimal PDF whose objects are numbered from 1 in the order
// given. Object 1 must be the catalog.
func buildPDF(t *testing.T, objects ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func stream(data string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data)
}

// onePage returns the catalog, page tree and page objects for a single page
// with content in object 4 and its font in object 5.
func onePage() []string {
	return []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
	}
}

func TestExtractTextSimpleFont(t *testing.T) {
	content := "BT /F1 12 Tf 72 760 Td (Adobe Systems) Tj 0 -14 Td (Rechnungsdatum: 15.03.2024) Tj ET"
	path := buildPDF(t, append(onePage(),
		stream(content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)...)

	got, err := NewPDFCPUExtractor(nil).ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if want := "Adobe Systems\nRechnungsdatum: 15.03.2024\n"; got != want {
		t.Errorf("ExtractText() = %q, want %q", got, want)
	}
}

func TestExtractTextWithoutText(t *testing.T) {
	path := buildPDF(t, append(onePage(),
		stream("0 0 m 100 100 l S"),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)...)

	_, err := NewPDFCPUExtractor(nil).ExtractText(path)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("ExtractText() error = %v, want ErrNoText", err)
	}
}

func compositeFont(toUnicode string) []string {
	font := "<< /Type /Font /Subtype /Type0 /BaseFont /ABCDEF+NotoSans /Encoding /Identity-H /DescendantFonts [6 0 R]"
	if toUnicode != "" {
		font += " /ToUnicode 8 0 R"
	}
	objects := []string{
		font + " >>",
		"<< /Type /Font /Subtype /CIDFontType2 /BaseFont /ABCDEF+NotoSans " +
			"/CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> " +
			"/FontDescriptor 7 0 R /CIDToGIDMap /Identity >>",
		"<< /Type /FontDescriptor /FontName /ABCDEF+NotoSans /Flags 32 /FontBBox [-621 -389 2800 1067] " +
			"/ItalicAngle 0 /Ascent 1069 /Descent -293 /CapHeight 714 /StemV 80 >>",
	}
	if toUnicode != "" {
		objects = append(objects, stream(toUnicode))
	}
	return objects
}

func TestExtractTextCompositeFont(t *testing.T) {
	objects := append(onePage(), stream("BT /F1 11 Tf 72 760 Td <00240047005200450048> Tj ET"))
	path := buildPDF(t, append(objects, compositeFont(identityCMap)...)...)

	got, err := NewPDFCPUExtractor(nil).ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "Adobe\n" {
		t.Errorf("ExtractText() = %q, want %q", got, "Adobe\n")
	}
}

func TestExtractTextCompositeFontWithoutToUnicode(t *testing.T) {
	objects := append(onePage(), stream("BT /F1 11 Tf 72 760 Td <00240047005200450048> Tj ET"))
	path := buildPDF(t, append(objects, compositeFont("")...)...)

	got, err := NewPDFCPUExtractor(nil).ExtractText(path)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("ExtractText() = %q, %v; want ErrNoText", got, err)
	}
}

func TestExtractTextErrors(t *testing.T) {
	e := NewPDFCPUExtractor(nil)

	if _, err := e.ExtractText(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := e.ExtractText(path)
	if err == nil {
		t.Fatal("expected error for malformed PDF")
	}
	if errors.Is(err, ErrNoText) {
		t.Errorf("malformed PDF reported as ErrNoText: %v", err)
	}
}
