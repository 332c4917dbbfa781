package invoice

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFuzzyDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"dotted", "15.03.2024", day(2024, 3, 15), false},
		{"dotted with label", "Rechnungsdatum: 15.03.2024", day(2024, 3, 15), false},
		{"day first", "08.02.2024", day(2024, 2, 8), false},
		{"slashes", "Date 01/12/2023 paid", day(2023, 12, 1), false},
		{"dashes", "07-11-2023", day(2023, 11, 7), false},
		{"single digits", "Datum 5.6.2020", day(2020, 6, 5), false},
		{"two digit year", "15.03.24", day(2024, 3, 15), false},
		{"two digit year last century", "01.01.99", day(1999, 1, 1), false},
		{"month over twelve swaps", "03/15/2024", day(2024, 3, 15), false},
		{"iso", "Invoice date: 2024-03-15", day(2024, 3, 15), false},
		{"german month name", "Datum: 15. März 2024", day(2024, 3, 15), false},
		{"german month upper", "1. MÄRZ 2024", day(2024, 3, 1), false},
		{"german abbreviation", "Leistungsdatum 3. Okt. 2023", day(2023, 10, 3), false},
		{"day dash month dash year", "Transaction date 15-Mar-2024", day(2024, 3, 15), false},
		{"english day month year", "15 March 2024", day(2024, 3, 15), false},
		{"month day comma year", "Invoice date March 15, 2024", day(2024, 3, 15), false},
		{"month day ordinal", "Date: Jan 2nd, 2024", day(2024, 1, 2), false},
		{"invalid calendar date skipped", "31.02.2024 or 28.02.2024", day(2024, 2, 28), false},
		{"digits glued to number skipped", "Nr. 123.04.2024 vom 05.04.2024", day(2024, 4, 5), false},
		{"no date", "Invoice number: INV-0042", time.Time{}, true},
		{"bare number", "Rechnungsnummer 2024-0012", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFuzzyDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrNoDate) {
					t.Errorf("ParseFuzzyDate(%q) error = %v, want ErrNoDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFuzzyDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseFuzzyDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	keywords := []string{"Rechnungsdatum", "Invoice date", "Transaction date", "Invoice number", "Datum", "Date"}

	tests := []struct {
		name   string
		text   string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "keyword line",
			text:   "Adobe Systems\nRechnungsdatum: 15.03.2024\nBetrag 23,79 EUR",
			want:   day(2024, 3, 15),
			wantOK: true,
		},
		{
			name:   "keyword case-insensitive",
			text:   "RECHNUNGSDATUM 01.04.2024",
			want:   day(2024, 4, 1),
			wantOK: true,
		},
		{
			name:   "fallback scan",
			text:   "Vielen Dank für Ihren Einkauf\nBestellt am 08.02.2024\nSumme 12,00",
			want:   day(2024, 2, 8),
			wantOK: true,
		},
		{
			name:   "keyword line beats earlier unlabelled date",
			text:   "Gedruckt 01.01.2024\nInvoice date: 2024-03-15",
			want:   day(2024, 3, 15),
			wantOK: true,
		},
		{
			name:   "first parseable keyword line wins",
			text:   "Invoice number: 4711\nDate: 02.05.2024\nTransaction date: 03.05.2024",
			want:   day(2024, 5, 2),
			wantOK: true,
		},
		{
			name:   "falls back when keyword lines have no date",
			text:   "Rechnungsdatum: siehe unten\nLieferung 10/06/2023",
			want:   day(2023, 6, 10),
			wantOK: true,
		},
		{
			name:   "fallback month name",
			text:   "Order placed March 15, 2024",
			want:   day(2024, 3, 15),
			wantOK: true,
		},
		{
			name:   "fallback day month year",
			text:   "Booked 15-Mar-2024 online",
			want:   day(2024, 3, 15),
			wantOK: true,
		},
		{
			name:   "fallback only first match",
			text:   "Ref 99.99.2024\nBestellt 08.02.2024",
			wantOK: false,
		},
		{
			name:   "windows line endings",
			text:   "Header\r\nRechnungsdatum: 15.03.2024\r\n",
			want:   day(2024, 3, 15),
			wantOK: true,
		},
		{
			name:   "nothing",
			text:   "Keine Angaben",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractDate(tt.text, keywords)
			if ok != tt.wantOK {
				t.Fatalf("ExtractDate() ok = %v, want %v (got %s)", ok, tt.wantOK, got.Format("2006-01-02"))
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ExtractDate() = %s, want %s", got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestExtractDateKeywordsAreConfigurable(t *testing.T) {
	text := "Belegdatum 20.12.2023\nsonst nichts"

	if got, ok := ExtractDate(text, []string{"Belegdatum"}); !ok || !got.Equal(day(2023, 12, 20)) {
		t.Errorf("ExtractDate() with custom keyword = (%s, %v)", got.Format("2006-01-02"), ok)
	}
	// still found through the fallback scan without any keywords
	if got, ok := ExtractDate(text, nil); !ok || !got.Equal(day(2023, 12, 20)) {
		t.Errorf("ExtractDate() without keywords = (%s, %v)", got.Format("2006-01-02"), ok)
	}
}

func TestExpandYear(t *testing.T) {
	tests := []struct {
		year, digits, want int
	}{
		{0, 2, 2000},
		{24, 2, 2024},
		{69, 2, 2069},
		{70, 2, 1970},
		{99, 2, 1999},
		{2024, 4, 2024},
	}
	for _, tt := range tests {
		if got := expandYear(tt.year, tt.digits); got != tt.want {
			t.Errorf("expandYear(%d, %d) = %d, want %d", tt.year, tt.digits, got, tt.want)
		}
	}
}
