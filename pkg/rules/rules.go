// Package rules provides the ordered vendor and date-keyword lists used to classify receipts.
package rules

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// defaultVendors is matched in this order; the first hit wins.
var defaultVendors = []string{
	"Adobe",
	"Amazon",
	"Apple",
	"boesner",
	"Deutsche Bahn",
	"Deutsche Telekom",
	"DHL",
	"Google",
	"Hetzner",
	"IKEA",
	"Microsoft",
	"Rossmann",
	"TEDI",
	"Vodafone",
}

// defaultDateKeywords is checked per line in this priority order.
var defaultDateKeywords = []string{
	"Rechnungsdatum",
	"Invoice date",
	"Belegdatum",
	"Transaction date",
	"Leistungsdatum",
	"Rechnungsnummer",
	"Invoice number",
	"Datum",
	"Date",
}

// Rules holds the ordered configuration sequences for vendor and date matching.
// The zero value is empty; use Default or Load.
type Rules struct {
	vendors      []string
	dateKeywords []string
}

// File represents the YAML rules file layout.
type File struct {
	Vendors      []string `yaml:"vendors"`
	DateKeywords []string `yaml:"date_keywords"`
}

// New creates Rules from the given lists. The slices are copied.
func New(vendors, dateKeywords []string) Rules {
	return Rules{
		vendors:      clone(vendors),
		dateKeywords: clone(dateKeywords),
	}
}

// Default returns the built-in vendor and keyword lists.
func Default() Rules {
	return New(defaultVendors, defaultDateKeywords)
}

// Load reads rules from a YAML file. A list that is absent from the file keeps its default.
func Load(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	r := Default()
	if len(file.Vendors) > 0 {
		r.vendors = clone(file.Vendors)
	}
	if len(file.DateKeywords) > 0 {
		r.dateKeywords = clone(file.DateKeywords)
	}

	if err := r.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return r, nil
}

// LoadOrDefault loads the rules file if a path is given, otherwise returns Default.
func LoadOrDefault(path string) (Rules, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks that both lists are non-empty, contain no blank entries
// and that vendor names are unique (case-insensitive).
func (r Rules) Validate() error {
	if len(r.vendors) == 0 {
		return fmt.Errorf("vendor list is empty")
	}
	if len(r.dateKeywords) == 0 {
		return fmt.Errorf("date keyword list is empty")
	}

	seen := make(map[string]bool, len(r.vendors))
	for i, v := range r.vendors {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("vendor #%d is blank", i+1)
		}
		if !strings.ContainsFunc(v, isAlnum) {
			return fmt.Errorf("vendor %q has no letters or digits", v)
		}
		key := strings.ToLower(v)
		if seen[key] {
			return fmt.Errorf("duplicate vendor: %s", v)
		}
		seen[key] = true
	}
	for i, k := range r.dateKeywords {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("date keyword #%d is blank", i+1)
		}
	}
	return nil
}

// Vendors returns a copy of the vendor list in match order.
func (r Rules) Vendors() []string {
	return clone(r.vendors)
}

// DateKeywords returns a copy of the date keyword list in priority order.
func (r Rules) DateKeywords() []string {
	return clone(r.dateKeywords)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
