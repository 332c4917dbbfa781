// Package invoice classifies receipt PDFs by vendor and invoice date and renames them
// to the normalized Vendor_dd_mm_yy.pdf scheme.
package invoice

import "strings"

// MatchVendor returns the first vendor from vendors whose name occurs in text,
// compared case-insensitively.
//
// TEDI is never matched when the text mentions "Kredit" anywhere; credit card
// statements list TEDI purchases without being TEDI receipts.
func MatchVendor(text string, vendors []string) (string, bool) {
	lower := strings.ToLower(text)
	mentionsCredit := strings.Contains(lower, "kredit")

	for _, vendor := range vendors {
		if vendor == "" || !strings.Contains(lower, strings.ToLower(vendor)) {
			continue
		}
		if mentionsCredit && strings.EqualFold(vendor, "TEDI") {
			continue
		}
		return vendor, true
	}

	return "", false
}
