package invoice

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Plan is the computed target name for one receipt.
type Plan struct {
	Name string
	// Counter is the disambiguation suffix; 0 means no suffix.
	Counter int
	// Unchanged reports that the file already carries the planned name.
	Unchanged bool
}

// SafeVendor strips every rune that is not a letter, digit, underscore or hyphen.
func SafeVendor(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			return r
		}
		return -1
	}, name)
}

// BaseName returns {SafeVendor}_{dd}_{mm}_{yy}.pdf without a collision suffix.
func BaseName(vendor string, date time.Time) string {
	return stem(vendor, date) + ".pdf"
}

func stem(vendor string, date time.Time) string {
	return SafeVendor(vendor) + "_" + date.Format("02_01_06")
}

// PlanName picks the first free name for the receipt: the base name, then
// _1, _2, ... before the extension. exists reports whether a name is taken in
// the target directory. current is the receipt's present file name; reaching
// it means the receipt is already named correctly.
func PlanName(vendor string, date time.Time, current string, exists func(string) bool) Plan {
	base := stem(vendor, date)
	for n := 0; ; n++ {
		name := BaseName(vendor, date)
		if n > 0 {
			name = fmt.Sprintf("%s_%d.pdf", base, n)
		}
		if name == current {
			return Plan{Name: name, Counter: n, Unchanged: true}
		}
		if !exists(name) {
			return Plan{Name: name, Counter: n}
		}
	}
}

// missingReason describes which of vendor and date could not be determined.
func missingReason(haveVendor, haveDate bool) string {
	switch {
	case !haveVendor && !haveDate:
		return "vendor and date not found"
	case !haveVendor:
		return "vendor not found"
	case !haveDate:
		return "date not found"
	}
	return ""
}
