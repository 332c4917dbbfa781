package rules

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	r := Default()
	if err := r.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}

	vendors := r.Vendors()
	vendors[0] = "changed"
	if Default().Vendors()[0] == "changed" {
		t.Error("Vendors() must return a copy")
	}

	keywords := r.DateKeywords()
	if keywords[0] != "Rechnungsdatum" {
		t.Errorf("first keyword = %q, want Rechnungsdatum", keywords[0])
	}
}

func TestNewCopiesInput(t *testing.T) {
	vendors := []string{"Adobe", "TEDI"}
	r := New(vendors, []string{"Datum"})
	vendors[0] = "Amazon"

	if got := r.Vendors(); !reflect.DeepEqual(got, []string{"Adobe", "TEDI"}) {
		t.Errorf("Vendors() = %v", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name         string
		content      string
		wantVendors  []string
		wantKeywords []string
		wantErr      bool
	}{
		{
			name:         "both lists",
			content:      "vendors:\n  - Hetzner\n  - boesner\ndate_keywords:\n  - Datum\n",
			wantVendors:  []string{"Hetzner", "boesner"},
			wantKeywords: []string{"Datum"},
		},
		{
			name:         "vendors only keeps default keywords",
			content:      "vendors: [Adobe]\n",
			wantVendors:  []string{"Adobe"},
			wantKeywords: Default().DateKeywords(),
		},
		{
			name:    "duplicate vendor",
			content: "vendors: [Adobe, adobe]\n",
			wantErr: true,
		},
		{
			name:    "blank keyword",
			content: "date_keywords: [Datum, \"  \"]\n",
			wantErr: true,
		},
		{
			name:    "broken yaml",
			content: "vendors: [Adobe\n",
			wantErr: true,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "rules"+string(rune('a'+i))+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			r, err := Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(r.Vendors(), tt.wantVendors) {
				t.Errorf("Vendors() = %v, want %v", r.Vendors(), tt.wantVendors)
			}
			if !reflect.DeepEqual(r.DateKeywords(), tt.wantKeywords) {
				t.Errorf("DateKeywords() = %v, want %v", r.DateKeywords(), tt.wantKeywords)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	r, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\") error = %v", err)
	}
	if !reflect.DeepEqual(r.Vendors(), Default().Vendors()) {
		t.Error("empty path should return default rules")
	}

	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateEmpty(t *testing.T) {
	if err := (Rules{}).Validate(); err == nil {
		t.Error("empty rules should not validate")
	}
	if err := New([]string{"Adobe"}, nil).Validate(); err == nil {
		t.Error("rules without keywords should not validate")
	}
}
