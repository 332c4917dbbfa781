package cmd

import (
	"testing"

	"github.com/pigeonworks-llc/buchhaltung/pkg/db"
	"github.com/pigeonworks-llc/buchhaltung/pkg/pathutil"
)

func TestCheckRecordedNames(t *testing.T) {
	runDir := pathutil.New(pathutil.Config{InboxDir: t.TempDir()})

	tests := []struct {
		name    string
		source  string
		target  string
		wantErr bool
	}{
		{name: "plain names", source: "scan.pdf", target: "Adobe_15_03_24.pdf"},
		{name: "source outside directory", source: "../scan.pdf", target: "Adobe_15_03_24.pdf", wantErr: true},
		{name: "target in subdirectory", source: "scan.pdf", target: "archive/Adobe_15_03_24.pdf", wantErr: true},
		{name: "empty target", source: "scan.pdf", target: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkRecordedNames(runDir, db.ResultRecord{Source: tt.source, Target: tt.target})
			if (err != nil) != tt.wantErr {
				t.Errorf("checkRecordedNames() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
