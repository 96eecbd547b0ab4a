package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name    string
		stamped string
		dirty   string
		want    string
	}{
		{"vcs commit", "", "false", "1.0.0-abcdef1"},
		{"dirty tree", "", "true", "1.0.0-abcdef1-dirty"},
		{"stamped commit wins", "1234567", "false", "1.0.0-1234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bi := &debug.BuildInfo{
				GoVersion: "go1.26.0",
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abcdef1234567890"},
					{Key: "vcs.modified", Value: tt.dirty},
				},
			}
			info := fromBuildInfo(Info{Version: "1.0.0", Commit: tt.stamped}, bi)
			if got := info.Short(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if info.GoVersion != "go1.26.0" {
				t.Errorf("expected go1.26.0, got %s", info.GoVersion)
			}
		})
	}
}

func TestShort_NoCommit(t *testing.T) {
	if got := (Info{Version: "dev"}).Short(); got != "dev" {
		t.Errorf("expected dev, got %s", got)
	}
}
