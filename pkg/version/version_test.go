package version

import "testing"

func TestGetShortCommit(t *testing.T) {
	orig := GitCommit
	t.Cleanup(func() { GitCommit = orig })

	GitCommit = "0123456789abcdef"
	if got := GetShortCommit(); got != "0123456" {
		t.Fatalf("expected 0123456, got %q", got)
	}

	GitCommit = "abc"
	if got := GetShortCommit(); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version != Version || info.GitCommit != GitCommit || info.BuildDate != BuildDate {
		t.Fatalf("info does not mirror package vars: %+v", info)
	}
}
