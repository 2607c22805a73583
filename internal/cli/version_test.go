package cli

import (
	"runtime"
	"runtime/debug"
	"testing"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	prev := readBuildInfo
	t.Cleanup(func() { readBuildInfo = prev })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
}

func TestResolveVersionFromBuildInfo(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		GoVersion: "go1.24.1",
		Main: debug.Module{
			Path:    "github.com/aidanlsb/munin",
			Version: "v0.3.0",
		},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-07-01T09:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "GOOS", Value: "openbsd"},
			{Key: "GOARCH", Value: "arm64"},
		},
	}, true)

	info := resolveVersion()

	if info.Version != "v0.3.0" {
		t.Errorf("Version = %q, want v0.3.0", info.Version)
	}
	if info.Commit != "deadbeef" || info.CommitTime != "2026-07-01T09:00:00Z" {
		t.Errorf("commit fields = %q / %q", info.Commit, info.CommitTime)
	}
	if !info.Modified {
		t.Error("Modified = false, want true")
	}
	if info.GoVersion != "go1.24.1" {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.GOOS != "openbsd" || info.GOARCH != "arm64" {
		t.Errorf("platform = %s/%s", info.GOOS, info.GOARCH)
	}
}

func TestResolveVersionWithoutBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil, false)

	info := resolveVersion()

	if info.Version != "devel" {
		t.Errorf("Version = %q, want devel", info.Version)
	}
	if info.ModulePath != modulePath {
		t.Errorf("ModulePath = %q, want %q", info.ModulePath, modulePath)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.GOOS != runtime.GOOS || info.GOARCH != runtime.GOARCH {
		t.Errorf("platform = %s/%s", info.GOOS, info.GOARCH)
	}
}

func TestResolveVersionDevelMarkerNormalized(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/aidanlsb/munin", Version: "(devel)"},
	}, true)

	info := resolveVersion()
	if info.Version != "devel" {
		t.Errorf("Version = %q, want devel", info.Version)
	}
}
