package lastresults

import (
	"errors"
	"testing"

	"github.com/aidanlsb/munin/internal/tracker"
)

func initTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	tr, err := tracker.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return tr
}

func TestWriteAndRead(t *testing.T) {
	tr := initTracker(t)

	ids := []string{"REC-A", "REC-B", "REC-C"}
	if err := Write(tr, "list", []string{"status=open"}, ids); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lr, err := Read(tr)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if lr.Command != "list" {
		t.Errorf("expected command list, got %q", lr.Command)
	}
	if len(lr.IDs) != 3 || lr.IDs[1] != "REC-B" {
		t.Errorf("unexpected ids: %v", lr.IDs)
	}
}

func TestReadMissing(t *testing.T) {
	tr := initTracker(t)

	if _, err := Read(tr); !errors.Is(err, ErrNoLastResults) {
		t.Errorf("expected ErrNoLastResults, got %v", err)
	}
}

func TestGetByNumber(t *testing.T) {
	lr := &LastResults{IDs: []string{"REC-A", "REC-B"}}

	id, err := lr.GetByNumber(2)
	if err != nil || id != "REC-B" {
		t.Errorf("expected REC-B, got %q, %v", id, err)
	}

	for _, num := range []int{0, 3, -1} {
		if _, err := lr.GetByNumber(num); !errors.Is(err, ErrNumberOutOfRange) {
			t.Errorf("expected out-of-range for %d, got %v", num, err)
		}
	}
}

func TestResolve(t *testing.T) {
	tr := initTracker(t)

	if err := Write(tr, "list", nil, []string{"REC-A", "REC-B"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{name: "number", arg: "2", want: "REC-B"},
		{name: "full id passes through", arg: "REC-XYZ", want: "REC-XYZ"},
		{name: "note id passes through", arg: "NT-1", want: "NT-1"},
		{name: "out of range", arg: "9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tr, tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResolveWithoutListing(t *testing.T) {
	tr := initTracker(t)

	if _, err := Resolve(tr, "1"); err == nil {
		t.Fatal("expected error resolving a number with no previous listing")
	}
	if got, err := Resolve(tr, "REC-A"); err != nil || got != "REC-A" {
		t.Errorf("expected pass-through without listing, got %q, %v", got, err)
	}
}
