// Package lastresults persists the id list from the most recent listing so
// follow-up commands can take result numbers instead of full ids.
package lastresults

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aidanlsb/munin/internal/tracker"
)

// FileName is the cache file under .munin/. It is machine-local state, not
// tracked data; a missing or stale file only disables numbered references.
const FileName = "last_results.json"

// LastResults stores the ids shown by the most recent listing command.
type LastResults struct {
	Command   string    `json:"command"`
	Query     []string  `json:"query,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	IDs       []string  `json:"ids"`
}

var (
	ErrNoLastResults    = errors.New("no last results available")
	ErrNumberOutOfRange = errors.New("result number out of range")
)

// Path returns the cache file path for a tracker.
func Path(t *tracker.Tracker) string {
	return filepath.Join(t.MuninPath(), FileName)
}

// Write saves the listing for follow-up numbered references.
func Write(t *tracker.Tracker, command string, queryArgs, ids []string) error {
	lr := &LastResults{
		Command:   command,
		Query:     queryArgs,
		Timestamp: time.Now(),
		IDs:       ids,
	}

	data, err := json.MarshalIndent(lr, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal last results: %w", err)
	}
	if err := os.WriteFile(Path(t), data, 0o644); err != nil {
		return fmt.Errorf("failed to write last results: %w", err)
	}
	return nil
}

// Read loads the most recent listing.
func Read(t *tracker.Tracker) (*LastResults, error) {
	data, err := os.ReadFile(Path(t))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoLastResults
		}
		return nil, fmt.Errorf("failed to read last results: %w", err)
	}

	var lr LastResults
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("failed to parse last results: %w", err)
	}
	return &lr, nil
}

// GetByNumber returns the id at a 1-indexed result number.
func (lr *LastResults) GetByNumber(num int) (string, error) {
	if num < 1 || num > len(lr.IDs) {
		return "", fmt.Errorf("%w: %d (valid range: 1-%d)", ErrNumberOutOfRange, num, len(lr.IDs))
	}
	return lr.IDs[num-1], nil
}

// Resolve maps an id argument to a record id. An all-digit argument is a
// 1-indexed reference into the last listing; anything else passes through
// unchanged.
func Resolve(t *tracker.Tracker, arg string) (string, error) {
	num, err := strconv.Atoi(arg)
	if err != nil || num < 1 {
		return arg, nil
	}

	lr, readErr := Read(t)
	if readErr != nil {
		if errors.Is(readErr, ErrNoLastResults) {
			return "", fmt.Errorf("no previous listing to take result %d from (run a list first, or use the full id)", num)
		}
		return "", readErr
	}
	id, err := lr.GetByNumber(num)
	if err != nil {
		return "", err
	}
	return id, nil
}
