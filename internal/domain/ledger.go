package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PromptVersion is one stored entry in a document's prompt ledger.
// Version numbers are not stored; an entry's 1-based position is its version.
type PromptVersion struct {
	Prompt    string     `json:"prompt"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// PromptLedger is the append-only version history of extraction instructions
// owned by a single document. Version 0 (the system default) is implicit and
// never stored.
type PromptLedger []PromptVersion

// VersionEntry is one row of a materialized ledger, including the implicit
// system version 0.
type VersionEntry struct {
	Version   int        `json:"version"`
	Type      string     `json:"type"`
	Prompt    *string    `json:"prompt"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

const (
	VersionTypeSystem = "system"
	VersionTypeUser   = "user"
)

// Append returns a new ledger with one trailing entry added.
func (l PromptLedger) Append(prompt string, ts time.Time) PromptLedger {
	out := make(PromptLedger, len(l), len(l)+1)
	copy(out, l)
	return append(out, PromptVersion{Prompt: prompt, Timestamp: &ts})
}

// Latest returns the current version number (count of stored entries) and the
// active instruction text. ok is false when the ledger holds no user entries,
// meaning version 0 is in effect.
func (l PromptLedger) Latest() (version int, prompt string, ok bool) {
	if len(l) == 0 {
		return 0, "", false
	}
	return len(l), l[len(l)-1].Prompt, true
}

// UpdateAt replaces the instruction text of the given version in place,
// keeping its position and timestamp. Version 0 is the immutable system
// default; targeting it, or a version past the end, fails with
// ErrInvalidVersion.
func (l PromptLedger) UpdateAt(version int, prompt string) (PromptLedger, error) {
	if version <= 0 || version > len(l) {
		return nil, fmt.Errorf("version %d: %w", version, ErrInvalidVersion)
	}
	out := make(PromptLedger, len(l))
	copy(out, l)
	out[version-1].Prompt = prompt
	return out, nil
}

// ContainsPrompt reports whether the exact instruction text is already present
// in the ledger.
func (l PromptLedger) ContainsPrompt(prompt string) bool {
	for _, v := range l {
		if v.Prompt == prompt {
			return true
		}
	}
	return false
}

// Materialize expands the ledger into display entries, prepending the implicit
// version-0 system entry stamped with the owning record's creation time.
func (l PromptLedger) Materialize(createdAt time.Time) []VersionEntry {
	entries := make([]VersionEntry, 0, len(l)+1)
	entries = append(entries, VersionEntry{
		Version:   0,
		Type:      VersionTypeSystem,
		Prompt:    nil,
		Timestamp: &createdAt,
	})
	for i, v := range l {
		p := v.Prompt
		entries = append(entries, VersionEntry{
			Version:   i + 1,
			Type:      VersionTypeUser,
			Prompt:    &p,
			Timestamp: v.Timestamp,
		})
	}
	return entries
}

// Value implements driver.Valuer. An empty ledger is stored as NULL so that
// "has a saved prompt" stays expressible as prompt_history IS NOT NULL.
func (l PromptLedger) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("ledger: encoding: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner. Three stored forms are accepted: NULL, a JSON
// array of entries, and the legacy single-string form, which is equivalent to
// a ledger with exactly one version-1 entry and no timestamp.
func (l *PromptLedger) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return l.decode(v)
	case string:
		return l.decode([]byte(v))
	default:
		return fmt.Errorf("ledger: cannot scan %T", src)
	}
}

func (l *PromptLedger) decode(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		*l = nil
		return nil
	}

	var entries []PromptVersion
	if err := json.Unmarshal([]byte(trimmed), &entries); err == nil {
		*l = entries
		return nil
	}

	// Legacy rows hold the bare instruction, either JSON-string-encoded or as
	// raw text.
	var single string
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
		*l = PromptLedger{{Prompt: single}}
		return nil
	}
	*l = PromptLedger{{Prompt: trimmed}}
	return nil
}
