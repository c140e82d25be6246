package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptLedger_AppendAssignsPositionalVersions(t *testing.T) {
	now := time.Now().UTC()

	var ledger PromptLedger
	ledger = ledger.Append("extract totals", now)
	ledger = ledger.Append("extract totals and dates", now.Add(time.Minute))

	version, prompt, ok := ledger.Latest()
	require.True(t, ok)
	assert.Equal(t, 2, version)
	assert.Equal(t, "extract totals and dates", prompt)
}

func TestPromptLedger_AppendDoesNotMutateReceiver(t *testing.T) {
	now := time.Now().UTC()
	base := PromptLedger{}.Append("v1", now)

	a := base.Append("v2a", now)
	b := base.Append("v2b", now)

	assert.Len(t, base, 1)
	assert.Equal(t, "v2a", a[1].Prompt)
	assert.Equal(t, "v2b", b[1].Prompt)
}

func TestPromptLedger_LatestOnEmptyLedgerIsVersionZero(t *testing.T) {
	var ledger PromptLedger

	version, prompt, ok := ledger.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0, version)
	assert.Empty(t, prompt)
}

func TestPromptLedger_UpdateAtReplacesTextInPlace(t *testing.T) {
	now := time.Now().UTC()
	ledger := PromptLedger{}.Append("first", now).Append("second", now)

	updated, err := ledger.UpdateAt(1, "first, revised")
	require.NoError(t, err)

	assert.Equal(t, "first, revised", updated[0].Prompt)
	assert.Equal(t, "second", updated[1].Prompt)
	// The original is untouched.
	assert.Equal(t, "first", ledger[0].Prompt)
}

func TestPromptLedger_UpdateAtRejectsSystemVersion(t *testing.T) {
	ledger := PromptLedger{}.Append("only", time.Now().UTC())

	_, err := ledger.UpdateAt(0, "nope")
	assert.True(t, errors.Is(err, ErrInvalidVersion))
}

func TestPromptLedger_UpdateAtRejectsOutOfRange(t *testing.T) {
	ledger := PromptLedger{}.Append("only", time.Now().UTC())

	_, err := ledger.UpdateAt(2, "nope")
	assert.True(t, errors.Is(err, ErrInvalidVersion))

	_, err = ledger.UpdateAt(-1, "nope")
	assert.True(t, errors.Is(err, ErrInvalidVersion))
}

func TestPromptLedger_MaterializePrependsSystemEntry(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	saved := created.Add(time.Hour)
	ledger := PromptLedger{}.Append("custom", saved)

	entries := ledger.Materialize(created)
	require.Len(t, entries, 2)

	assert.Equal(t, 0, entries[0].Version)
	assert.Equal(t, VersionTypeSystem, entries[0].Type)
	assert.Nil(t, entries[0].Prompt)
	assert.Equal(t, created, *entries[0].Timestamp)

	assert.Equal(t, 1, entries[1].Version)
	assert.Equal(t, VersionTypeUser, entries[1].Type)
	require.NotNil(t, entries[1].Prompt)
	assert.Equal(t, "custom", *entries[1].Prompt)
}

func TestPromptLedger_MaterializeEmptyLedger(t *testing.T) {
	created := time.Now().UTC()

	entries := PromptLedger(nil).Materialize(created)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Version)
}

func TestPromptLedger_ContainsPrompt(t *testing.T) {
	ledger := PromptLedger{}.Append("alpha", time.Now().UTC())

	assert.True(t, ledger.ContainsPrompt("alpha"))
	assert.False(t, ledger.ContainsPrompt("Alpha"))
	assert.False(t, ledger.ContainsPrompt(""))
}

func TestPromptLedger_ValueEmptyIsNull(t *testing.T) {
	v, err := PromptLedger(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestPromptLedger_ScanNull(t *testing.T) {
	var ledger PromptLedger
	require.NoError(t, ledger.Scan(nil))
	assert.Empty(t, ledger)
}

func TestPromptLedger_ScanRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	original := PromptLedger{}.Append("one", now).Append("two", now)

	v, err := original.Value()
	require.NoError(t, err)

	var decoded PromptLedger
	require.NoError(t, decoded.Scan(v))
	require.Len(t, decoded, 2)
	assert.Equal(t, "one", decoded[0].Prompt)
	assert.Equal(t, "two", decoded[1].Prompt)
}

func TestPromptLedger_ScanLegacyJSONString(t *testing.T) {
	var ledger PromptLedger
	require.NoError(t, ledger.Scan(`"extract the invoice header"`))

	require.Len(t, ledger, 1)
	assert.Equal(t, "extract the invoice header", ledger[0].Prompt)
	assert.Nil(t, ledger[0].Timestamp)

	version, prompt, ok := ledger.Latest()
	require.True(t, ok)
	assert.Equal(t, 1, version)
	assert.Equal(t, "extract the invoice header", prompt)
}

func TestPromptLedger_ScanLegacyRawText(t *testing.T) {
	var ledger PromptLedger
	require.NoError(t, ledger.Scan([]byte("plain instruction text")))

	require.Len(t, ledger, 1)
	assert.Equal(t, "plain instruction text", ledger[0].Prompt)
	assert.Nil(t, ledger[0].Timestamp)
}
