package storage_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
	"github.com/Tiliavir/trivial-punch-clock/internal/storage"
)

func newStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := storage.Open(
		filepath.Join(dir, "charges.json"),
		filepath.Join(dir, "data.json"),
		storage.WithLocation(time.UTC),
		storage.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return s, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{" 42 ", 42, false},
		{"0", 0, false},
		{"99999999", 99999999, false},
		{"", 0, true},
		{"-1", 0, true},
		{"+1", 0, true},
		{"1.5", 0, true},
		{"../charges", 0, true},
		{"abc", 0, true},
		{"99999999999999999999999", 0, true},
	}
	for _, tt := range tests {
		got, err := storage.ParseID(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, storage.ErrInvalidID, "ParseID(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseID(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseID(%q)", tt.in)
	}
}

func TestNewChargeCodeWithoutLedger(t *testing.T) {
	s, _ := newStore(t)

	code, err := s.NewChargeCode("test_code", "description", 0)
	require.NoError(t, err)
	assert.Empty(t, code.Intervals)
	assert.Equal(t, model.Uninitialized, code.State())
}

func TestNewChargeCodeToleratesBlankAndMalformedLedger(t *testing.T) {
	for name, content := range map[string]string{
		"empty":     "",
		"blank":     "  \n",
		"malformed": "{bad json",
		"array":     `[["2024-01-01T08:00:00"]]`,
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newStore(t)
			writeFile(t, s.LedgerPath(), content)

			code, err := s.NewChargeCode("x", "", 1)
			require.NoError(t, err)
			assert.Empty(t, code.Intervals)

			// Reading must not modify the file.
			data, err := os.ReadFile(s.LedgerPath())
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
		})
	}
}

func TestNewChargeCodePropagatesIOErrors(t *testing.T) {
	dir := t.TempDir()
	// A directory where the ledger file should be cannot be read.
	s := storage.Open(filepath.Join(dir, "charges.json"), dir)

	_, err := s.NewChargeCode("x", "", 1)
	assert.Error(t, err)
}

func TestLedgerRoundTrip(t *testing.T) {
	s, _ := newStore(t)

	code := model.New("Round", "trip", 7)
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 123456000, time.UTC)
	require.NoError(t, code.PunchAt(t0))
	require.NoError(t, code.PunchAt(t0.Add(90*time.Minute+7*time.Microsecond)))
	require.NoError(t, code.PunchAt(t0.Add(24*time.Hour)))
	require.NoError(t, s.WriteLedger(code))

	loaded, err := s.NewChargeCode("Round", "trip", 7)
	require.NoError(t, err)
	require.Len(t, loaded.Intervals, 2)
	for i, iv := range code.Intervals {
		got := loaded.Intervals[i]
		assert.True(t, got.In.Equal(iv.In), "interval %d in: %v != %v", i, got.In, iv.In)
		if iv.Out == nil {
			assert.Nil(t, got.Out)
			continue
		}
		require.NotNil(t, got.Out)
		assert.True(t, got.Out.Equal(*iv.Out), "interval %d out: %v != %v", i, *got.Out, *iv.Out)
	}
	assert.Equal(t, model.Open, loaded.State())

	ledger := readJSON(t, s.LedgerPath())
	assert.Equal(t, []any{
		[]any{"2024-01-01T08:00:00.123456", "2024-01-01T09:30:00.123463"},
		[]any{"2024-01-02T08:00:00.123456"},
	}, ledger["7"])
}

func TestWriteLedgerIsIdempotent(t *testing.T) {
	s, _ := newStore(t)

	code := model.New("Same", "", 3)
	require.NoError(t, code.PunchAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))

	require.NoError(t, s.WriteLedger(code))
	first, err := os.ReadFile(s.LedgerPath())
	require.NoError(t, err)

	require.NoError(t, s.WriteLedger(code))
	second, err := os.ReadFile(s.LedgerPath())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestWriteLedgerReplacesOnlyOwnEntry(t *testing.T) {
	s, _ := newStore(t)
	writeFile(t, s.LedgerPath(), `{
  "1": [["2023-05-31T08:00:00", "2023-05-31T15:00:00"]],
  "2": [["not even a timestamp"]]
}`)

	code := model.New("Two", "", 2)
	require.NoError(t, code.PunchAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, s.WriteLedger(code))

	ledger := readJSON(t, s.LedgerPath())
	assert.Equal(t, []any{[]any{"2023-05-31T08:00:00", "2023-05-31T15:00:00"}}, ledger["1"])
	assert.Equal(t, []any{[]any{"2024-01-01T08:00:00"}}, ledger["2"], "entry is replaced, not appended")
}

func TestWriteLedgerEmptyIntervalsIsArray(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.WriteLedger(model.New("Fresh", "", 9)))

	ledger := readJSON(t, s.LedgerPath())
	assert.Equal(t, []any{}, ledger["9"])
}

func TestWriteLedgerBacksUpMalformedFile(t *testing.T) {
	s, _ := newStore(t)
	writeFile(t, s.LedgerPath(), "{bad json")

	code := model.New("After", "", 4)
	require.NoError(t, code.PunchAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, s.WriteLedger(code))

	backup, err := os.ReadFile(s.LedgerPath() + ".corrupt")
	require.NoError(t, err, "expected backup file to exist after corrupt JSON")
	assert.Equal(t, "{bad json", string(backup))

	ledger := readJSON(t, s.LedgerPath())
	assert.Len(t, ledger, 1)
	assert.Contains(t, ledger, "4")
}

func TestWriteLedgerBacksUpUnreadableEntry(t *testing.T) {
	s, _ := newStore(t)
	original := `{"1":[["2024-01-01T08:00:00+01:00","2024-01-01T17:00:00+01:00"],["2024-01-02T08:00:00","2024-01-02T17:00:00"]],` +
		`"2":[["2024-01-03T08:00:00","2024-01-03T09:00:00"]]}`
	writeFile(t, s.LedgerPath(), original)
	writeFile(t, s.RegistryPath(), `{"1":{"name":"Alpha","description":"","id":1,"__type__":"ChargeCode"}}`)

	code, ok, err := s.LookupID(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, code.Intervals)

	require.NoError(t, code.PunchAt(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, s.WriteLedger(code))

	backup, err := os.ReadFile(s.LedgerPath() + ".corrupt")
	require.NoError(t, err, "unreadable entry must be backed up before it is replaced")
	assert.Equal(t, original, string(backup))

	ledger := readJSON(t, s.LedgerPath())
	assert.Equal(t, []any{[]any{"2024-02-01T08:00:00"}}, ledger["1"])
	assert.Equal(t, []any{[]any{"2024-01-03T08:00:00", "2024-01-03T09:00:00"}}, ledger["2"])

	// Once the entry is readable again, further writes make no backup.
	require.NoError(t, os.Remove(s.LedgerPath()+".corrupt"))
	require.NoError(t, code.PunchAt(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, s.WriteLedger(code))
	_, err = os.Stat(s.LedgerPath() + ".corrupt")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteLedgerTo(t *testing.T) {
	s, dir := newStore(t)
	target := filepath.Join(dir, "sub", "other.json")

	code := model.New("Elsewhere", "", 11)
	require.NoError(t, code.PunchAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, s.WriteLedgerTo(code, target))

	assert.Contains(t, readJSON(t, target), "11")
	_, err := os.Stat(s.LedgerPath())
	assert.True(t, os.IsNotExist(err), "default ledger must not be written")
}

func TestWriteRegistryNeverOverwrites(t *testing.T) {
	s, _ := newStore(t)

	written, err := s.WriteRegistry(model.New("Original", "first", 5))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = s.WriteRegistry(model.New("Stale", "second", 5))
	require.NoError(t, err)
	assert.False(t, written)

	registry := readJSON(t, s.RegistryPath())
	assert.Equal(t, map[string]any{
		"name":        "Original",
		"description": "first",
		"id":          float64(5),
		"__type__":    "ChargeCode",
	}, registry["5"])
}

func TestWriteRegistryExcludesIntervals(t *testing.T) {
	s, _ := newStore(t)
	code := model.New("Busy", "", 6)
	require.NoError(t, code.PunchAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))

	_, err := s.WriteRegistry(code)
	require.NoError(t, err)

	entry := readJSON(t, s.RegistryPath())["6"].(map[string]any)
	assert.NotContains(t, entry, "times")
	assert.NotContains(t, entry, "intervals")
}

func TestLookup(t *testing.T) {
	s, _ := newStore(t)

	code := model.New("Project Alpha", "Work on project Alpha.", 103)
	require.NoError(t, code.PunchAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	_, err := s.WriteRegistry(code)
	require.NoError(t, err)
	require.NoError(t, s.WriteLedger(code))

	got, ok, err := s.Lookup("103")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Project Alpha", got.Name)
	assert.Equal(t, "Work on project Alpha.", got.Description)
	assert.Equal(t, model.Open, got.State())

	got, ok, err = s.Lookup("104")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestLookupRejectsInvalidIDBeforeFileAccess(t *testing.T) {
	dir := t.TempDir()
	// Both paths are directories: any file access would fail with an I/O error.
	s := storage.Open(dir, dir)

	_, _, err := s.Lookup("../../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrInvalidID)

	_, _, err = s.Lookup("5")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrInvalidID)
}

func TestLookupDecodesTaggedEntries(t *testing.T) {
	s, _ := newStore(t)
	writeFile(t, s.RegistryPath(), `{
  "1": {"name": "Tagged", "description": "", "id": 1, "__type__": "ChargeCode"},
  "2": {"name": "Untagged", "description": "old", "id": 2},
  "3": {"name": "Future", "description": "", "id": 3, "__type__": "Budget"}
}`)

	code, ok, err := s.LookupID(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tagged", code.Name)

	code, ok, err = s.LookupID(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Untagged", code.Name)

	_, _, err = s.LookupID(3)
	assert.ErrorIs(t, err, storage.ErrUnknownType)
}

func TestLookupMalformedRegistryIsNotFound(t *testing.T) {
	s, _ := newStore(t)
	writeFile(t, s.RegistryPath(), "{oops")

	_, ok, err := s.LookupID(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodesSortedByID(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []int{105, 3, 40} {
		_, err := s.WriteRegistry(model.New("code", "", id))
		require.NoError(t, err)
	}
	active := model.New("code", "", 40)
	require.NoError(t, active.PunchAt(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, s.WriteLedger(active))

	codes, err := s.Codes()
	require.NoError(t, err)
	require.Len(t, codes, 3)
	assert.Equal(t, []int{3, 40, 105}, []int{codes[0].ID, codes[1].ID, codes[2].ID})
	assert.Equal(t, model.Open, codes[1].State())
	assert.Equal(t, model.Uninitialized, codes[0].State())
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []int{4, 5, 6} {
		code := model.New("code", "", id)
		require.NoError(t, code.AddInterval(
			time.Date(2024, 1, id, 8, 0, 0, 0, time.UTC),
			time.Date(2024, 1, id, 16, 0, 0, 0, time.UTC),
		))
		_, err := s.WriteRegistry(code)
		require.NoError(t, err)
		require.NoError(t, s.WriteLedger(code))
	}
	registryBefore := readJSON(t, s.RegistryPath())
	ledgerBefore := readJSON(t, s.LedgerPath())

	require.NoError(t, s.Delete(5))

	registryAfter := readJSON(t, s.RegistryPath())
	ledgerAfter := readJSON(t, s.LedgerPath())
	assert.NotContains(t, registryAfter, "5")
	assert.NotContains(t, ledgerAfter, "5")

	delete(registryBefore, "5")
	delete(ledgerBefore, "5")
	assert.Equal(t, registryBefore, registryAfter)
	assert.Equal(t, ledgerBefore, ledgerAfter)
}

func TestDeleteMissingID(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.WriteRegistry(model.New("Registered only", "", 8))
	require.NoError(t, err)
	before, err := os.ReadFile(s.RegistryPath())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(8), storage.ErrNotFound)
	assert.ErrorIs(t, s.Delete(9), storage.ErrNotFound)

	after, err := os.ReadFile(s.RegistryPath())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}
