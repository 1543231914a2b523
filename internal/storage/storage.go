// Package storage persists charge codes in two JSON documents: a registry
// of code metadata and a ledger of punch intervals, both keyed by the
// decimal string form of the code id.
//
// Every operation is a whole-file read followed, for writers, by a
// whole-file rewrite. There is no locking; two processes writing the same
// files can lose updates.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidID is returned for ids that are not plain non-negative
	// decimal integers. It is checked before any file is touched.
	ErrInvalidID = errors.New("invalid charge code id")
	// ErrNotFound is returned by Delete when the id is missing from the
	// registry or the ledger.
	ErrNotFound = errors.New("charge code not found")
	// ErrUnknownType is returned when a registry entry carries a type tag
	// this version cannot decode.
	ErrUnknownType = errors.New("unknown registry entry type")

	errMalformed = errors.New("malformed document")
)

// Store reads and writes the registry and ledger files.
type Store struct {
	registryPath string
	ledgerPath   string
	logger       *slog.Logger
	loc          *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report tolerated corruption.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithLocation sets the zone ledger timestamps are read in. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// Open returns a Store for the given files. The files need not exist yet.
func Open(registryPath, ledgerPath string, opts ...Option) *Store {
	s := &Store{
		registryPath: registryPath,
		ledgerPath:   ledgerPath,
		logger:       slog.Default(),
		loc:          time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegistryPath returns the registry file path.
func (s *Store) RegistryPath() string { return s.registryPath }

// LedgerPath returns the ledger file path.
func (s *Store) LedgerPath() string { return s.ledgerPath }

// ParseID converts user input into a charge code id. Only plain decimal
// digits are accepted.
func ParseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}

// document is a store file decoded one level deep. Values stay raw so that
// entries this process does not touch are written back unchanged.
type document map[string]json.RawMessage

// loadDocument reads a JSON object from path. A missing or blank file is an
// empty document. Unparseable content yields an error wrapping errMalformed.
func loadDocument(path string) (document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", errMalformed, path, err)
	}
	if doc == nil {
		// literal null
		doc = document{}
	}
	return doc, nil
}

// loadTolerant is loadDocument for read paths: a malformed document is
// logged and treated as empty.
func (s *Store) loadTolerant(path string) (document, error) {
	doc, err := loadDocument(path)
	if errors.Is(err, errMalformed) {
		s.logger.Warn("ignoring unreadable store file, assuming it is blank", "path", path, "err", err)
		return document{}, nil
	}
	return doc, err
}

// loadForRewrite is loadDocument for write paths. A malformed document is
// treated as empty, but the file is first backed up to <path>.corrupt so
// the rewrite does not destroy it.
func (s *Store) loadForRewrite(path string) (document, error) {
	doc, err := loadDocument(path)
	if !errors.Is(err, errMalformed) {
		return doc, err
	}
	backupPath := path + corruptSuffix
	if renameErr := os.Rename(path, backupPath); renameErr != nil {
		return nil, fmt.Errorf("storage error backing up %s: %w", path, renameErr)
	}
	s.logger.Warn("store file was unreadable and has been replaced", "path", path, "backup", backupPath, "err", err)
	return document{}, nil
}

const corruptSuffix = ".corrupt"

// copyToBackup copies the file at path to <path>.corrupt and returns the
// backup path.
func copyToBackup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("storage error reading %s: %w", path, err)
	}
	backupPath := path + corruptSuffix
	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return "", fmt.Errorf("storage error backing up %s: %w", path, err)
	}
	return backupPath, nil
}

// saveDocument atomically writes doc to path.
func saveDocument(path string, doc document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
