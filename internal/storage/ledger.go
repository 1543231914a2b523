package storage

import (
	"encoding/json"
	"fmt"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
	"github.com/Tiliavir/trivial-punch-clock/internal/timecalc"
)

// encodeIntervals renders intervals as ledger pairs. Open intervals become
// one-element arrays.
func encodeIntervals(intervals []model.Interval) [][]string {
	out := make([][]string, 0, len(intervals))
	for _, iv := range intervals {
		pair := []string{timecalc.FormatISO(iv.In)}
		if iv.Out != nil {
			pair = append(pair, timecalc.FormatISO(*iv.Out))
		}
		out = append(out, pair)
	}
	return out
}

func (s *Store) decodeIntervals(raw json.RawMessage) ([]model.Interval, error) {
	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}

	intervals := make([]model.Interval, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 1 && len(pair) != 2 {
			return nil, fmt.Errorf("interval %d has %d timestamps", i, len(pair))
		}
		in, err := timecalc.ParseISO(pair[0], s.loc)
		if err != nil {
			return nil, fmt.Errorf("interval %d: %w", i, err)
		}
		iv := model.Interval{In: in}
		if len(pair) == 2 {
			out, err := timecalc.ParseISO(pair[1], s.loc)
			if err != nil {
				return nil, fmt.Errorf("interval %d: %w", i, err)
			}
			iv.Out = &out
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

// hydrate returns the intervals stored under key, or none when the entry is
// missing or unreadable.
func (s *Store) hydrate(ledger document, key string) []model.Interval {
	raw, ok := ledger[key]
	if !ok {
		return nil
	}
	intervals, err := s.decodeIntervals(raw)
	if err != nil {
		s.logger.Warn("ignoring unreadable ledger entry", "path", s.ledgerPath, "id", key, "err", err)
		return nil
	}
	return intervals
}

// NewChargeCode builds a code and fills its intervals from the ledger, if
// the ledger has an entry for id. A blank or unparseable ledger means no
// existing data; any other read failure is returned.
func (s *Store) NewChargeCode(name, description string, id int) (*model.ChargeCode, error) {
	ledger, err := s.loadTolerant(s.ledgerPath)
	if err != nil {
		return nil, err
	}
	code := model.New(name, description, id)
	code.Intervals = s.hydrate(ledger, code.Key())
	return code, nil
}

// WriteLedger stores code's full interval list in the configured ledger.
func (s *Store) WriteLedger(code *model.ChargeCode) error {
	return s.WriteLedgerTo(code, s.ledgerPath)
}

// WriteLedgerTo replaces the entry for code.ID in the ledger at path with
// the code's current intervals. Entries for other ids are kept as they are.
// If the replaced entry could not be decoded, the file is first copied to
// <path>.corrupt.
func (s *Store) WriteLedgerTo(code *model.ChargeCode, path string) error {
	doc, err := s.loadForRewrite(path)
	if err != nil {
		return err
	}
	key := code.Key()
	if old, ok := doc[key]; ok {
		if _, decodeErr := s.decodeIntervals(old); decodeErr != nil {
			// The entry was hydrated as empty; keep a copy before replacing it.
			backupPath, err := copyToBackup(path)
			if err != nil {
				return err
			}
			s.logger.Warn("unreadable ledger entry replaced", "path", path, "id", key, "backup", backupPath, "err", decodeErr)
		}
	}

	entry, err := json.Marshal(encodeIntervals(code.Intervals))
	if err != nil {
		return fmt.Errorf("storage error marshalling intervals for %d: %w", code.ID, err)
	}
	doc[key] = entry
	return saveDocument(path, doc)
}
