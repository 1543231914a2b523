package storage

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
)

// chargeCodeType is the type tag written with every registry entry.
const chargeCodeType = "ChargeCode"

// chargeCodeEntry is the registry form of a ChargeCode.
type chargeCodeEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ID          int    `json:"id"`
	Type        string `json:"__type__"`
}

// decodeRegistryEntry dispatches on the entry's type tag. Entries without a
// tag predate it and are charge codes.
func decodeRegistryEntry(key string, raw json.RawMessage) (model.Metadata, error) {
	var tag struct {
		Type string `json:"__type__"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return model.Metadata{}, fmt.Errorf("decoding registry entry %s: %w", key, err)
	}

	switch tag.Type {
	case chargeCodeType, "":
		var e chargeCodeEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return model.Metadata{}, fmt.Errorf("decoding registry entry %s: %w", key, err)
		}
		return model.Metadata{Name: e.Name, Description: e.Description, ID: e.ID}, nil
	default:
		return model.Metadata{}, fmt.Errorf("registry entry %s: %w %q", key, ErrUnknownType, tag.Type)
	}
}

func encodeRegistryEntry(m model.Metadata) (json.RawMessage, error) {
	data, err := json.Marshal(chargeCodeEntry{
		Name:        m.Name,
		Description: m.Description,
		ID:          m.ID,
		Type:        chargeCodeType,
	})
	if err != nil {
		return nil, fmt.Errorf("storage error marshalling registry entry %d: %w", m.ID, err)
	}
	return data, nil
}

// WriteRegistry registers code's metadata. An id that is already registered
// is left untouched and false is returned; existing metadata is never
// overwritten from an in-memory copy.
func (s *Store) WriteRegistry(code *model.ChargeCode) (bool, error) {
	doc, err := s.loadForRewrite(s.registryPath)
	if err != nil {
		return false, err
	}
	if _, exists := doc[code.Key()]; exists {
		s.logger.Debug("charge code already registered", "id", code.ID)
		return false, nil
	}

	entry, err := encodeRegistryEntry(code.Metadata())
	if err != nil {
		return false, err
	}
	doc[code.Key()] = entry
	if err := saveDocument(s.registryPath, doc); err != nil {
		return false, err
	}
	return true, nil
}

// Lookup parses rawID and returns the registered, ledger-hydrated code.
// ok is false when the id is valid but not registered.
func (s *Store) Lookup(rawID string) (code *model.ChargeCode, ok bool, err error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, false, err
	}
	return s.LookupID(id)
}

// LookupID is Lookup for an already parsed id.
func (s *Store) LookupID(id int) (*model.ChargeCode, bool, error) {
	doc, err := s.loadTolerant(s.registryPath)
	if err != nil {
		return nil, false, err
	}
	raw, ok := doc[model.Key(id)]
	if !ok {
		return nil, false, nil
	}
	meta, err := decodeRegistryEntry(model.Key(id), raw)
	if err != nil {
		return nil, false, err
	}

	code, err := s.NewChargeCode(meta.Name, meta.Description, meta.ID)
	if err != nil {
		return nil, false, err
	}
	return code, true, nil
}

// Codes returns every registered code, hydrated and sorted by id.
func (s *Store) Codes() ([]*model.ChargeCode, error) {
	doc, err := s.loadTolerant(s.registryPath)
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadTolerant(s.ledgerPath)
	if err != nil {
		return nil, err
	}

	codes := make([]*model.ChargeCode, 0, len(doc))
	for key, raw := range doc {
		meta, err := decodeRegistryEntry(key, raw)
		if err != nil {
			return nil, err
		}
		code := model.New(meta.Name, meta.Description, meta.ID)
		code.Intervals = s.hydrate(ledger, code.Key())
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].ID < codes[j].ID })
	return codes, nil
}

// Delete removes id from both the registry and the ledger. The id must be
// present in both; otherwise nothing is rewritten.
func (s *Store) Delete(id int) error {
	key := model.Key(id)

	registry, err := loadDocument(s.registryPath)
	if err != nil {
		return err
	}
	ledger, err := loadDocument(s.ledgerPath)
	if err != nil {
		return err
	}
	if _, ok := registry[key]; !ok {
		return fmt.Errorf("deleting %d from registry %s: %w", id, s.registryPath, ErrNotFound)
	}
	if _, ok := ledger[key]; !ok {
		return fmt.Errorf("deleting %d from ledger %s: %w", id, s.ledgerPath, ErrNotFound)
	}

	delete(registry, key)
	delete(ledger, key)
	if err := saveDocument(s.registryPath, registry); err != nil {
		return err
	}
	return saveDocument(s.ledgerPath, ledger)
}
