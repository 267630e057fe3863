package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"country-color-map/backend/models"
	"country-color-map/backend/system"
)

// ChangeObserver is told about every mutation that reached the store
type ChangeObserver interface {
	ColorChanged(change models.ColorChange)
}

// SeedRow is one line of a seed import
type SeedRow struct {
	Country   string
	ColorName string
}

// ColorStore holds the country -> color mapping and mirrors it to a JSON file.
// Readers get the current snapshot without locking; writers are serialized
// across modify+persist.
type ColorStore struct {
	path string

	writeMu  sync.Mutex
	snapshot atomic.Pointer[models.ColorMapping]

	observers []ChangeObserver
}

// NewColorStore loads path. A missing file gives an empty store; an unreadable
// or malformed file is logged, yields an empty store, and is returned as a
// *PersistenceError so the caller can surface it. The store is usable either way.
func NewColorStore(path string, observers ...ChangeObserver) (*ColorStore, error) {
	s := &ColorStore{path: path, observers: observers}

	mapping, err := loadMapping(path)
	if err != nil {
		system.Warn("Starting with an empty color map: %v", err)
		mapping = models.ColorMapping{}
	} else {
		system.Info("Loaded %d country colors from %s", len(mapping), path)
	}
	s.snapshot.Store(&mapping)
	return s, err
}

// Path is the backing file
func (s *ColorStore) Path() string {
	return s.path
}

// AddObserver registers o for future mutations. Not safe to call concurrently with writes.
func (s *ColorStore) AddObserver(o ChangeObserver) {
	s.observers = append(s.observers, o)
}

// GetAll returns a copy of the current mapping
func (s *ColorStore) GetAll() models.ColorMapping {
	return s.current().Clone()
}

// Get returns one country's entry
func (s *ColorStore) Get(country string) (models.CountryColorEntry, bool) {
	e, ok := s.current()[country]
	return e, ok
}

// Legend lists colored countries alphabetically
func (s *ColorStore) Legend() []models.LegendItem {
	m := s.current()
	items := make([]models.LegendItem, 0, len(m))
	for country, e := range m {
		items = append(items, models.LegendItem{Country: country, Color: e.Color, ColorName: e.ColorName})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Country < items[j].Country })
	return items
}

func (s *ColorStore) current() models.ColorMapping {
	return *s.snapshot.Load()
}

// SetColor assigns color to country. Authorization is checked before anything
// else so a non-admin learns nothing about the country or current state.
func (s *ColorStore) SetColor(session models.Session, country string, color models.ColorName) error {
	if !session.IsAdmin {
		return ErrUnauthorized
	}
	if !models.IsSupportedCountry(country) {
		return fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	if !color.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownColor, color)
	}
	// callers may hand us strings backed by reused request buffers
	country = strings.Clone(country)

	return s.mutate(func(m models.ColorMapping) (models.ColorMapping, error) {
		m[country] = models.NewEntry(color)
		return m, nil
	}, models.ColorChange{Action: models.ActionSet, Country: country, ColorName: color})
}

// RemoveColor clears one country
func (s *ColorStore) RemoveColor(session models.Session, country string) error {
	if !session.IsAdmin {
		return ErrUnauthorized
	}
	country = strings.Clone(country)

	return s.mutate(func(m models.ColorMapping) (models.ColorMapping, error) {
		if _, ok := m[country]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, country)
		}
		delete(m, country)
		return m, nil
	}, models.ColorChange{Action: models.ActionRemove, Country: country})
}

// ClearAll empties the store. Clearing an empty store succeeds.
func (s *ColorStore) ClearAll(session models.Session) error {
	if !session.IsAdmin {
		return ErrUnauthorized
	}

	return s.mutate(func(models.ColorMapping) (models.ColorMapping, error) {
		return models.ColorMapping{}, nil
	}, models.ColorChange{Action: models.ActionClear})
}

// LoadFromSeed replaces the store with the rows whose color is a palette name.
// Unrecognized colors are skipped without error; for duplicate countries the
// last valid row wins. Country names are taken as given.
func (s *ColorStore) LoadFromSeed(rows []SeedRow) (models.ColorMapping, error) {
	seeded := BuildSeedMapping(rows)

	err := s.mutate(func(models.ColorMapping) (models.ColorMapping, error) {
		return seeded.Clone(), nil
	}, models.ColorChange{Action: models.ActionSeed, Count: len(seeded)})
	return seeded, err
}

// BuildSeedMapping applies the seed rules without touching any store
func BuildSeedMapping(rows []SeedRow) models.ColorMapping {
	seeded := models.ColorMapping{}
	for _, row := range rows {
		color, err := models.ParseColorName(row.ColorName)
		if err != nil {
			continue
		}
		if !models.IsSupportedCountry(row.Country) {
			system.Warn("Seed row for %q is not in the supported country list", row.Country)
		}
		seeded[row.Country] = models.NewEntry(color)
	}
	return seeded
}

// Replace swaps in a complete mapping after validating every entry
func (s *ColorStore) Replace(session models.Session, mapping models.ColorMapping) error {
	if !session.IsAdmin {
		return ErrUnauthorized
	}
	for country, e := range mapping {
		if !models.IsSupportedCountry(country) {
			return fmt.Errorf("%w: %q", ErrUnknownCountry, country)
		}
		if !e.Valid() {
			return fmt.Errorf("%w: %q for %q", ErrUnknownColor, e.ColorName, country)
		}
	}

	return s.mutate(func(models.ColorMapping) (models.ColorMapping, error) {
		return mapping.Clone(), nil
	}, models.ColorChange{Action: models.ActionImport, Count: len(mapping)})
}

// Reload re-reads the backing file, used when another process rewrites it.
// On failure the current state is kept.
func (s *ColorStore) Reload() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	mapping, err := loadMapping(s.path)
	if err != nil {
		return err
	}
	s.snapshot.Store(&mapping)
	return nil
}

// mutate applies fn to a copy of the current mapping, publishes the result and
// persists it. A failed write leaves the new in-memory state in place and
// returns a *PersistenceError.
func (s *ColorStore) mutate(fn func(models.ColorMapping) (models.ColorMapping, error), change models.ColorChange) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, err := fn(s.current().Clone())
	if err != nil {
		return err
	}
	s.snapshot.Store(&next)

	for _, o := range s.observers {
		o.ColorChanged(change)
	}

	if err := saveMapping(s.path, next); err != nil {
		system.Error("Color change kept in memory only: %v", err)
		return err
	}
	return nil
}

func loadMapping(path string) (models.ColorMapping, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.ColorMapping{}, nil
	}
	if err != nil {
		return nil, &PersistenceError{Kind: ErrReadFailed, Path: path, Err: err}
	}

	mapping := models.ColorMapping{}
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, &PersistenceError{Kind: ErrReadFailed, Path: path, Err: err}
	}
	if mapping == nil {
		// file contained "null"
		mapping = models.ColorMapping{}
	}
	// unlisted countries are kept so seed output round-trips, off-palette colors are not
	for country, e := range mapping {
		if !e.Valid() {
			system.Warn("Dropping %q from %s: %q/%q is not a palette color", country, path, e.ColorName, e.Color)
			delete(mapping, country)
		}
	}
	return mapping, nil
}

// saveMapping writes to a temp file in the same directory and renames it over
// path, so readers never see a partial file.
func saveMapping(path string, mapping models.ColorMapping) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return &PersistenceError{Kind: ErrWriteFailed, Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &PersistenceError{Kind: ErrWriteFailed, Path: path, Err: err}
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Kind: ErrWriteFailed, Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Kind: ErrWriteFailed, Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Kind: ErrWriteFailed, Path: path, Err: err}
	}
	return nil
}
