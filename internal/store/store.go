// Package store persists the editable part of the catalog: tariffs, boosters
// and pricing controls.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"gopkg.in/yaml.v3"
)

// Record is the persisted shape.
type Record struct {
	Tariffs         []catalog.Tariff        `yaml:"tariffs" json:"tariffs"`
	Boosters        []catalog.Booster       `yaml:"boosters" json:"boosters"`
	PricingControls catalog.PricingControls `yaml:"pricingControls" json:"pricingControls"`
}

// FromCatalog extracts the persisted part of a catalog.
func FromCatalog(c catalog.Catalog) Record {
	return Record{Tariffs: c.Tariffs, Boosters: c.Boosters, PricingControls: c.PricingControls}
}

// Apply replaces the persisted part of c with the record. Subscriptions are kept.
func (r Record) Apply(c catalog.Catalog) catalog.Catalog {
	c.Tariffs = r.Tariffs
	c.Boosters = r.Boosters
	c.PricingControls = r.PricingControls
	return c
}

// FileStore keeps a Record in a YAML file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the record. A missing file is reported with fs.ErrNotExist.
// Entries are normalized, so hand-edited or older files load with defaults
// filled in.
func (s *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Record{}, fmt.Errorf("read catalog store %s: %w", s.path, err)
	}

	var raw catalog.Record
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("parse catalog store %s: %w", s.path, err)
	}

	c := catalog.NormalizeCatalog(raw)
	return FromCatalog(c), nil
}

// Exists reports whether the backing file is present.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return !errors.Is(err, fs.ErrNotExist)
}

// Save writes the record, replacing the file atomically.
func (s *FileStore) Save(r Record) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode catalog store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
