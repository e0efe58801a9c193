// Package kvstore persists system configuration and accumulated energy
// to a YAML file, the same serialization the teacher already depends on
// (gopkg.in/yaml.v3), standing in for the original firmware's NVS flash
// partition: one document, atomically rewritten on every save.
package kvstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tomasvovard/ssee2-monitor-red-electrica-esp32/pkg/model"
)

// document is the on-disk shape. Keys mirror the original NVS layout
// (imax, vmin_%d, vmax_%d, autorec_%d, priority_%d, energy) folded into
// one YAML document instead of individually keyed blobs.
type document struct {
	Config *configDoc `yaml:"config,omitempty"`
	Energy *float64   `yaml:"energy,omitempty"`
}

type configDoc struct {
	IMax  float64                 `yaml:"imax"`
	Loads [model.NumLoads]loadDoc `yaml:"loads"`
}

type loadDoc struct {
	VMin     int16 `yaml:"vmin"`
	VMax     int16 `yaml:"vmax"`
	AutoRec  bool  `yaml:"autorec"`
	Priority uint8 `yaml:"priority"`
}

// Store is a YAML-backed contracts.KVStore.
type Store struct {
	path string
}

// New returns a Store persisting to path. The file need not exist yet;
// it is created on the first save.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) read() (document, bool, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return document{}, false, nil
	}
	if err != nil {
		return document{}, false, fmt.Errorf("kvstore: read %s: %w", s.path, err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return document{}, false, fmt.Errorf("kvstore: parse %s: %w", s.path, err)
	}
	return doc, true, nil
}

// write persists doc atomically: write to a temp file in the same
// directory, then rename over the target, so a crash mid-write never
// leaves a half-written config behind.
func (s *Store) write(doc document) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("kvstore: marshal: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".kvstore-*.tmp")
	if err != nil {
		return fmt.Errorf("kvstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("kvstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("kvstore: rename into place: %w", err)
	}
	return nil
}

// LoadConfig loads the persisted configuration. A config section that is
// entirely absent reports ok=false, not an error, so callers fall back
// to model.DefaultSysCfg().
func (s *Store) LoadConfig() (model.SysCfg, bool, error) {
	doc, exists, err := s.read()
	if err != nil {
		return model.SysCfg{}, false, err
	}
	if !exists || doc.Config == nil {
		return model.SysCfg{}, false, nil
	}
	var cfg model.SysCfg
	cfg.IMax = doc.Config.IMax
	for i, l := range doc.Config.Loads {
		cfg.Load[i] = model.LoadCfg{
			VMin:     l.VMin,
			VMax:     l.VMax,
			AutoRec:  l.AutoRec,
			Priority: l.Priority,
		}
	}
	return cfg, true, nil
}

// SaveConfig persists cfg, preserving any existing energy value.
func (s *Store) SaveConfig(cfg model.SysCfg) error {
	doc, _, err := s.read()
	if err != nil {
		return err
	}
	cd := &configDoc{IMax: cfg.IMax}
	for i, l := range cfg.Load {
		cd.Loads[i] = loadDoc{VMin: l.VMin, VMax: l.VMax, AutoRec: l.AutoRec, Priority: l.Priority}
	}
	doc.Config = cd
	return s.write(doc)
}

// LoadEnergy loads the persisted accumulated energy total, if any.
func (s *Store) LoadEnergy() (float64, bool, error) {
	doc, exists, err := s.read()
	if err != nil {
		return 0, false, err
	}
	if !exists || doc.Energy == nil {
		return 0, false, nil
	}
	return *doc.Energy, true, nil
}

// SaveEnergy persists kwh, preserving any existing configuration.
func (s *Store) SaveEnergy(kwh float64) error {
	doc, _, err := s.read()
	if err != nil {
		return err
	}
	doc.Energy = &kwh
	return s.write(doc)
}

// ResetDefaults wipes the persisted document entirely; the next
// LoadConfig/LoadEnergy calls will both report ok=false.
func (s *Store) ResetDefaults() error {
	return s.write(document{})
}
