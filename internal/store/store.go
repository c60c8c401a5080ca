// Package store is the configuration store for property declarations. Each
// entity type has one YAML document holding its property map; one more
// document holds the global settings.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

const (
	propertiesPrefix = "entity_property.properties."
	settingsFile     = "entity_property.settings.yaml"
)

// document is the on-disk shape of one entity type's declarations.
type document struct {
	EntityType string                    `yaml:"entity_type"`
	Properties map[string]types.Property `yaml:"properties"`
}

// Store reads and writes property documents under a config directory.
// Writes are atomic; concurrent writers are serialized in-process and the
// last write wins across processes.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a store rooted at dir. The directory is created on first
// write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

func (s *Store) documentPath(entityType string) string {
	return filepath.Join(s.dir, propertiesPrefix+entityType+".yaml")
}

// Properties returns the properties declared for entityType ordered by
// name. A missing document yields an empty slice.
func (s *Store) Properties(entityType string) ([]types.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(entityType)
	if err != nil {
		return nil, err
	}
	return sortedProperties(doc), nil
}

// Property returns one declared property.
func (s *Store) Property(entityType, name string) (*types.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(entityType)
	if err != nil {
		return nil, err
	}
	p, ok := doc.Properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", types.ErrPropertyNotFound, entityType, name)
	}
	return &p, nil
}

// Exists reports whether a property with name is declared on entityType.
func (s *Store) Exists(entityType, name string) (bool, error) {
	_, err := s.Property(entityType, name)
	if errors.Is(err, types.ErrPropertyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// SetProperty stores p under its name, replacing any previous declaration.
func (s *Store) SetProperty(entityType string, p types.Property) error {
	if err := types.ValidateMachineName(p.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(entityType)
	if err != nil {
		return err
	}
	doc.Properties[p.Name] = p
	return s.save(entityType, doc)
}

// ClearProperty removes a declaration.
func (s *Store) ClearProperty(entityType, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(entityType)
	if err != nil {
		return err
	}
	if _, ok := doc.Properties[name]; !ok {
		return fmt.Errorf("%w: %s.%s", types.ErrPropertyNotFound, entityType, name)
	}
	delete(doc.Properties, name)
	return s.save(entityType, doc)
}

// Settings returns the saved global settings, or the defaults when none
// were saved.
func (s *Store) Settings() (types.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, settingsFile))
	if errors.Is(err, os.ErrNotExist) {
		return types.DefaultSettings(), nil
	}
	if err != nil {
		return types.Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	settings := types.DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return types.Settings{}, fmt.Errorf("%w: %s: %v", types.ErrInvalidDocument, settingsFile, err)
	}
	return settings, nil
}

// SaveSettings replaces the global settings.
func (s *Store) SaveSettings(settings types.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir, settingsFile), data)
}

// load reads and validates a document. The caller must hold s.mu.
func (s *Store) load(entityType string) (*document, error) {
	path := s.documentPath(entityType)
	doc := &document{EntityType: entityType, Properties: map[string]types.Property{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	issues, err := ValidateDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(issues) > 0 {
		return nil, issuesError(path, issues)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidDocument, path, err)
	}
	if doc.EntityType != entityType {
		return nil, fmt.Errorf("%w: %s declares entity type %q", types.ErrInvalidDocument, path, doc.EntityType)
	}
	if doc.Properties == nil {
		doc.Properties = map[string]types.Property{}
	}
	for key, p := range doc.Properties {
		if p.Name != key {
			return nil, fmt.Errorf("%w: %s: key %q holds property %q", types.ErrInvalidDocument, path, key, p.Name)
		}
	}
	return doc, nil
}

// save writes a document. The caller must hold s.mu.
func (s *Store) save(entityType string, doc *document) error {
	doc.EntityType = entityType
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal properties of %s: %w", entityType, err)
	}
	return writeFileAtomic(s.documentPath(entityType), data)
}

func sortedProperties(doc *document) []types.Property {
	out := make([]types.Property, 0, len(doc.Properties))
	for _, p := range doc.Properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
