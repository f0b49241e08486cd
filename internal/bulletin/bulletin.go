// Package bulletin reads and writes subject bulletin files: the published
// grade boundaries and world-wide grade distribution for one examined
// subject, stored as YAML documents or imported from CSV tables.
package bulletin

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gradestat/gradestat/internal/subject"
)

// File is the on-disk form of a subject bulletin.
type File struct {
	ID           string                  `yaml:"id" json:"id"`
	Name         string                  `yaml:"name" json:"name"`
	Level        string                  `yaml:"level,omitempty" json:"level,omitempty"`
	Boundaries   map[string]subject.Band `yaml:"boundaries" json:"boundaries"`
	Distribution map[string]float64      `yaml:"distribution" json:"distribution"`
}

// Load reads a bulletin from a YAML file and validates it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Save writes the bulletin to path as YAML.
func (f *File) Save(path string) error {
	out, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}

// Validate checks that the bulletin identifies itself and describes a
// usable subject.
func (f *File) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("id is required")
	}
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	_, err := f.ToSubject()
	return err
}

// ToSubject builds the Subject the bulletin describes.
func (f *File) ToSubject() (*subject.Subject, error) {
	return subject.New(f.ID, f.Name, f.Level, f.Boundaries, f.Distribution)
}

// FromSubject converts a subject back to its file form, for round-tripping
// store records out to disk.
func FromSubject(s *subject.Subject) *File {
	return &File{
		ID:           s.ID(),
		Name:         s.Name(),
		Level:        s.Level(),
		Boundaries:   s.Bands(),
		Distribution: s.Distribution(),
	}
}
