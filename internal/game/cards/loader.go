package cards

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalogue is the on-disk layout of a card catalogue file.
type Catalogue struct {
	Cards []CardDefinition `yaml:"cards"`
}

// DecodeYAML parses a catalogue without registering it.
func DecodeYAML(r io.Reader) ([]CardDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat Catalogue
	if err := dec.Decode(&cat); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	return cat.Cards, nil
}

// LoadYAML parses a catalogue and registers every card in it.
func (r *Registry) LoadYAML(src io.Reader) (int, error) {
	defs, err := DecodeYAML(src)
	if err != nil {
		return 0, err
	}
	for i, def := range defs {
		if err := r.Register(def); err != nil {
			return i, fmt.Errorf("register card %d: %w", i, err)
		}
	}
	return len(defs), nil
}

// LoadYAMLFile opens path and registers every card in it.
func (r *Registry) LoadYAMLFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalogue: %w", err)
	}
	defer file.Close()

	return r.LoadYAML(file)
}
