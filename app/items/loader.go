package items

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/try-to-fly/vertrack/app/database"
)

// Definition is the YAML shape of a tracked software item. One file holds
// one item; the file name is only a label.
type Definition struct {
	Name    string                `yaml:"name"`
	Source  database.SourceConfig `yaml:"source"`
	Local   *database.ProbeConfig `yaml:"local,omitempty"`
	Enabled *bool                 `yaml:"enabled,omitempty"`
}

// Loader imports software definitions from a directory of YAML files into
// the database.
type Loader struct {
	itemsDir string
	repo     database.SoftwareRepository
}

func NewLoader(itemsDir string, repo database.SoftwareRepository) *Loader {
	return &Loader{
		itemsDir: itemsDir,
		repo:     repo,
	}
}

// Run loads every *.yml file in the items directory and registers the
// definitions. A missing directory is not an error; the API alone can
// manage items.
func (l *Loader) Run() error {
	if _, err := os.Stat(l.itemsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(l.itemsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		definition, err := l.parseDefinition(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.register(*definition); err != nil {
			return fmt.Errorf("error registering %s: %w", file, err)
		}

		slog.Debug("Definition loaded", "name", definition.Name, "source", definition.Source.Type)
	}

	return nil
}

func (l *Loader) parseDefinition(file string) (*Definition, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateDefinition(&definition); err != nil {
		return nil, err
	}

	return &definition, nil
}

func validateDefinition(definition *Definition) error {
	if definition.Name == "" {
		return fmt.Errorf("name is required")
	}
	if definition.Source.Identifier == "" {
		return fmt.Errorf("source identifier is required")
	}
	if _, ok := database.ParseSourceType(string(definition.Source.Type)); !ok {
		return fmt.Errorf("unknown source type '%s'", definition.Source.Type)
	}
	return nil
}

// register upserts a definition by name. An existing item keeps its id and
// check state; only the definition-owned fields are replaced.
func (l *Loader) register(definition Definition) error {
	enabled := true
	if definition.Enabled != nil {
		enabled = *definition.Enabled
	}

	existing, err := l.repo.GetByName(definition.Name)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		return l.repo.Insert(database.Software{
			ID:         uuid.New().String(),
			Name:       definition.Name,
			Source:     definition.Source,
			LocalProbe: definition.Local,
			Enabled:    enabled,
		})
	}

	existing.Source = definition.Source
	existing.LocalProbe = definition.Local
	existing.Enabled = enabled
	return l.repo.Update(*existing)
}
