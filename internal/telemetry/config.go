package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	// Welcome is displayed the first time the telemetry config is created.
	Welcome = `Thanks for using relctl!
Anonymous usage reporting is currently enabled. Set DO_NOT_TRACK to disable it.`
)

// ConfigFile is the analytics config location, relative to the user's home directory.
var ConfigFile = filepath.Join(".relctl", "analytics.yml")

// UUID is a wrapper around uuid.UUID so that we can implement the yaml interfaces.
type UUID uuid.UUID

// NewUUID returns a new randomized UUID.
func NewUUID() UUID {
	return UUID(uuid.New())
}

// String returns a string representation of this UUID.
func (u UUID) String() string {
	return u.toUUID().String()
}

func (u *UUID) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("could not unmarshal yaml: %w", err)
	}

	parsed, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("could not parse uuid (%s): %w", s, err)
	}

	*u = UUID(parsed)
	return nil
}

func (u UUID) MarshalYAML() (any, error) {
	return u.toUUID().String(), nil
}

// IsZero implements the yaml interface, used to treat a uuid.Nil as empty for yaml purposes
func (u UUID) IsZero() bool {
	return u.String() == uuid.Nil.String()
}

// toUUID converts the telemetry.UUID type back to the underlying uuid.UUID type
func (u UUID) toUUID() uuid.UUID {
	return uuid.UUID(u)
}

// Config represents the analytics state persisted between runs.
type Config struct {
	AnalyticsID UUID `yaml:"anonymous_user_id"`
}

func loadConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return cfg, nil
}

func writeConfigToFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unable to create directory %s: %w", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write config to %s: %w", path, err)
	}

	return nil
}
