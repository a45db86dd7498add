package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-flocking/pkg/behavior"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnsupportedConfigFormat is returned by LoadConfig for files that are neither JSON nor TOML.
var ErrUnsupportedConfigFormat = errors.New("unsupported config format")

//go:embed config.schema.json
var configSchemaText string

var configSchema = jsonschema.MustCompileString("config.schema.json", configSchemaText)

type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	// Population
	Population int `json:"population"`
	// Seed drives population sampling, 0 picks a random seed.
	Seed uint64 `json:"seed"`

	// Engine
	Workers      int    `json:"workers"` // 0 = one per CPU
	Neighborhood string `json:"neighborhood"`
	Boundary     string `json:"boundary"`

	// Flocking rules, the initial values of the live parameter set
	Parameters behavior.ParameterSet `json:"parameters"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:   1000,
		WorldHeight:  800,
		Population:   100,
		Neighborhood: NeighborhoodGrid,
		Boundary:     string(behavior.BoundaryWrap),
		Parameters:   behavior.DefaultParameters(),
	}
}

// Bounds returns the world rectangle.
func (c *Config) Bounds() behavior.Bounds {
	return behavior.Bounds{Width: c.WorldWidth, Height: c.WorldHeight}
}

// LoadConfig loads configuration from a JSON or TOML file and validates it against the schema.
// Keys missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".json":
		return ParseConfig(b)
	case ".toml":
		var doc map[string]any
		if _, err := toml.Decode(string(b), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
		// TOML and JSON share one schema, so the document goes through JSON.
		asJSON, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert config toml: %w", err)
		}
		return ParseConfig(asJSON)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, configFile)
}

// ParseConfig validates a JSON document against the schema and merges it over DefaultConfig.
func ParseConfig(b []byte) (*Config, error) {
	// 1. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := configSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 2. Unmarshal into Struct
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Options translates the engine settings of c into Flock options.
func (c *Config) Options() ([]Option, error) {
	neighborhood, err := NewNeighborhood(c.Neighborhood)
	if err != nil {
		return nil, err
	}
	boundary, err := behavior.ParseBoundaryPolicy(c.Boundary)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithNeighborhood(neighborhood),
		WithBoundary(boundary),
		WithWorkers(c.Workers),
	}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	return opts, nil
}

// NewFlockFromConfig builds a flock from c and seeds its initial population.
// Extra options are applied after the ones derived from c.
func NewFlockFromConfig(c *Config, extra ...Option) (*Flock, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	f := NewFlock(append(opts, extra...)...)
	f.Reseed(c.Population, c.Bounds())
	return f, nil
}
