package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/tilenav/internal/geo"
	"github.com/udisondev/tilenav/internal/planner"
	"github.com/udisondev/tilenav/internal/storage"
)

// Config holds the configuration shared by the builder and the planner.
type Config struct {
	LogLevel string `yaml:"log_level"`

	World   World   `yaml:"world"`
	Storage Storage `yaml:"storage"`
	Builder Builder `yaml:"builder"`
	Planner Planner `yaml:"planner"`
}

// World describes the map layout.
type World struct {
	Width     int32 `yaml:"width"`
	Height    int32 `yaml:"height"`
	ChunkSize int32 `yaml:"chunk_size"`
	Floors    int32 `yaml:"floors"`
}

// Geo converts the section into the geometry type used by the core packages.
func (w World) Geo() geo.World {
	return geo.World{Width: w.Width, Height: w.Height, ChunkSize: w.ChunkSize, Floors: w.Floors}
}

// Storage selects the chunk store.
type Storage struct {
	Backend  string         `yaml:"backend"` // "file" or "postgres"
	Dir      string         `yaml:"dir"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Builder configures the offline tile database build.
type Builder struct {
	Workers     int  `yaml:"workers"` // 0 = GOMAXPROCS
	Reset       bool `yaml:"reset"`
	MaxDistance int  `yaml:"max_distance"`
}

// Planner configures route queries.
type Planner struct {
	Radius int32 `yaml:"radius"`
}

// Default returns Config with sensible defaults.
func Default() Config {
	w := geo.DefaultWorld()
	return Config{
		LogLevel: "info",
		World: World{
			Width:     w.Width,
			Height:    w.Height,
			ChunkSize: w.ChunkSize,
			Floors:    w.Floors,
		},
		Storage: Storage{
			Backend: storage.BackendFile,
			Dir:     "MapData",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "tilenav",
				Password: "tilenav",
				DBName:   "tilenav",
				SSLMode:  "disable",
			},
		},
		Builder: Builder{
			Workers:     0,
			MaxDistance: 160,
		},
		Planner: Planner{
			Radius: 120,
		},
	}
}

// Validate checks values the core packages rely on.
func (c Config) Validate() error {
	if err := c.World.Geo().Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	switch c.Storage.Backend {
	case storage.BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage: dir is required for the file backend")
		}
	case storage.BackendPostgres:
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if c.Builder.MaxDistance < 0 || c.Builder.MaxDistance > planner.MaxTableDistance {
		return fmt.Errorf("builder: max_distance %d outside [0,%d]", c.Builder.MaxDistance, planner.MaxTableDistance)
	}
	if c.Builder.Workers < 0 {
		return fmt.Errorf("builder: workers must not be negative")
	}
	if c.Planner.Radius < 0 {
		return fmt.Errorf("planner: radius must not be negative")
	}
	return nil
}

// Load loads config from a YAML file and validates it.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}
