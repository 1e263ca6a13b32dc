// Package config loads netview settings from YAML, TOML or INI files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-netview/pkg/anim"
	"github.com/dd0wney/cluso-netview/pkg/evolve"
	"github.com/dd0wney/cluso-netview/pkg/layout"
	"github.com/dd0wney/cluso-netview/pkg/logging"
	"github.com/dd0wney/cluso-netview/pkg/scene"
	"github.com/dd0wney/cluso-netview/pkg/validation"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid configuration")
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config holds netview configuration.
type Config struct {
	View     ViewConfig     `yaml:"view" toml:"view"`
	Layout   LayoutConfig   `yaml:"layout" toml:"layout"`
	Evolve   evolve.Config  `yaml:"evolve" toml:"evolve"`
	Producer ProducerConfig `yaml:"producer" toml:"producer"`
	Serve    ServeConfig    `yaml:"serve" toml:"serve"`
	Render   RenderConfig   `yaml:"render" toml:"render"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// ViewConfig controls the animation and node spawning.
type ViewConfig struct {
	Interval   time.Duration `yaml:"interval" toml:"interval" ini:"interval" validate:"gt=0"`
	NodeRadius float64       `yaml:"node_radius" toml:"node_radius" ini:"node_radius" validate:"gt=0"`
	Placement  string        `yaml:"placement" toml:"placement" ini:"placement"`
	Seed       int64         `yaml:"seed" toml:"seed" ini:"seed"`
}

// LayoutConfig mirrors layout.Config with a named falloff.
type LayoutConfig struct {
	Repulsion          float64 `yaml:"repulsion" toml:"repulsion" ini:"repulsion" validate:"gte=0"`
	Attraction         float64 `yaml:"attraction" toml:"attraction" ini:"attraction" validate:"gte=0"`
	WeightedAttraction bool    `yaml:"weighted_attraction" toml:"weighted_attraction" ini:"weighted_attraction"`
	Falloff            string  `yaml:"falloff" toml:"falloff" ini:"falloff" validate:"oneof=inverse inverse-square gaussian"`
	Sigma              float64 `yaml:"sigma" toml:"sigma" ini:"sigma" validate:"gte=0"`
	Margin             float64 `yaml:"margin" toml:"margin" ini:"margin"`
	DefaultExtent      float64 `yaml:"default_extent" toml:"default_extent" ini:"default_extent" validate:"gt=0"`
	MaxStep            float64 `yaml:"max_step" toml:"max_step" ini:"max_step" validate:"gte=0"`
	ParallelThreshold  int     `yaml:"parallel_threshold" toml:"parallel_threshold" ini:"parallel_threshold" validate:"gte=0"`
	Workers            int     `yaml:"workers" toml:"workers" ini:"workers" validate:"gte=1"`
}

// ProducerConfig controls the demo network producer.
type ProducerConfig struct {
	Rate time.Duration `yaml:"rate" toml:"rate" ini:"rate" validate:"gt=0"`
}

// ServeConfig controls the HTTP server.
type ServeConfig struct {
	Addr string `yaml:"addr" toml:"addr" ini:"addr" validate:"required,hostname_port"`
}

// RenderConfig controls headless SVG output.
type RenderConfig struct {
	Width  int `yaml:"width" toml:"width" ini:"width" validate:"gte=16"`
	Height int `yaml:"height" toml:"height" ini:"height" validate:"gte=16"`
	Ticks  int `yaml:"ticks" toml:"ticks" ini:"ticks" validate:"gte=0"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" toml:"level" ini:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// Default returns the default configuration.
func Default() *Config {
	l := layout.DefaultConfig()
	return &Config{
		View: ViewConfig{
			Interval:   anim.DefaultInterval,
			NodeRadius: scene.DefaultNodeRadius,
			Placement:  layout.PlacementRandom,
			Seed:       1,
		},
		Layout: LayoutConfig{
			Repulsion:         l.Repulsion,
			Attraction:        l.Attraction,
			Falloff:           layout.FalloffInverse,
			Margin:            l.Margin,
			DefaultExtent:     l.DefaultExtent,
			MaxStep:           l.MaxStep,
			ParallelThreshold: l.ParallelThreshold,
			Workers:           l.Workers,
		},
		Evolve:   evolve.DefaultConfig(),
		Producer: ProducerConfig{Rate: evolve.DefaultRate},
		Serve:    ServeConfig{Addr: "localhost:8080"},
		Render:   RenderConfig{Width: 800, Height: 600, Ticks: 200},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml, .toml or .ini/.cfg. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".ini", ".cfg":
		err = loadINI(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadINI maps one section per sub-config. Missing sections keep defaults.
func loadINI(data []byte, cfg *Config) error {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, data)
	if err != nil {
		return err
	}

	sections := []struct {
		name string
		dst  any
	}{
		{"view", &cfg.View},
		{"layout", &cfg.Layout},
		{"evolve", &cfg.Evolve},
		{"producer", &cfg.Producer},
		{"serve", &cfg.Serve},
		{"render", &cfg.Render},
		{"log", &cfg.Log},
	}
	for _, s := range sections {
		if !f.HasSection(s.name) {
			continue
		}
		if err := f.Section(s.name).MapTo(s.dst); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}
	return nil
}

// Validate checks struct tags first, then the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cv := validation.NewConfigValidator("config").
		OneOf("view.placement", c.View.Placement,
			layout.PlacementRandom, layout.PlacementNoise, layout.PlacementSpiral).
		RangeDuration("view.interval", c.View.Interval, time.Millisecond, time.Minute).
		Custom("layout.falloff", func() error {
			_, err := layout.ParseFalloff(c.Layout.Falloff, c.Layout.Sigma)
			return err
		}).
		When(c.Layout.Repulsion > 0, func(v *validation.ConfigValidator) {
			// Repulsion alone has no equilibrium.
			v.Positive("layout.attraction", c.Layout.Attraction)
		}).
		Greater("layout.margin", c.Layout.Margin, 1).
		// A lone node must fit inside the fallback extent.
		Greater("layout.default_extent", c.Layout.DefaultExtent, c.View.NodeRadius).
		When(c.Layout.ParallelThreshold > 0, func(v *validation.ConfigValidator) {
			v.MinInt("layout.parallel_threshold", c.Layout.ParallelThreshold, c.Layout.Workers)
		})
	if cv.HasErrors() {
		return fmt.Errorf("%w: %d invalid settings: %w", ErrInvalid, len(cv.Errors()), cv.Validate())
	}
	return nil
}

// LayoutConfig builds the engine configuration. The integration step is the
// view interval.
func (c *Config) LayoutConfig() (layout.Config, error) {
	falloff, err := layout.ParseFalloff(c.Layout.Falloff, c.Layout.Sigma)
	if err != nil {
		return layout.Config{}, err
	}
	return layout.Config{
		Step:               c.View.Interval,
		Repulsion:          c.Layout.Repulsion,
		Attraction:         c.Layout.Attraction,
		WeightedAttraction: c.Layout.WeightedAttraction,
		Falloff:            falloff,
		Margin:             c.Layout.Margin,
		DefaultExtent:      c.Layout.DefaultExtent,
		MaxStep:            c.Layout.MaxStep,
		ParallelThreshold:  c.Layout.ParallelThreshold,
		Workers:            c.Layout.Workers,
	}, nil
}

// SceneOptions builds the scene options with the configured placement.
func (c *Config) SceneOptions(logger logging.Logger) scene.Options {
	return scene.Options{
		Placement:  layout.NewPlacement(c.View.Placement, c.View.NodeRadius, c.View.Seed),
		NodeRadius: c.View.NodeRadius,
		Logger:     logger,
	}
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}
