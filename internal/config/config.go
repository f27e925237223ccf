// Package config resolves npygen's settings from defaults, JSONC config
// files and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-json"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/npygen/internal/fixture"
	"github.com/calvinalkan/npygen/internal/npy"
)

// Config errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data_dir cannot be empty")
	ErrLedgerEmpty        = errors.New("ledger cannot be empty")
	ErrNoShapes           = errors.New("shapes cannot be empty")
	ErrNoDTypes           = errors.New("dtypes cannot be empty")
	ErrDuplicateShape     = errors.New("duplicate shape")
	ErrDuplicateDType     = errors.New("duplicate dtype")
)

// FileName is the project config file looked up in the working directory.
const FileName = ".npygen.json"

// Config holds all configuration options.
type Config struct {
	DataDir string          `json:"data_dir"`
	Ledger  string          `json:"ledger"`
	Shapes  []fixture.Shape `json:"shapes"`
	DTypes  []npy.DType     `json:"dtypes"`
	Seed    uint64          `json:"seed"`

	// Resolved (not serialized)
	EffectiveCwd string  `json:"-"` // Absolute working directory (from -C or os.Getwd)
	LedgerAbs    string  `json:"-"` // Absolute path of the ledger file
	Sources      Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // global config path if loaded
	Project string // project or explicit config path if loaded
}

// Default returns the built-in configuration: the four fixture shapes
// crossed with every supported dtype.
func Default() Config {
	return Config{
		DataDir: fixture.DefaultDataDir,
		Ledger:  "records.json",
		Shapes: []fixture.Shape{
			{10},
			{65, 65},
			{100, 100, 100},
			{4, 4, 4, 4, 4},
		},
		DTypes: npy.DTypes(),
	}
}

// Pairs returns the configured shape x dtype cross product.
func (c Config) Pairs() []fixture.Pair {
	return fixture.Pairs(c.Shapes, c.DTypes)
}

// LockPath is the advisory lock file guarding the ledger.
func (c Config) LockPath() string {
	return c.LedgerAbs + ".lock"
}

// Input holds the inputs for [Load].
type Input struct {
	WorkDirOverride string            // -C/--cwd; os.Getwd() if empty
	ConfigPath      string            // -c/--config
	DataDir         string            // --data-dir; empty means no override
	Ledger          string            // --ledger; empty means no override
	Seed            *uint64           // --seed; nil means no override
	Env             map[string]string // environment variables
}

// fileConfig is the on-disk shape of a config file. Pointer fields tell
// "absent" apart from "explicitly empty".
type fileConfig struct {
	DataDir *string         `json:"data_dir"`
	Ledger  *string         `json:"ledger"`
	Shapes  []fixture.Shape `json:"shapes"`
	DTypes  []string        `json:"dtypes"`
	Seed    *uint64         `json:"seed"`

	dtypes []npy.DType
}

// Load resolves configuration with the following precedence (highest wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/npygen/config.json or
//     ~/.config/npygen/config.json)
//  3. Project config file (.npygen.json in the working directory), or the
//     explicit -c file which must exist
//  4. CLI overrides
func Load(input Input) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolving working directory: %w", err)
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		fc, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, fc)
			cfg.Sources.Global = path
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false

	if input.ConfigPath != "" {
		projectPath, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}

	fc, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = merge(cfg, fc)
		cfg.Sources.Project = projectPath
	}

	if input.DataDir != "" {
		cfg.DataDir = input.DataDir
	}

	if input.Ledger != "" {
		cfg.Ledger = input.Ledger
	}

	if input.Seed != nil {
		cfg.Seed = *input.Seed
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	cfg.LedgerAbs = cfg.Ledger
	if !filepath.IsAbs(cfg.LedgerAbs) {
		cfg.LedgerAbs = filepath.Join(workDir, cfg.Ledger)
	}

	return cfg, nil
}

// globalPath returns the global config path, or "" if neither
// XDG_CONFIG_HOME nor HOME is set.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "npygen", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "npygen", "config.json")
	}

	return ""
}

// loadFile reads and parses a config file. A missing optional file is not
// an error and reports loaded=false.
func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return fileConfig{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return fileConfig{}, false, nil
		}

		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigFileRead, path, err)
	}

	fc, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return fc, true, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig

	err = json.Unmarshal(standardized, &fc)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if fc.DataDir != nil && *fc.DataDir == "" {
		return fileConfig{}, ErrDataDirEmpty
	}

	if fc.Ledger != nil && *fc.Ledger == "" {
		return fileConfig{}, ErrLedgerEmpty
	}

	if fc.Shapes != nil && len(fc.Shapes) == 0 {
		return fileConfig{}, ErrNoShapes
	}

	if fc.DTypes != nil {
		if len(fc.DTypes) == 0 {
			return fileConfig{}, ErrNoDTypes
		}

		fc.dtypes, err = parseDTypes(fc.DTypes)
		if err != nil {
			return fileConfig{}, err
		}
	}

	return fc, nil
}

func parseDTypes(names []string) ([]npy.DType, error) {
	out := make([]npy.DType, 0, len(names))

	for _, name := range names {
		d, err := npy.ParseDType(name)
		if err != nil {
			return nil, err
		}

		out = append(out, d)
	}

	return out, nil
}

func merge(base Config, overlay fileConfig) Config {
	if overlay.DataDir != nil {
		base.DataDir = *overlay.DataDir
	}

	if overlay.Ledger != nil {
		base.Ledger = *overlay.Ledger
	}

	if overlay.Shapes != nil {
		base.Shapes = overlay.Shapes
	}

	if overlay.dtypes != nil {
		base.DTypes = overlay.dtypes
	}

	if overlay.Seed != nil {
		base.Seed = *overlay.Seed
	}

	return base
}

// Validate checks the resolved settings.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}

	if c.Ledger == "" {
		return ErrLedgerEmpty
	}

	if len(c.Shapes) == 0 {
		return ErrNoShapes
	}

	if len(c.DTypes) == 0 {
		return ErrNoDTypes
	}

	seen := make([]fixture.Shape, 0, len(c.Shapes))

	for _, s := range c.Shapes {
		err := s.Validate()
		if err != nil {
			return err
		}

		if slices.ContainsFunc(seen, func(o fixture.Shape) bool { return slices.Equal(o, s) }) {
			return fmt.Errorf("%w: %s", ErrDuplicateShape, s)
		}

		seen = append(seen, s)
	}

	for i, d := range c.DTypes {
		if !d.Valid() {
			return fmt.Errorf("%w: %d", npy.ErrUnknownDType, int(d))
		}

		if slices.Contains(c.DTypes[:i], d) {
			return fmt.Errorf("%w: %s", ErrDuplicateDType, d)
		}
	}

	return nil
}

// Format renders the serialized settings as indented JSON.
func Format(c Config) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}
