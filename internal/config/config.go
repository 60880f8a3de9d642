package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Solver backends
const (
	BackendBranchBound = "branchbound"
	BackendCBC         = "cbc"
)

// ErrConfigNotFound is returned when no config file exists in the search paths
var ErrConfigNotFound = errors.New("config file not found in current directory or home directory")

// CapacitiesConfig defines the round structure of a selection cycle
type CapacitiesConfig struct {
	Rounds          int `yaml:"rounds" validate:"min=1"`
	RoundsPerMember int `yaml:"roundsPerMember" validate:"min=1,ltefield=Rounds"`
	MembersPerRound int `yaml:"membersPerRound" validate:"min=1"`
}

// SolverConfig selects and tunes the MIP backend
type SolverConfig struct {
	Backend   string        `yaml:"backend" validate:"oneof=branchbound cbc"`
	CBCPath   string        `yaml:"cbcPath,omitempty"`
	TimeLimit time.Duration `yaml:"timeLimit,omitempty" validate:"min=0"`
	Threads   int           `yaml:"threads,omitempty" validate:"min=0"`
	NodeLimit int           `yaml:"nodeLimit,omitempty" validate:"min=0"`
}

// SheetsConfig points at Google Sheets used as preference source and selection destination
type SheetsConfig struct {
	PreferencesSheetID string `yaml:"preferencesSheetID,omitempty"`
	PreferencesTab     string `yaml:"preferencesTab,omitempty" validate:"required_with=PreferencesSheetID"`
	SelectionSheetID   string `yaml:"selectionSheetID,omitempty"`
}

// Config represents the application configuration
type Config struct {
	InputFile        string           `yaml:"inputFile" validate:"required"`
	OutputFile       string           `yaml:"outputFile" validate:"required"`
	IdentifierColumn string           `yaml:"identifierColumn" validate:"required"`
	FirstNameColumn  string           `yaml:"firstNameColumn,omitempty"`
	LastNameColumn   string           `yaml:"lastNameColumn,omitempty"`
	Capacities       CapacitiesConfig `yaml:"capacities"`
	Solver           SolverConfig     `yaml:"solver"`

	// RoundSchedule is an RRULE (with DTSTART) giving the date of each round
	RoundSchedule string `yaml:"roundSchedule,omitempty"`

	Sheets      *SheetsConfig `yaml:"sheets,omitempty"`
	DatabaseURL string        `yaml:"databaseURL,omitempty" validate:"omitempty,url"`
	MetricsFile string        `yaml:"metricsFile,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Defaults returns the configuration used when no config file is present
func Defaults() *Config {
	return &Config{
		InputFile:        "preferences.csv",
		OutputFile:       filepath.Join("output", "selection.csv"),
		IdentifierColumn: "Name",
		FirstNameColumn:  "First Name",
		LastNameColumn:   "Last Name",
		Capacities: CapacitiesConfig{
			Rounds:          6,
			RoundsPerMember: 3,
			MembersPerRound: 5,
		},
		Solver: SolverConfig{
			Backend: BackendBranchBound,
		},
	}
}

// LoadWithEnv loads lapatos_config.<env>.yaml, falling back to lapatos_config.yaml.
// Returns ErrConfigNotFound (wrapped) when neither exists.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Fields absent from the file keep their Defaults() value.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct and checks the round schedule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.RoundSchedule != "" {
		if _, err := rrule.StrToRRule(cfg.RoundSchedule); err != nil {
			return fmt.Errorf("invalid rrule in roundSchedule: %w", err)
		}
	}

	if cfg.Sheets != nil && cfg.Sheets.PreferencesSheetID == "" && cfg.Sheets.SelectionSheetID == "" {
		return fmt.Errorf("config validation failed: sheets section needs preferencesSheetID or selectionSheetID")
	}

	return nil
}

// findConfigFile locates lapatos_config.<env>.yaml or lapatos_config.yaml
func findConfigFile(env string) (string, error) {
	return findFile("lapatos_config", ".yaml", env, ErrConfigNotFound)
}

// findFile searches the current directory, then the home directory, for
// <base>.<env><ext> and then <base><ext>. The env-specific file wins over the
// plain one in each location. notFound is returned when nothing matches.
func findFile(base, ext, env string, notFound error) (string, error) {
	names := []string{base + ext}
	if env != "" {
		names = append([]string{base + "." + env + ext}, names...)
	}

	dirs := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, homeDir)
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", notFound
}
