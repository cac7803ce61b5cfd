package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/calderhart/instructor-rota/pkg/core/engine"
)

// WeightOverrides optionally replaces individual scorer weights. Absent keys
// keep their defaults; zero is a valid override (switches the scorer off).
type WeightOverrides map[string]float64

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`

	// TraineeMaxDistanceKM caps trainee travel regardless of their own
	// declared limit.
	TraineeMaxDistanceKM float64 `yaml:"traineeMaxDistanceKM" validate:"gt=0"`

	// AssignmentLookbackMonths is the window for the fairness statistic
	AssignmentLookbackMonths int `yaml:"assignmentLookbackMonths" validate:"min=1"`

	// RejectionLookbackMonths is the window for the rejection statistic
	RejectionLookbackMonths int `yaml:"rejectionLookbackMonths" validate:"min=1"`

	// PenaltyDays extends a candidate's penalty expiry on each rejection
	PenaltyDays int `yaml:"penaltyDays" validate:"min=1"`

	// HeadcountDivisor derives required instructors from a slot's participant
	// count when the slot does not state a headcount directly.
	HeadcountDivisor int `yaml:"headcountDivisor" validate:"min=1"`

	// OverlapSlackThreshold marks bundle-shared dates as contended below this
	// slack during risk ranking.
	OverlapSlackThreshold int `yaml:"overlapSlackThreshold,omitempty" validate:"omitempty,min=1"`

	// Weights overrides individual scorer weights by name (continuity,
	// fullPeriod, priorityCredit, fairness, teamMatch, distance,
	// applicationVolume, teamDiversity, rejectionPenalty, opportunityCost).
	Weights WeightOverrides `yaml:"weights,omitempty"`

	// BlackoutRules are RRULE expressions for organization-wide dates with no
	// training; slots on those dates are excluded from matching without
	// breaking continuity.
	BlackoutRules []string `yaml:"blackoutRules,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from instructor_rota_config.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, weight names, and rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for name := range cfg.Weights {
		if _, ok := weightSetters[name]; !ok {
			return fmt.Errorf("unknown scorer weight %q in config", name)
		}
	}

	for i, rule := range cfg.BlackoutRules {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in blackoutRules[%d]: %w", i, err)
		}
	}

	return nil
}

var weightSetters = map[string]func(*engine.Weights, float64){
	"continuity":        func(w *engine.Weights, v float64) { w.Continuity = v },
	"fullPeriod":        func(w *engine.Weights, v float64) { w.FullPeriod = v },
	"priorityCredit":    func(w *engine.Weights, v float64) { w.PriorityCredit = v },
	"fairness":          func(w *engine.Weights, v float64) { w.Fairness = v },
	"teamMatch":         func(w *engine.Weights, v float64) { w.TeamMatch = v },
	"distance":          func(w *engine.Weights, v float64) { w.Distance = v },
	"applicationVolume": func(w *engine.Weights, v float64) { w.ApplicationVolume = v },
	"teamDiversity":     func(w *engine.Weights, v float64) { w.TeamDiversity = v },
	"rejectionPenalty":  func(w *engine.Weights, v float64) { w.RejectionPenalty = v },
	"opportunityCost":   func(w *engine.Weights, v float64) { w.OpportunityCost = v },
}

// EngineWeights returns the default weight set with config overrides applied
func (c *Config) EngineWeights() engine.Weights {
	w := engine.DefaultWeights()
	for name, value := range c.Weights {
		if set, ok := weightSetters[name]; ok {
			set(&w, value)
		}
	}
	return w
}

// BlackoutDates expands the configured blackout rules into the ISO dates
// falling inside [from, to] inclusive.
func (c *Config) BlackoutDates(from, to string) (map[string]bool, error) {
	dates := make(map[string]bool)
	if len(c.BlackoutRules) == 0 {
		return dates, nil
	}

	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("invalid window start %q: %w", from, err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("invalid window end %q: %w", to, err)
	}

	for i, rule := range c.BlackoutRules {
		r, err := rrule.StrToRRule(rule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in blackoutRules[%d]: %w", i, err)
		}
		for _, t := range r.Between(start, end.Add(24*time.Hour-time.Second), true) {
			dates[t.Format("2006-01-02")] = true
		}
	}
	return dates, nil
}

// findConfigFile searches for instructor_rota_config.yaml in the current
// directory and the home directory.
func findConfigFile() (string, error) {
	configFileName := "instructor_rota_config.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
