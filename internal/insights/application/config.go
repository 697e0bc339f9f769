package application

import (
	"os"
	"strconv"

	insights "github.com/charlesfaubert44-wq/furnacelog-sub001/internal/insights/domain"
	"gopkg.in/yaml.v3"
)

// Config defines insights configuration. A YAML file pointed at by
// INSIGHTS_CONFIG overrides the defaults; individual env vars fill any
// values the file leaves unset.
type Config struct {
	Patterns    insights.PatternConfig     `yaml:"patterns"`
	Correlation insights.CorrelationConfig `yaml:"correlation"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		Patterns:    insights.DefaultPatternConfig(),
		Correlation: insights.DefaultCorrelationConfig(),
	}

	if path := os.Getenv("INSIGHTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Patterns.MinOccurrences <= 0 {
		cfg.Patterns.MinOccurrences = getenvIntDefault("INSIGHTS_MIN_OCCURRENCES", insights.DefaultPatternConfig().MinOccurrences)
	}
	if cfg.Correlation.LookbackDays <= 0 {
		cfg.Correlation.LookbackDays = getenvIntDefault("INSIGHTS_LOOKBACK_DAYS", insights.DefaultCorrelationConfig().LookbackDays)
	}
	if cfg.Correlation.MinSeverity <= 0 {
		cfg.Correlation.MinSeverity = getenvIntDefault("INSIGHTS_COLD_MIN_SEVERITY", insights.DefaultCorrelationConfig().MinSeverity)
	}
	cfg.Patterns = cfg.Patterns.Normalize()
	cfg.Correlation = cfg.Correlation.Normalize()
	return cfg, nil
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
