// Package config defines the closed set of configuration options this
// module recognises and a pure YAML loader/validator. Process bootstrap
// (flags, CLI surface, file watching) is left to the binary entrypoint;
// this package only reaches into the environment for the narrow case of
// a local `.env` overlay on DB/LLM secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv overlays a local .env file (if present) onto the process
// environment, then resolves the DB URL and LLM API key from it. It never
// errors when the file is absent: secrets may already be set by the
// surrounding deployment environment instead.
func LoadDotEnv(cfg *Config, paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	_ = godotenv.Load(paths...)

	if v := os.Getenv("DB_URL"); v != "" && cfg.DB.URL == "" {
		cfg.DB.URL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
}

// DB holds connection settings for the Domain Data Source's postgres
// adapter.
type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	URL      string `yaml:"url"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LLM holds the chat completion provider settings.
type LLM struct {
	Provider    string  `yaml:"provider"` // closed set: "openai-compatible"
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// Agent holds per-agent pipeline defaults.
type Agent struct {
	MaxPlanningAttempts int     `yaml:"max_planning_attempts"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Coordination holds coordination-workflow tunables.
type Coordination struct {
	ComplexityThreshold   float64        `yaml:"complexity_threshold"`
	ConfidenceThreshold   float64        `yaml:"confidence_threshold"`
	AutoApprovalCostLimit float64        `yaml:"auto_approval_cost_limit"`
	HumanResponseTimeout  time.Duration  `yaml:"human_response_timeout"`
	MonsoonMonths         []int          `yaml:"monsoon_months"`
	PriorityLevels        map[string]int `yaml:"priority_levels"`
	AutoApprove           bool           `yaml:"auto_approve"`
}

// Config is the umbrella object covering every recognised option.
type Config struct {
	DB           DB           `yaml:"db"`
	LLM          LLM          `yaml:"llm"`
	Agent        Agent        `yaml:"agent"`
	Coordination Coordination `yaml:"coordination"`
}

// Default returns a Config populated with the baseline defaults.
func Default() *Config {
	return &Config{
		LLM: LLM{
			Provider: "openai-compatible",
		},
		Agent: Agent{
			MaxPlanningAttempts: 3,
			ConfidenceThreshold: 0.7,
		},
		Coordination: Coordination{
			ComplexityThreshold:   0.6,
			ConfidenceThreshold:   0.7,
			AutoApprovalCostLimit: 5_000_000,
			HumanResponseTimeout:  15 * time.Minute,
			MonsoonMonths:         []int{6, 7, 8, 9},
			PriorityLevels: map[string]int{
				"routine":         1,
				"maintenance":     3,
				"expansion":       5,
				"safety_critical": 7,
				"public_health":   8,
				"emergency":       9,
			},
		},
	}
}

// Load parses YAML bytes onto Default() and validates the result.
func Load(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the closed set of recognised options for internal
// consistency. Fatal-at-startup by contract: callers should
// treat a non-nil error here as unrecoverable configuration, never as a
// per-request error.
func (c *Config) Validate() error {
	if c.LLM.Provider != "" && c.LLM.Provider != "openai-compatible" {
		return fmt.Errorf("config: unrecognised llm.provider %q (closed set: openai-compatible)", c.LLM.Provider)
	}
	if c.Agent.MaxPlanningAttempts < 1 {
		return fmt.Errorf("config: agent.max_planning_attempts must be >= 1, got %d", c.Agent.MaxPlanningAttempts)
	}
	if c.Agent.ConfidenceThreshold < 0 || c.Agent.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: agent.confidence_threshold must be in [0,1], got %v", c.Agent.ConfidenceThreshold)
	}
	if c.Coordination.ComplexityThreshold < 0 || c.Coordination.ComplexityThreshold > 1 {
		return fmt.Errorf("config: coordination.complexity_threshold must be in [0,1], got %v", c.Coordination.ComplexityThreshold)
	}
	if c.Coordination.ConfidenceThreshold < 0 || c.Coordination.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: coordination.confidence_threshold must be in [0,1], got %v", c.Coordination.ConfidenceThreshold)
	}
	if c.Coordination.AutoApprovalCostLimit < 0 {
		return fmt.Errorf("config: coordination.auto_approval_cost_limit must be >= 0")
	}
	for _, m := range c.Coordination.MonsoonMonths {
		if m < 1 || m > 12 {
			return fmt.Errorf("config: coordination.monsoon_months entry %d out of range [1,12]", m)
		}
	}
	return nil
}

// PriorityRank returns the configured ordinal for a priority label, or an
// error if the label is not in coordination.priority_levels. Used by the
// conflict detector and rule engine to compare priorities.
func (c *Config) PriorityRank(priority string) (int, error) {
	rank, ok := c.Coordination.PriorityLevels[priority]
	if !ok {
		return 0, fmt.Errorf("config: unrecognised priority %q", priority)
	}
	return rank, nil
}

// IsMonsoonMonth reports whether month (1-12) is configured as a monsoon
// month for the seasonal policy conflict check.
func (c *Config) IsMonsoonMonth(month int) bool {
	for _, m := range c.Coordination.MonsoonMonths {
		if m == month {
			return true
		}
	}
	return false
}
