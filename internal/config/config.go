// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"fleetwatch/internal/schedule"
)

// ComponentIDPattern constrains component identifiers everywhere they
// enter the system (config and heartbeat ingestion alike).
var ComponentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Database   DatabaseConfig    `yaml:"database"`
	Monitoring MonitoringConfig  `yaml:"monitoring"`
	Prometheus PrometheusConfig  `yaml:"prometheus"`
	Logging    LoggingConfig     `yaml:"logging"`
	Alerting   AlertingConfig    `yaml:"alerting"`
	Components []ComponentConfig `yaml:"components"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Type           string        `yaml:"type"` // bolt or memory
	Path           string        `yaml:"path"`
	HeartbeatTTL   time.Duration `yaml:"heartbeat_ttl"`
	PurgeInterval  time.Duration `yaml:"purge_interval"`
	AlertRetention time.Duration `yaml:"alert_retention"`
}

type MonitoringConfig struct {
	// TickInterval drives the file-freshness and level-compliance
	// evaluators; each runs on its own ticker.
	TickInterval time.Duration `yaml:"tick_interval"`
	// HeartbeatInterval is the nominal signal cadence used to classify
	// heartbeat staleness (healthy within 1x, warning within 2x).
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// BroadcastInterval drives websocket fleet snapshots and metric refresh.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

type PrometheusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AlertingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

type ComponentConfig struct {
	ID            string        `yaml:"id"`
	DisplayName   string        `yaml:"display_name"`
	Files         []FileSpec    `yaml:"files"`
	LevelSchedule LevelSchedule `yaml:"level_schedule"`
}

// FileSpec declares one monitored file and when updates are due.
type FileSpec struct {
	Path               string `yaml:"path"`
	Role               string `yaml:"role"` // input or output
	ExpectedUpdateRule string `yaml:"expected_update_rule"`
	GracePeriodSeconds int    `yaml:"grace_period_seconds"`
}

func (f FileSpec) Grace() time.Duration {
	return time.Duration(f.GracePeriodSeconds) * time.Second
}

// LevelSchedule declares the expected capability level over the day.
// Compiled is populated during Load; evaluators only read Compiled.
type LevelSchedule struct {
	Rules         []LevelRuleConfig `yaml:"rules"`
	FallbackLevel int               `yaml:"fallback_level"`
	Compiled      []schedule.Rule   `yaml:"-"`
}

// Enabled reports whether this component participates in level checks.
func (ls LevelSchedule) Enabled() bool {
	return len(ls.Rules) > 0 || ls.FallbackLevel > 0
}

type LevelRuleConfig struct {
	StartTime     string `yaml:"start_time"` // "HH:MM"
	EndTime       string `yaml:"end_time"`   // "HH:MM"
	ExpectedLevel int    `yaml:"expected_level"`
	Name          string `yaml:"name"`
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(config *Config) {
	if config.Server.Port == "" {
		config.Server.Port = ":8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 10 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 10 * time.Second
	}

	if config.Database.Type == "" {
		config.Database.Type = "bolt"
	}
	if config.Database.Path == "" {
		config.Database.Path = "data/fleetwatch.db"
	}
	if config.Database.HeartbeatTTL == 0 {
		config.Database.HeartbeatTTL = 300 * time.Second
	}
	if config.Database.PurgeInterval == 0 {
		config.Database.PurgeInterval = time.Minute
	}
	if config.Database.AlertRetention == 0 {
		config.Database.AlertRetention = 7 * 24 * time.Hour
	}

	if config.Monitoring.TickInterval == 0 {
		config.Monitoring.TickInterval = time.Minute
	}
	if config.Monitoring.HeartbeatInterval == 0 {
		config.Monitoring.HeartbeatInterval = 30 * time.Second
	}
	if config.Monitoring.BroadcastInterval == 0 {
		config.Monitoring.BroadcastInterval = 30 * time.Second
	}

	if config.Prometheus.MetricsPath == "" {
		config.Prometheus.MetricsPath = "/metrics"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// validate rejects broken component declarations at load time. A cron
// expression or clock that fails here must never reach an evaluator.
func validate(config *Config) error {
	if config.Database.Type != "bolt" && config.Database.Type != "memory" {
		return fmt.Errorf("database type %q not supported", config.Database.Type)
	}

	seen := make(map[string]bool)
	for i := range config.Components {
		comp := &config.Components[i]

		if comp.ID == "" {
			return fmt.Errorf("component %d: missing id", i)
		}
		if !ComponentIDPattern.MatchString(comp.ID) {
			return fmt.Errorf("component %q: id must match %s", comp.ID, ComponentIDPattern)
		}
		if seen[comp.ID] {
			return fmt.Errorf("component %q: duplicate id", comp.ID)
		}
		seen[comp.ID] = true

		for j, f := range comp.Files {
			if f.Path == "" {
				return fmt.Errorf("component %q file %d: missing path", comp.ID, j)
			}
			if f.Role != "input" && f.Role != "output" {
				return fmt.Errorf("component %q file %q: role must be input or output", comp.ID, f.Path)
			}
			if !schedule.ValidExpr(f.ExpectedUpdateRule) {
				return fmt.Errorf("component %q file %q: invalid cron expression %q", comp.ID, f.Path, f.ExpectedUpdateRule)
			}
			if f.GracePeriodSeconds < 0 {
				return fmt.Errorf("component %q file %q: negative grace period", comp.ID, f.Path)
			}
		}

		if comp.LevelSchedule.Enabled() {
			if comp.LevelSchedule.FallbackLevel < 1 || comp.LevelSchedule.FallbackLevel > 4 {
				return fmt.Errorf("component %q: fallback level must be in [1,4]", comp.ID)
			}
			compiled, err := compileRules(comp.LevelSchedule.Rules)
			if err != nil {
				return fmt.Errorf("component %q: %w", comp.ID, err)
			}
			comp.LevelSchedule.Compiled = compiled
		}
	}

	return nil
}

func compileRules(rules []LevelRuleConfig) ([]schedule.Rule, error) {
	compiled := make([]schedule.Rule, 0, len(rules))
	for i, r := range rules {
		if r.ExpectedLevel < 1 || r.ExpectedLevel > 4 {
			return nil, fmt.Errorf("rule %d: expected level must be in [1,4]", i)
		}
		start, err := schedule.ParseClock(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		end, err := schedule.ParseClock(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		compiled = append(compiled, schedule.Rule{
			Name:  r.Name,
			Start: start,
			End:   end,
			Level: r.ExpectedLevel,
		})
	}
	return compiled, nil
}
