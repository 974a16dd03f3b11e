// Package config resolves the tool configuration from three layers: built-in
// defaults, an optional YAML file, and environment variables. Resolution is a pure
// merge into a fresh Config; no layer is mutated in place and later layers win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPRThresholdDays    = 3
	DefaultIssueThresholdDays = 7
	DefaultVelocityWindowDays = 7
)

// Config is the fully resolved configuration for one run.
type Config struct {
	GitHub   GitHub   `yaml:"github"`
	Tracker  Tracker  `yaml:"jira"`
	Blockers Blockers `yaml:"blockers"`
	Velocity Velocity `yaml:"velocity"`
}

type GitHub struct {
	Token string   `yaml:"token"`
	Org   string   `yaml:"org"`
	Repos []string `yaml:"repos"`
}

type Tracker struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	ProjectKey string `yaml:"project_key"`
	Email      string `yaml:"email"`
	APIToken   string `yaml:"api_token"`
}

type Blockers struct {
	PRThresholdDays    int `yaml:"pr_threshold_days"`
	IssueThresholdDays int `yaml:"issue_threshold_days"`
}

type Velocity struct {
	WindowDays int `yaml:"window_days"`
}

// LookupEnv matches os.LookupEnv so tests can inject their own environment.
type LookupEnv func(key string) (string, bool)

// Defaults returns a fresh default configuration.
func Defaults() Config {
	return Config{
		Blockers: Blockers{
			PRThresholdDays:    DefaultPRThresholdDays,
			IssueThresholdDays: DefaultIssueThresholdDays,
		},
		Velocity: Velocity{WindowDays: DefaultVelocityWindowDays},
	}
}

// Load reads the optional YAML file at path and resolves it against defaults and the
// environment. A missing file is not an error; a malformed one is.
func Load(path string, lookupEnv LookupEnv) (Config, error) {
	var file *Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err == nil {
			var parsed Config
			// Unknown keys are ignored by design; only known fields are decoded.
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			file = &parsed
		}
	}
	return Resolve(file, lookupEnv), nil
}

// Resolve merges defaults, the file layer and the environment layer into one Config.
func Resolve(file *Config, lookupEnv LookupEnv) Config {
	cfg := Defaults()
	applyFile(&cfg, file)
	applyEnv(&cfg, lookupEnv)

	if cfg.Blockers.PRThresholdDays < 1 {
		cfg.Blockers.PRThresholdDays = DefaultPRThresholdDays
	}
	if cfg.Blockers.IssueThresholdDays < 1 {
		cfg.Blockers.IssueThresholdDays = DefaultIssueThresholdDays
	}
	if cfg.Velocity.WindowDays < 1 {
		cfg.Velocity.WindowDays = DefaultVelocityWindowDays
	}
	return cfg
}

func applyFile(cfg *Config, file *Config) {
	if file == nil {
		return
	}
	if file.GitHub.Token != "" {
		cfg.GitHub.Token = file.GitHub.Token
	}
	if file.GitHub.Org != "" {
		cfg.GitHub.Org = file.GitHub.Org
	}
	if len(file.GitHub.Repos) > 0 {
		cfg.GitHub.Repos = append([]string(nil), file.GitHub.Repos...)
	}
	if file.Tracker.Enabled {
		cfg.Tracker.Enabled = true
	}
	if file.Tracker.URL != "" {
		cfg.Tracker.URL = file.Tracker.URL
	}
	if file.Tracker.ProjectKey != "" {
		cfg.Tracker.ProjectKey = file.Tracker.ProjectKey
	}
	if file.Tracker.Email != "" {
		cfg.Tracker.Email = file.Tracker.Email
	}
	if file.Tracker.APIToken != "" {
		cfg.Tracker.APIToken = file.Tracker.APIToken
	}
	if file.Blockers.PRThresholdDays > 0 {
		cfg.Blockers.PRThresholdDays = file.Blockers.PRThresholdDays
	}
	if file.Blockers.IssueThresholdDays > 0 {
		cfg.Blockers.IssueThresholdDays = file.Blockers.IssueThresholdDays
	}
	if file.Velocity.WindowDays > 0 {
		cfg.Velocity.WindowDays = file.Velocity.WindowDays
	}
}

func applyEnv(cfg *Config, lookupEnv LookupEnv) {
	if lookupEnv == nil {
		return
	}
	setString := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := lookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("GITHUB_TOKEN", &cfg.GitHub.Token)
	setString("GITHUB_ORG", &cfg.GitHub.Org)
	if v, ok := lookupEnv("GITHUB_REPOS"); ok && v != "" {
		var repos []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				repos = append(repos, r)
			}
		}
		if len(repos) > 0 {
			cfg.GitHub.Repos = repos
		}
	}

	if v, ok := lookupEnv("JIRA_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tracker.Enabled = b
		}
	}
	setString("JIRA_URL", &cfg.Tracker.URL)
	setString("JIRA_PROJECT_KEY", &cfg.Tracker.ProjectKey)
	setString("JIRA_EMAIL", &cfg.Tracker.Email)
	setString("JIRA_API_TOKEN", &cfg.Tracker.APIToken)

	setInt("PR_THRESHOLD_DAYS", &cfg.Blockers.PRThresholdDays)
	setInt("ISSUE_THRESHOLD_DAYS", &cfg.Blockers.IssueThresholdDays)
	setInt("VELOCITY_WINDOW_DAYS", &cfg.Velocity.WindowDays)
}
