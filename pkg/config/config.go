package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alimgiray/gfame/pkg/logger"
)

const (
	DefaultConfigPath     = "gfame.yml"
	DefaultTimeoutSeconds = 120
	DefaultWorkers        = 2
)

type Config struct {
	AuthorPatterns AuthorPatternsConfig `yaml:"author_patterns"`
	Processing     ProcessingConfig     `yaml:"processing"`
	Languages      LanguagesConfig      `yaml:"languages"`
	Repositories   []RepositoryConfig   `yaml:"repositories"`
	GitHub         GitHubConfig         `yaml:"github"`
	Database       DatabaseConfig       `yaml:"database"`
	Server         ServerConfig         `yaml:"server"`
}

// AuthorPatternsConfig holds the regular expressions used to classify authors
type AuthorPatternsConfig struct {
	Designated []string `yaml:"designated"`
	Bots       []string `yaml:"bots"`
}

type ProcessingConfig struct {
	TimeoutSeconds     int      `yaml:"timeout_seconds"`
	Workers            int      `yaml:"workers"`
	BlameCommand       []string `yaml:"blame_command"`
	LineCounterCommand []string `yaml:"line_counter_command"`
	OutputDir          string   `yaml:"output_dir"`
	ReposDir           string   `yaml:"repos_dir"`
}

type LanguagesConfig struct {
	Exclude []string `yaml:"exclude"`
}

type RepositoryConfig struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Path        string `yaml:"path"`
	CloneURL    string `yaml:"clone_url"`
}

type GitHubConfig struct {
	Organization string `yaml:"organization"`
	BaseURL      string `yaml:"base_url"`
	Token        string `yaml:"-"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"`
}

// ConfigError reports configuration that cannot be used for a run
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// IsConfigError reports whether err carries a *ConfigError
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

var AppConfig *Config

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Processing: ProcessingConfig{
			TimeoutSeconds:     DefaultTimeoutSeconds,
			Workers:            DefaultWorkers,
			BlameCommand:       []string{"git", "fame", "--format", "json"},
			LineCounterCommand: []string{"cloc", "--json", "--quiet", "."},
			OutputDir:          ".",
			ReposDir:           "./repos",
		},
		GitHub: GitHubConfig{
			BaseURL: "https://github.com",
		},
		Database: DatabaseConfig{
			Path: "./gfame.db",
		},
		Server: ServerConfig{
			Port: "8080",
			Mode: "release",
		},
	}
}

// Load loads configuration from .env, the YAML file at path (if path is not
// empty) and environment variables, then validates it
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.GetLogger().Debug("No .env file found, using environment variables")
	}

	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigError{Problems: []string{fmt.Sprintf("could not read config file %s: %v", path, err)}}
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, &ConfigError{Problems: []string{fmt.Sprintf("invalid YAML in config file %s: %v", path, err)}}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	AppConfig = cfg
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var problems []string

	if patterns := getEnvAsList("GFAME_DESIGNATED_PATTERNS"); len(patterns) > 0 {
		cfg.AuthorPatterns.Designated = patterns
	}
	if patterns := getEnvAsList("GFAME_BOT_PATTERNS"); len(patterns) > 0 {
		cfg.AuthorPatterns.Bots = patterns
	}

	timeout, err := getEnvAsPositiveInt("GFAME_TIMEOUT_SECONDS", cfg.Processing.TimeoutSeconds)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.Processing.TimeoutSeconds = timeout

	workers, err := getEnvAsPositiveInt("GFAME_WORKERS", cfg.Processing.Workers)
	if err != nil {
		problems = append(problems, err.Error())
	}
	cfg.Processing.Workers = workers

	cfg.Processing.OutputDir = getEnv("GFAME_OUTPUT_DIR", cfg.Processing.OutputDir)
	cfg.Processing.ReposDir = getEnv("REPOS_DIR", cfg.Processing.ReposDir)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Mode = getEnv("GIN_MODE", cfg.Server.Mode)
	cfg.GitHub.Token = getEnv("GITHUB_TOKEN", cfg.GitHub.Token)

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// Validate returns every problem found in the configuration
func (c *Config) Validate() []string {
	var problems []string

	if len(c.AuthorPatterns.Designated) == 0 {
		problems = append(problems, "author_patterns.designated must contain at least one pattern")
	}
	for i, pattern := range c.AuthorPatterns.Designated {
		if strings.TrimSpace(pattern) == "" {
			problems = append(problems, fmt.Sprintf("author_patterns.designated[%d] is blank", i))
		}
	}
	for i, pattern := range c.AuthorPatterns.Bots {
		if strings.TrimSpace(pattern) == "" {
			problems = append(problems, fmt.Sprintf("author_patterns.bots[%d] is blank", i))
		}
	}

	if c.Processing.TimeoutSeconds <= 0 {
		problems = append(problems, "processing.timeout_seconds must be positive")
	}
	if c.Processing.Workers <= 0 {
		problems = append(problems, "processing.workers must be positive")
	}
	if len(c.Processing.BlameCommand) == 0 {
		problems = append(problems, "processing.blame_command must not be empty")
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}

	for i, repo := range c.Repositories {
		if strings.TrimSpace(repo.Name) == "" {
			problems = append(problems, fmt.Sprintf("repositories[%d] is missing a name", i))
		}
	}

	return problems
}

// DisplayNameFor returns the configured display name, falling back to the name
func (r RepositoryConfig) DisplayNameFor() string {
	if strings.TrimSpace(r.DisplayName) != "" {
		return r.DisplayName
	}
	return r.Name
}

// CloneURLFor builds the clone URL for a repository. An explicit clone_url
// wins, otherwise the URL is derived from the GitHub organization.
func (c *Config) CloneURLFor(repo RepositoryConfig) string {
	if repo.CloneURL != "" {
		return repo.CloneURL
	}
	if c.GitHub.Organization == "" {
		return ""
	}
	base := strings.TrimSuffix(c.GitHub.BaseURL, "/")
	return fmt.Sprintf("%s/%s/%s.git", base, c.GitHub.Organization, repo.Name)
}

// DuplicateDisplayNames lists display names used by more than one repository
func (c *Config) DuplicateDisplayNames() []string {
	seen := make(map[string]int)
	var duplicates []string
	for _, repo := range c.Repositories {
		name := repo.DisplayNameFor()
		seen[name]++
		if seen[name] == 2 {
			duplicates = append(duplicates, name)
		}
	}
	return duplicates
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated environment variable
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvAsPositiveInt reads a positive integer. Unlike the other helpers a
// malformed value is an error instead of a silent fallback.
func getEnvAsPositiveInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil || intValue <= 0 {
		return defaultValue, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return intValue, nil
}
