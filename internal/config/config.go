// Package config reads runtime settings from the environment, after loading
// an optional .env file. Packages receive a *Config; only cmd/folio and tests
// call Load.
package config

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/kevinmichaelchen/folio/internal/apperr"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	GitHubToken         string
	GitHubAPIURL        string
	GitHubUser          string
	GitHubExclude       string
	RepoLimit           int
	LanguageConcurrency int
	HTTPTimeout         time.Duration

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	SkillsPath string
	ListenAddr string

	LogLevel  string
	LogFormat string
}

const (
	DefaultLLMModel   = "gpt-4o-mini-2024-07-18"
	DefaultSkillsPath = "text/skills.json"
)

// V is the viper instance backing Load. cmd/folio binds its flags to it.
var V = newViper()

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	// GITHUB_ACCESS is the name older deployments used.
	_ = v.BindEnv("github_token", "GITHUB_TOKEN", "GITHUB_ACCESS")
	_ = v.BindEnv("llm_base_url", "OPENAI_BASE_URL", "LLM_BASE_URL")
	_ = v.BindEnv("llm_api_key", "OPENAI_API_KEY", "LLM_API_KEY")
	_ = v.BindEnv("llm_model", "OPENAI_MODEL", "LLM_MODEL")

	v.SetDefault("github_api_url", "https://api.github.com")
	v.SetDefault("github_user", "hakuei0115")
	v.SetDefault("github_exclude", "BogdanOtava")
	v.SetDefault("repo_limit", 1000)
	v.SetDefault("language_concurrency", 4)
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("llm_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm_model", DefaultLLMModel)
	v.SetDefault("llm_timeout", 30*time.Second)
	v.SetDefault("skills_path", DefaultSkillsPath)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "fmt")
	return v
}

func Load() *Config {
	_ = godotenv.Load()
	return FromViper(V)
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		GitHubToken:         v.GetString("github_token"),
		GitHubAPIURL:        v.GetString("github_api_url"),
		GitHubUser:          v.GetString("github_user"),
		GitHubExclude:       v.GetString("github_exclude"),
		RepoLimit:           v.GetInt("repo_limit"),
		LanguageConcurrency: v.GetInt("language_concurrency"),
		HTTPTimeout:         v.GetDuration("http_timeout"),

		LLMBaseURL: v.GetString("llm_base_url"),
		LLMAPIKey:  v.GetString("llm_api_key"),
		LLMModel:   v.GetString("llm_model"),
		LLMTimeout: v.GetDuration("llm_timeout"),

		SkillsPath: v.GetString("skills_path"),
		ListenAddr: v.GetString("listen_addr"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}
}

// RequireGitHub reports a missing GitHub credential. The repository lister
// calls it before issuing any request.
func (c *Config) RequireGitHub() error {
	if c.GitHubToken == "" {
		return apperr.Newf(apperr.ConfigError, "loading config", "GITHUB_TOKEN is required")
	}
	return nil
}

// Validate checks the settings every command depends on. The GitHub token is
// left to RequireGitHub so commands that never touch GitHub still run.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.GitHubUser == "" {
		result = multierror.Append(result, errors.New("GITHUB_USER must not be empty"))
	}
	if c.RepoLimit <= 0 {
		result = multierror.Append(result, errors.Errorf("REPO_LIMIT must be positive, got %d", c.RepoLimit))
	}
	if c.LanguageConcurrency <= 0 {
		result = multierror.Append(result, errors.Errorf("LANGUAGE_CONCURRENCY must be positive, got %d", c.LanguageConcurrency))
	}
	if c.HTTPTimeout <= 0 {
		result = multierror.Append(result, errors.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout))
	}
	if c.LLMTimeout <= 0 {
		result = multierror.Append(result, errors.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout))
	}
	if c.LLMModel == "" {
		result = multierror.Append(result, errors.New("OPENAI_MODEL must not be empty"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return apperr.New(apperr.ConfigError, "validating config", err)
	}
	return nil
}
