// Package config builds the immutable settings of one invocation from flags, CHANGELOG_*
// environment variables, a local .env file, an optional YAML config file and defaults,
// in that order of precedence.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/export"
	"gitchangelog/internal/gitlog"
	"gitchangelog/internal/logger"
	"gitchangelog/internal/release"
	"gitchangelog/internal/summary"
)

// EnvPrefix prefixes every environment variable read into settings.
const EnvPrefix = "CHANGELOG"

// LocalConfigName is looked up in the repository root.
const LocalConfigName = ".changelog.yaml"

// Setting keys. Flags with the same name bind to them.
const (
	KeyRepo          = "repo"
	KeyBackend       = "backend"
	KeyConfig        = "config"
	KeyLogLevel      = "log-level"
	KeyLogFile       = "log-file"
	KeyFormat        = "format"
	KeySince         = "since"
	KeyUntil         = "until"
	KeyBranch        = "branch"
	KeyMaxCount      = "max-count"
	KeyOutput        = "output"
	KeyTitle         = "title"
	KeyIncludeTime   = "include-time"
	KeyLinkBase      = "link-base"
	KeyHeadingLevel  = "heading-level"
	KeyPrefix        = "prefix"
	KeyRemote        = "remote"
	KeyMessage       = "message"
	KeyChangelogFile = "changelog-file"
	KeyManifest      = "manifest"
	KeySinceLastTag  = "since-last-tag"
	KeyProvider      = "summary-provider"
	KeyModel         = "summary-model"
	KeySummaryURL    = "summary-base-url"
)

// DefaultTitle is the document title when none is configured.
const DefaultTitle = "Changelog"

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyRepo, ".")
	v.SetDefault(KeyBackend, gitlog.BackendCLI)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyFormat, export.FormatMarkdown)
	v.SetDefault(KeySince, "")
	v.SetDefault(KeyUntil, "")
	v.SetDefault(KeyBranch, "HEAD")
	v.SetDefault(KeyMaxCount, 0)
	v.SetDefault(KeyOutput, "")
	v.SetDefault(KeyTitle, DefaultTitle)
	v.SetDefault(KeyIncludeTime, false)
	v.SetDefault(KeyLinkBase, export.DefaultLinkBase)
	v.SetDefault(KeyHeadingLevel, 2)
	v.SetDefault(KeyPrefix, release.DefaultPrefix)
	v.SetDefault(KeyRemote, release.DefaultRemote)
	v.SetDefault(KeyMessage, "")
	v.SetDefault(KeyChangelogFile, release.DefaultChangelogFile)
	v.SetDefault(KeyManifest, []string{release.DefaultManifest})
	v.SetDefault(KeySinceLastTag, true)
	v.SetDefault(KeyProvider, summary.ProviderOpenAI)
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeySummaryURL, "")
}

// Settings is the resolved configuration. It is built once and passed by value.
type Settings struct {
	RepoDir  string
	Backend  string
	LogLevel string
	LogFile  string

	// ConfigFile is the config file that was read, or "" when none was found.
	ConfigFile string

	Format       string
	Since        string
	Until        string
	Branch       string
	MaxCount     int
	Output       string
	Title        string
	IncludeTime  bool
	LinkBase     string
	HeadingLevel int

	Prefix        string
	Remote        string
	Message       string
	ChangelogFile string
	Manifests     []string
	SinceLastTag  bool

	Summary summary.Config
}

// Load resolves settings. flags may be nil; only flags the user changed override the
// lower layers.
func Load(flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Settings{}, apperr.Wrap(apperr.ErrUsage, "bind flags", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	repoDir := v.GetString(KeyRepo)

	configFile, err := readConfigFile(v, v.GetString(KeyConfig), repoDir)
	if err != nil {
		return Settings{}, err
	}
	dotEnv, err := loadDotEnv(v, repoDir)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		RepoDir:    v.GetString(KeyRepo),
		Backend:    strings.ToLower(v.GetString(KeyBackend)),
		LogLevel:   v.GetString(KeyLogLevel),
		LogFile:    v.GetString(KeyLogFile),
		ConfigFile: configFile,

		Format:       strings.ToLower(v.GetString(KeyFormat)),
		Since:        v.GetString(KeySince),
		Until:        v.GetString(KeyUntil),
		Branch:       v.GetString(KeyBranch),
		MaxCount:     v.GetInt(KeyMaxCount),
		Output:       v.GetString(KeyOutput),
		Title:        v.GetString(KeyTitle),
		IncludeTime:  v.GetBool(KeyIncludeTime),
		LinkBase:     v.GetString(KeyLinkBase),
		HeadingLevel: v.GetInt(KeyHeadingLevel),

		Prefix:        v.GetString(KeyPrefix),
		Remote:        v.GetString(KeyRemote),
		Message:       v.GetString(KeyMessage),
		ChangelogFile: v.GetString(KeyChangelogFile),
		Manifests:     v.GetStringSlice(KeyManifest),
		SinceLastTag:  v.GetBool(KeySinceLastTag),
	}

	provider := strings.ToLower(v.GetString(KeyProvider))
	s.Summary = summary.Config{
		Provider: provider,
		Model:    v.GetString(KeyModel),
		APIKey:   apiKey(provider, dotEnv),
		BaseURL:  v.GetString(KeySummaryURL),
	}

	logger.Debug("Settings loaded", "config_file", configFile, "repo", s.RepoDir, "backend", s.Backend)
	return s, nil
}

// readConfigFile reads explicit, or else the first of the repository's .changelog.yaml
// and $XDG_CONFIG_HOME/gitchangelog/config.yaml that exists.
func readConfigFile(v *viper.Viper, explicit, repoDir string) (string, error) {
	path := explicit
	if path == "" {
		for _, candidate := range configCandidates(repoDir) {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return "", nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.Wrap(apperr.ErrInvalidInput, "config file "+path+" does not exist", err)
		}
		return "", apperr.Wrap(apperr.ErrParse, "failed to parse config file "+path, err)
	}
	return path, nil
}

func configCandidates(repoDir string) []string {
	candidates := []string{filepath.Join(repoDir, LocalConfigName)}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "gitchangelog", "config.yaml"))
	}
	return candidates
}

// loadDotEnv merges CHANGELOG_* entries of <repo>/.env above the config file and
// returns every entry for API key lookup.
func loadDotEnv(v *viper.Viper, repoDir string) (map[string]string, error) {
	envPath := filepath.Join(repoDir, ".env")
	data, err := os.ReadFile(envPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "failed to read .env file "+envPath, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrParse, "failed to parse .env file "+envPath, err)
	}

	settings := make(map[string]interface{})
	for key, value := range envMap {
		name, ok := strings.CutPrefix(key, EnvPrefix+"_")
		if !ok {
			continue
		}
		settings[strings.ReplaceAll(strings.ToLower(name), "_", "-")] = value
	}
	if len(settings) > 0 {
		if err := v.MergeConfigMap(settings); err != nil {
			return nil, apperr.Wrap(apperr.ErrParse, "failed to merge .env file "+envPath, err)
		}
	}
	return envMap, nil
}

// apiKey prefers CHANGELOG_<PROVIDER>_API_KEY, then the provider's own variable, checking
// the process environment before the .env file.
func apiKey(provider string, dotEnv map[string]string) string {
	names := []string{EnvPrefix + "_" + strings.ToUpper(provider) + "_API_KEY"}
	if name, ok := summary.APIKeyEnv[provider]; ok {
		names = append(names, name)
	}
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	for _, name := range names {
		if value := dotEnv[name]; value != "" {
			return value
		}
	}
	return ""
}
