package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// errNoConfig reports that no config file exists in any default location.
var errNoConfig = errors.New("no config file found")

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches the default locations and falls back
// to Defaults() when none exists.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if errors.Is(err, errNoConfig) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(interpolateEnv(data, getenv), filepath.Dir(absPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	cfg.Path = absPath
	return cfg, nil
}

// Parse decodes YAML over Defaults(), resolves relative security paths
// against baseDir and validates the result.
func Parse(data []byte, baseDir string) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	for _, paths := range [][]string{
		cfg.Security.RestrictRead,
		cfg.Security.RestrictWrite,
		cfg.Security.AllowExecute,
	} {
		for i := range paths {
			if !filepath.IsAbs(paths[i]) {
				paths[i] = filepath.Join(baseDir, paths[i])
			}
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dump renders cfg as YAML with secrets hidden.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > VASO_CONFIG env > ./vaso.yaml > ~/.config/vaso/vaso.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("VASO_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("VASO_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("vaso.yaml"); err == nil {
		return "vaso.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "vaso", "vaso.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", errNoConfig
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// Validate checks the configuration for errors. Call it again after
// applying CLI overrides.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Locale == "" {
		errs = append(errs, "locale must not be empty")
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("invalid watch.debounce: %s (must not be negative)", cfg.Watch.Debounce))
	}

	switch cfg.Mail.Provider {
	case "":
	case "mailgun":
		if !cfg.Mail.APIKey.IsSet() || cfg.Mail.Domain == "" {
			errs = append(errs, "mail: mailgun requires api_key and domain")
		}
		if cfg.Mail.Region != "" && cfg.Mail.Region != "us" && cfg.Mail.Region != "eu" {
			errs = append(errs, fmt.Sprintf("mail: invalid region %q (must be us or eu)", cfg.Mail.Region))
		}
	case "resend":
		if !cfg.Mail.APIKey.IsSet() {
			errs = append(errs, "mail: resend requires api_key")
		}
	default:
		errs = append(errs, fmt.Sprintf("mail: unknown provider %q (supported: mailgun, resend)", cfg.Mail.Provider))
	}
	if cfg.Mail.Provider != "" && cfg.Mail.From == "" {
		errs = append(errs, "mail: from is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
