package config

import (
	"time"

	"github.com/sambeau/vaso/pkg/vaso/stdlib"
)

// Config represents the complete Vaso configuration
type Config struct {
	BaseDir  string         `yaml:"-"` // Directory containing config file, for resolving relative paths
	Path     string         `yaml:"-"` // Config file the values came from ("" for defaults)
	Security SecurityConfig `yaml:"security"`
	Locale   string         `yaml:"locale"` // Date and number formatting locale, e.g. "en_US", "de_DE"
	Engine   EngineConfig   `yaml:"engine"`
	Repl     ReplConfig     `yaml:"repl"`
	Watch    WatchConfig    `yaml:"watch"`
	Mail     MailConfig     `yaml:"mail"`
}

// SecurityConfig restricts host access from scripts
type SecurityConfig struct {
	NoRead          bool     `yaml:"no_read"`           // Deny all file reads
	NoWrite         bool     `yaml:"no_write"`          // Deny all file writes
	RestrictRead    []string `yaml:"restrict_read"`     // Denied read directories
	RestrictWrite   []string `yaml:"restrict_write"`    // Denied write directories
	AllowExecute    []string `yaml:"allow_execute"`     // Directories whose commands Sys.exec may run
	AllowExecuteAll bool     `yaml:"allow_execute_all"` // Allow Sys.exec to run anything
}

// EngineConfig holds interpreter settings
type EngineConfig struct {
	StrictBlocks   bool `yaml:"strict_blocks"`   // Reject programs with unmatched braces (default: true)
	WarnConditions bool `yaml:"warn_conditions"` // Report conditions of an unrecognized shape
}

// ReplConfig holds interactive session settings
type ReplConfig struct {
	HistoryFile string `yaml:"history_file"` // default: .vaso_history in the temp directory
	Prompt      string `yaml:"prompt"`
}

// WatchConfig holds --watch settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"` // e.g. "100ms"
}

// MailConfig configures the provider behind Mail.send
type MailConfig struct {
	Provider string       `yaml:"provider"` // "mailgun" or "resend"
	APIKey   APIKey       `yaml:"api_key"`
	Domain   string       `yaml:"domain"` // mailgun only
	Region   string       `yaml:"region"` // mailgun only: "us" or "eu"
	From     string       `yaml:"from"`
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Locale: "en_US",
		Engine: EngineConfig{
			StrictBlocks: true,
		},
		Repl: ReplConfig{
			Prompt: ">> ",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}

// Policy converts the security section to a stdlib policy.
func (c *Config) Policy() *stdlib.Policy {
	s := c.Security
	return &stdlib.Policy{
		NoRead:          s.NoRead,
		NoWrite:         s.NoWrite,
		RestrictRead:    s.RestrictRead,
		RestrictWrite:   s.RestrictWrite,
		AllowExecute:    s.AllowExecute,
		AllowExecuteAll: s.AllowExecuteAll,
	}
}

// StdlibOptions returns the standard library configuration for a script
// run with args.
func (c *Config) StdlibOptions(args []string, getenv func(string) string) stdlib.Options {
	return stdlib.Options{
		Security: c.Policy(),
		Locale:   c.Locale,
		Args:     args,
		Getenv:   getenv,
		Mail: stdlib.MailConfig{
			Provider: c.Mail.Provider,
			APIKey:   c.Mail.APIKey.Value(),
			Domain:   c.Mail.Domain,
			Region:   c.Mail.Region,
			From:     c.Mail.From,
		},
	}
}
