package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// ErrInvalidConfig marks every configuration problem. The CLI maps it to
// exit code 1 before detection runs.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the structure of the configuration file
type Config struct {
	Enabled            bool            `mapstructure:"enabled" yaml:"enabled"`
	Debug              bool            `mapstructure:"debug" yaml:"debug"`
	Fast               bool            `mapstructure:"fast" yaml:"fast"`
	Full               bool            `mapstructure:"full" yaml:"full"`
	FailFast           bool            `mapstructure:"fail_fast" yaml:"fail_fast"`
	ShowTiming         bool            `mapstructure:"show_timing" yaml:"show_timing"`
	HostExitConvention bool            `mapstructure:"host_exit_convention" yaml:"host_exit_convention"`
	NoColor            bool            `mapstructure:"no_color" yaml:"no_color"`
	Theme              string          `mapstructure:"theme" yaml:"theme"`
	CooldownSeconds    int             `mapstructure:"cooldown_seconds" yaml:"cooldown_seconds"`
	ToolTimeout        time.Duration   `mapstructure:"tool_timeout" yaml:"tool_timeout"`
	IgnoreFile         string          `mapstructure:"ignore_file" yaml:"ignore_file"`
	OverrideFile       string          `mapstructure:"override_file" yaml:"override_file"`
	DisableMarker      string          `mapstructure:"disable_marker" yaml:"disable_marker"`
	MarkerLines        int             `mapstructure:"marker_lines" yaml:"marker_lines"`
	DetectDepth        int             `mapstructure:"detect_depth" yaml:"detect_depth"`
	TraceFile          string          `mapstructure:"trace_file" yaml:"trace_file"`
	Languages          LanguageToggles `mapstructure:"languages" yaml:"languages"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `mapstructure:"-" yaml:"-"`
	// OverrideKeys lists the override-script variables that were applied.
	OverrideKeys []string `mapstructure:"-" yaml:"-"`
}

// LanguageToggles enables or disables each language runner.
type LanguageToggles struct {
	Go         bool `mapstructure:"go" yaml:"go"`
	Python     bool `mapstructure:"python" yaml:"python"`
	JavaScript bool `mapstructure:"javascript" yaml:"javascript"`
	Rust       bool `mapstructure:"rust" yaml:"rust"`
	Nix        bool `mapstructure:"nix" yaml:"nix"`
}

// Enabled reports the toggle for a language name. Unknown names are disabled.
func (t LanguageToggles) Enabled(language string) bool {
	switch language {
	case "go":
		return t.Go
	case "python":
		return t.Python
	case "javascript":
		return t.JavaScript
	case "rust":
		return t.Rust
	case "nix":
		return t.Nix
	}
	return false
}

// DefaultConfig values
var DefaultConfig = Config{
	Enabled:       true,
	Theme:         "dracula",
	IgnoreFile:    ".claude-hooks-ignore",
	OverrideFile:  ".claude-hooks-config.sh",
	DisableMarker: "claude-hooks-disable",
	MarkerLines:   5,
	DetectDepth:   3,
	Languages: LanguageToggles{
		Go:         true,
		Python:     true,
		JavaScript: true,
		Rust:       true,
		Nix:        true,
	},
}

// ConfigName is the base name of the optional project config file.
const ConfigName = "smartlint-config"

type valueKind int

const (
	kindBool valueKind = iota
	kindInt
	kindString
	kindDuration
)

// binding ties a config key to its environment variables and, optionally, a
// CLI flag. Any of the env names may also appear in the override script.
type binding struct {
	key  string
	kind valueKind
	envs []string
	flag string
}

var bindings = []binding{
	{key: "enabled", kind: kindBool, envs: []string{"CLAUDE_HOOKS_ENABLED", "SMARTLINT_ENABLED"}},
	{key: "debug", kind: kindBool, envs: []string{"CLAUDE_HOOKS_DEBUG", "SMARTLINT_DEBUG"}, flag: "debug"},
	{key: "fast", kind: kindBool, envs: []string{"CLAUDE_HOOKS_FAST", "SMARTLINT_FAST"}, flag: "fast"},
	{key: "full", kind: kindBool, envs: []string{"CLAUDE_HOOKS_FULL", "SMARTLINT_FULL"}, flag: "full"},
	{key: "fail_fast", kind: kindBool, envs: []string{"CLAUDE_HOOKS_FAIL_FAST", "SMARTLINT_FAIL_FAST"}, flag: "fail-fast"},
	{key: "show_timing", kind: kindBool, envs: []string{"CLAUDE_HOOKS_SHOW_TIMING", "SMARTLINT_SHOW_TIMING"}, flag: "show-timing"},
	{key: "host_exit_convention", kind: kindBool, envs: []string{"CLAUDE_HOOKS_HOST_EXIT", "SMARTLINT_HOST_EXIT"}, flag: "hook"},
	{key: "no_color", kind: kindBool, envs: []string{"SMARTLINT_NO_COLOR"}, flag: "no-color"},
	{key: "theme", kind: kindString, envs: []string{"SMARTLINT_THEME"}},
	{key: "cooldown_seconds", kind: kindInt, envs: []string{"CLAUDE_HOOKS_COOLDOWN", "SMARTLINT_COOLDOWN"}},
	{key: "tool_timeout", kind: kindDuration, envs: []string{"CLAUDE_HOOKS_TOOL_TIMEOUT", "SMARTLINT_TOOL_TIMEOUT"}},
	{key: "ignore_file", kind: kindString, envs: []string{"CLAUDE_HOOKS_IGNORE_FILE", "SMARTLINT_IGNORE_FILE"}},
	{key: "disable_marker", kind: kindString, envs: []string{"CLAUDE_HOOKS_DISABLE_MARKER", "SMARTLINT_DISABLE_MARKER"}},
	{key: "marker_lines", kind: kindInt, envs: []string{"CLAUDE_HOOKS_MARKER_LINES", "SMARTLINT_MARKER_LINES"}},
	{key: "detect_depth", kind: kindInt, envs: []string{"CLAUDE_HOOKS_DETECT_DEPTH", "SMARTLINT_DETECT_DEPTH"}},
	{key: "trace_file", kind: kindString, envs: []string{"SMARTLINT_TRACE_FILE"}, flag: "trace-file"},
	{key: "languages.go", kind: kindBool, envs: []string{"CLAUDE_HOOKS_GO_ENABLED", "SMARTLINT_GO_ENABLED"}},
	{key: "languages.python", kind: kindBool, envs: []string{"CLAUDE_HOOKS_PYTHON_ENABLED", "SMARTLINT_PYTHON_ENABLED"}},
	{key: "languages.javascript", kind: kindBool, envs: []string{"CLAUDE_HOOKS_JS_ENABLED", "SMARTLINT_JS_ENABLED"}},
	{key: "languages.rust", kind: kindBool, envs: []string{"CLAUDE_HOOKS_RUST_ENABLED", "SMARTLINT_RUST_ENABLED"}},
	{key: "languages.nix", kind: kindBool, envs: []string{"CLAUDE_HOOKS_NIX_ENABLED", "SMARTLINT_NIX_ENABLED"}},
}

// LoadConfigs builds the configuration from defaults, the config file, the
// environment, the project override script and finally the CLI flags, in
// increasing order of precedence.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	// Set default values using Viper
	setDefaults(v)

	// Explicitly bind environment variables to config keys
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfgFile string
	if f := lookupFlag(rootCmd, "config"); f != nil {
		cfgFile = f.Value.String()
	}
	if err := readConfigFile(v, cfgFile, cwd); err != nil {
		return nil, err
	}

	// Bind CLI flags to override config values
	if err := bindFlags(v, rootCmd); err != nil {
		return nil, err
	}

	overrideKeys, err := applyOverrideScript(v, rootCmd, cwd)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: unable to decode into struct: %v", ErrInvalidConfig, err)
	}
	config.ConfigFile = v.ConfigFileUsed()
	config.OverrideKeys = overrideKeys

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects values no run could honour.
func (c *Config) Validate() error {
	switch {
	case c.MarkerLines < 0:
		return fmt.Errorf("%w: marker_lines must not be negative", ErrInvalidConfig)
	case c.DetectDepth < 0:
		return fmt.Errorf("%w: detect_depth must not be negative", ErrInvalidConfig)
	case c.CooldownSeconds < 0:
		return fmt.Errorf("%w: cooldown_seconds must not be negative", ErrInvalidConfig)
	case c.ToolTimeout < 0:
		return fmt.Errorf("%w: tool_timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("enabled", DefaultConfig.Enabled)
	v.SetDefault("debug", DefaultConfig.Debug)
	v.SetDefault("fast", DefaultConfig.Fast)
	v.SetDefault("full", DefaultConfig.Full)
	v.SetDefault("fail_fast", DefaultConfig.FailFast)
	v.SetDefault("show_timing", DefaultConfig.ShowTiming)
	v.SetDefault("host_exit_convention", DefaultConfig.HostExitConvention)
	v.SetDefault("no_color", DefaultConfig.NoColor)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("cooldown_seconds", DefaultConfig.CooldownSeconds)
	v.SetDefault("tool_timeout", DefaultConfig.ToolTimeout)
	v.SetDefault("ignore_file", DefaultConfig.IgnoreFile)
	v.SetDefault("override_file", DefaultConfig.OverrideFile)
	v.SetDefault("disable_marker", DefaultConfig.DisableMarker)
	v.SetDefault("marker_lines", DefaultConfig.MarkerLines)
	v.SetDefault("detect_depth", DefaultConfig.DetectDepth)
	v.SetDefault("trace_file", DefaultConfig.TraceFile)
	v.SetDefault("languages.go", DefaultConfig.Languages.Go)
	v.SetDefault("languages.python", DefaultConfig.Languages.Python)
	v.SetDefault("languages.javascript", DefaultConfig.Languages.JavaScript)
	v.SetDefault("languages.rust", DefaultConfig.Languages.Rust)
	v.SetDefault("languages.nix", DefaultConfig.Languages.Nix)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) error {
	for _, b := range bindings {
		args := append([]string{b.key}, b.envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("binding env for %s: %w", b.key, err)
		}
	}
	return nil
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) error {
	for _, b := range bindings {
		if b.flag == "" {
			continue
		}
		flag := lookupFlag(rootCmd, b.flag)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(b.key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", b.flag, err)
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, cfgFile, cwd string) error {
	if cfgFile != "" {
		// Use the config file from the flag
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: error reading config file: %v", ErrInvalidConfig, err)
		}
		return nil
	}

	// Look for configuration files in the project root
	v.SetConfigName(ConfigName)
	v.AddConfigPath(cwd)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: error reading config file: %v", ErrInvalidConfig, err)
	}
	return nil
}

// applyOverrideScript reads the project override script, a restricted
// shell file of `export NAME=value` lines, and layers it above the
// environment. Flags the user actually passed still win.
func applyOverrideScript(v *viper.Viper, rootCmd *cobra.Command, cwd string) ([]string, error) {
	name := v.GetString("override_file")
	if name == "" {
		return nil, nil
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrInvalidConfig, name, err)
	}
	defer f.Close()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed override file %s: %v", ErrInvalidConfig, name, err)
	}

	byEnv := make(map[string]binding)
	for _, b := range bindings {
		for _, e := range b.envs {
			byEnv[e] = b
		}
	}

	var applied []string
	for envName, raw := range env {
		b, ok := byEnv[envName]
		if !ok {
			continue
		}
		value, err := parseValue(b.kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s in %s: %v", ErrInvalidConfig, envName, name, err)
		}
		if f := lookupFlag(rootCmd, b.flag); b.flag != "" && f != nil && f.Changed {
			continue
		}
		v.Set(b.key, value)
		applied = append(applied, envName)
	}
	sort.Strings(applied)
	return applied, nil
}

func parseValue(kind valueKind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindBool:
		return strconv.ParseBool(raw)
	case kindInt:
		return strconv.Atoi(raw)
	case kindDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

// lookupFlag finds a flag whether it was declared on cmd or inherited from
// a parent's persistent flags.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f
	}
	return cmd.PersistentFlags().Lookup(name)
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a configuration file (YAML or JSON). Defaults to smartlint-config.* in the project root.")

	rootCmd.PersistentFlags().Bool("debug", DefaultConfig.Debug, "Verbose diagnostic output with per-tool timing.")
	rootCmd.PersistentFlags().Bool("fast", DefaultConfig.Fast, "Skip slow tools and fall back to lighter ones.")
	rootCmd.PersistentFlags().Bool("full", DefaultConfig.Full, "Check the whole tree instead of changed files.")
	rootCmd.PersistentFlags().Bool("fail-fast", DefaultConfig.FailFast, "Stop dispatching languages after the first recorded failure.")
	rootCmd.PersistentFlags().Bool("show-timing", DefaultConfig.ShowTiming, "Print a timing table after the summary.")
	rootCmd.PersistentFlags().Bool("hook", DefaultConfig.HostExitConvention, "Use the hook host exit convention: exit 2 even when clean.")
	rootCmd.PersistentFlags().Bool("no-color", DefaultConfig.NoColor, "Disable colored output.")
	rootCmd.PersistentFlags().String("trace-file", DefaultConfig.TraceFile, "Write OpenTelemetry spans as JSON to this file.")
}
