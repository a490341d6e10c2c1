/*
Package config manages TOML config for wsrs runs and tools.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/abbrevlab/wsrs/internal/utils"
)

// Writer format names accepted in [writer] format.
const (
	FormatMsgpack = "msgpack"
	FormatJSONL   = "jsonl"
)

// Config holds the entire config structure.
type Config struct {
	Extract    ExtractConfig    `toml:"extract"`
	Substitute SubstituteConfig `toml:"substitute"`
	Sample     SampleConfig     `toml:"sample"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Writer     WriterConfig     `toml:"writer"`
	CLI        CliConfig        `toml:"cli"`
}

// ExtractConfig controls snippet extraction.
type ExtractConfig struct {
	MaxSentencesPerSnippet int `toml:"max_sentences_per_snippet"`
}

// SubstituteConfig controls the abbreviation walk.
type SubstituteConfig struct {
	AbbreviationRate float64 `toml:"abbreviation_rate"`
}

// SampleConfig controls the per-replacement sampling cap.
type SampleConfig struct {
	NumSnippetsPerReplacement int `toml:"num_snippets_per_replacement"`
}

// PipelineConfig holds execution options.
type PipelineConfig struct {
	Workers int   `toml:"workers"` // 0 selects GOMAXPROCS
	Seed    int64 `toml:"seed"`
}

// WriterConfig selects and sizes the output writer.
type WriterConfig struct {
	Format    string `toml:"format"`
	ShardSize int    `toml:"shard_size"`
}

// CliConfig holds interactive-mode options.
type CliConfig struct {
	DefaultRate float64 `toml:"default_rate"`
	ShowMatches bool    `toml:"show_matches"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "wsrs")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "wsrs")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wsrs/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			MaxSentencesPerSnippet: 3,
		},
		Substitute: SubstituteConfig{
			AbbreviationRate: 0.95,
		},
		Sample: SampleConfig{
			NumSnippetsPerReplacement: 4000,
		},
		Pipeline: PipelineConfig{
			Workers: 0,
			Seed:    0,
		},
		Writer: WriterConfig{
			Format:    FormatMsgpack,
			ShardSize: 50000,
		},
		CLI: CliConfig{
			DefaultRate: 0.95,
			ShowMatches: true,
		},
	}
}

// Preset returns a named option set. "default" favors corpus variety;
// "deterministic" pins single-sentence windows and always-on substitution so
// runs are comparable end to end.
func Preset(name string) (*Config, error) {
	switch name {
	case "default":
		return DefaultConfig(), nil
	case "deterministic":
		cfg := DefaultConfig()
		cfg.Extract.MaxSentencesPerSnippet = 1
		cfg.Substitute.AbbreviationRate = 1.0
		cfg.CLI.DefaultRate = 1.0
		return cfg, nil
	default:
		return nil, fmt.Errorf("unknown preset %q (have: default, deterministic)", name)
	}
}

// Presets lists the built-in preset names.
func Presets() []string {
	return []string{"default", "deterministic"}
}

// Validate rejects out-of-range values before any document is processed.
func (c *Config) Validate() error {
	if c.Extract.MaxSentencesPerSnippet < 1 {
		return fmt.Errorf("max_sentences_per_snippet must be at least 1, got %d",
			c.Extract.MaxSentencesPerSnippet)
	}
	if c.Substitute.AbbreviationRate < 0 || c.Substitute.AbbreviationRate > 1 {
		return fmt.Errorf("abbreviation_rate must be within [0, 1], got %g",
			c.Substitute.AbbreviationRate)
	}
	if c.Sample.NumSnippetsPerReplacement < 0 {
		return fmt.Errorf("num_snippets_per_replacement must not be negative, got %d",
			c.Sample.NumSnippetsPerReplacement)
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Pipeline.Workers)
	}
	if c.Writer.ShardSize < 1 {
		return fmt.Errorf("shard_size must be positive, got %d", c.Writer.ShardSize)
	}
	switch c.Writer.Format {
	case FormatMsgpack, FormatJSONL:
	default:
		return fmt.Errorf("unknown writer format %q (have: %s, %s)",
			c.Writer.Format, FormatMsgpack, FormatJSONL)
	}
	if c.CLI.DefaultRate < 0 || c.CLI.DefaultRate > 1 {
		return fmt.Errorf("default_rate must be within [0, 1], got %g", c.CLI.DefaultRate)
	}
	return nil
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse salvages whatever sections still parse, leaving defaults
// for the rest.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "extract"); ok {
		extractExtractConfig(section, &config.Extract)
	}
	if section, ok := utils.ExtractSection(tempConfig, "substitute"); ok {
		extractSubstituteConfig(section, &config.Substitute)
	}
	if section, ok := utils.ExtractSection(tempConfig, "sample"); ok {
		extractSampleConfig(section, &config.Sample)
	}
	if section, ok := utils.ExtractSection(tempConfig, "pipeline"); ok {
		extractPipelineConfig(section, &config.Pipeline)
	}
	if section, ok := utils.ExtractSection(tempConfig, "writer"); ok {
		extractWriterConfig(section, &config.Writer)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractExtractConfig(data map[string]any, extract *ExtractConfig) {
	if val, ok := utils.ExtractInt64(data, "max_sentences_per_snippet"); ok {
		extract.MaxSentencesPerSnippet = val
	}
}

func extractSubstituteConfig(data map[string]any, substitute *SubstituteConfig) {
	if val, ok := utils.ExtractFloat64(data, "abbreviation_rate"); ok {
		substitute.AbbreviationRate = val
	}
}

func extractSampleConfig(data map[string]any, sample *SampleConfig) {
	if val, ok := utils.ExtractInt64(data, "num_snippets_per_replacement"); ok {
		sample.NumSnippetsPerReplacement = val
	}
}

func extractPipelineConfig(data map[string]any, pipeline *PipelineConfig) {
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		pipeline.Workers = val
	}
	if val, ok := utils.ExtractInt64(data, "seed"); ok {
		pipeline.Seed = int64(val)
	}
}

func extractWriterConfig(data map[string]any, writer *WriterConfig) {
	if val, ok := utils.ExtractString(data, "format"); ok {
		writer.Format = val
	}
	if val, ok := utils.ExtractInt64(data, "shard_size"); ok {
		writer.ShardSize = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractFloat64(data, "default_rate"); ok {
		cli.DefaultRate = val
	}
	if val, ok := utils.ExtractBool(data, "show_matches"); ok {
		cli.ShowMatches = val
	}
}

// RebuildConfigFile force creates a new config.toml at the default path.
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	config := DefaultConfig()
	return utils.SaveTOMLFile(config, defaultPath)
}

// GetActiveConfigPath returns the absolute path of the loaded config file.
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes transform values and saves to file. Nil fields are left
// alone; an update that fails validation touches neither the file nor the
// receiver.
func (c *Config) Update(configPath string, rate *float64, maxSentences, limit, workers *int) error {
	next := *c
	if rate != nil {
		next.Substitute.AbbreviationRate = *rate
	}
	if maxSentences != nil {
		next.Extract.MaxSentencesPerSnippet = *maxSentences
	}
	if limit != nil {
		next.Sample.NumSnippetsPerReplacement = *limit
	}
	if workers != nil {
		next.Pipeline.Workers = *workers
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := SaveConfig(&next, configPath); err != nil {
		return err
	}
	*c = next
	return nil
}
