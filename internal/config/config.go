package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "WORKMATCH"

// Config is the full server configuration, loaded from a YAML file with
// WORKMATCH_* environment overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Matching MatchingConfig `mapstructure:"matching"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port  int    `mapstructure:"port"`
	Token string `mapstructure:"token"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data-dir"`
}

// LLMConfig selects the completion provider used by the requirement
// extractor. Supported providers: "openai" (any OpenAI-compatible endpoint)
// and "gemini".
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  string        `mapstructure:"timeout"`
	OpenAI   *OpenAIConfig `mapstructure:"openai"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api-key"`
	BaseURL string `mapstructure:"base-url"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api-key"`
	Model  string `mapstructure:"model"`
}

type MatchingConfig struct {
	ResultLimit int `mapstructure:"result-limit"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4600)
	v.SetDefault("server.token", "")
	v.SetDefault("storage.data-dir", defaultDataDir())
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "8s")
	v.SetDefault("llm.openai.api-key", "")
	v.SetDefault("llm.openai.base-url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.gemini.api-key", "")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("matching.result-limit", 5)
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

func defaultDataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".workmatch"
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "workmatch")
}

// Load reads configuration from cfgFile (or workmatch.yaml in the current
// directory when empty) and applies environment overrides. A missing config
// file is not an error — defaults plus environment are enough to run.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("workmatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errorsAs(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.OpenAI == nil || cfg.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("missing required config: llm.openai.api-key (or %s_LLM_OPENAI_API_KEY)", envPrefix)
		}
	case "gemini":
		if cfg.LLM.Gemini == nil || cfg.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("missing required config: llm.gemini.api-key (or %s_LLM_GEMINI_API_KEY)", envPrefix)
		}
	default:
		return fmt.Errorf("unsupported llm provider: %q", cfg.LLM.Provider)
	}

	if cfg.Server.Token == "" {
		return fmt.Errorf("missing required config: server.token (or %s_SERVER_TOKEN)", envPrefix)
	}

	if cfg.Matching.ResultLimit <= 0 {
		cfg.Matching.ResultLimit = 5
	}
	return nil
}

// errorsAs is a tiny wrapper so the viper sentinel check reads cleanly above.
func errorsAs(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return false
}
