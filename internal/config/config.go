package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// EngineConfig holds the tunables the reference program hard-coded as
// top-of-file constants.
type EngineConfig struct {
	UpperPrice                     int     `yaml:"upper_price"`
	MaxOperationsToGenerate        int     `yaml:"max_operations_to_generate"`
	// ThrottleProbability is the likelihood of being throttled, not the
	// likelihood the window opens; internal/sim.ThrottleOpen draws with
	// probability 1-ThrottleProbability.
	ThrottleProbability            float64 `yaml:"throttle_probability"`
	MaxOperationsToClearFromQueue  int     `yaml:"max_operations_to_clear_from_queue"`
	MaxOperationsToAcknowledge     int     `yaml:"max_operations_to_acknowledge"`
	OrderGCThreshold               int     `yaml:"order_gc_threshold"`
	QuoteHistoryThreshold          int     `yaml:"quote_history_threshold"`
	QuoteHistoryCheckIndex         int     `yaml:"quote_history_check_index"`
	QuoteHistoryTrim               int     `yaml:"quote_history_trim"`
}

// AppConfig is the top-level document loaded from the YAML config file.
type AppConfig struct {
	ServiceName string       `yaml:"service_name"`
	Seed        int64        `yaml:"seed"`
	LogLevel    string       `yaml:"log_level"`
	Engine      EngineConfig `yaml:"engine"`
}

// Default mirrors the constants the original reference program hard-coded.
func Default() *AppConfig {
	return &AppConfig{
		ServiceName: "mm-oms-core-simulator",
		LogLevel:    "info",
		Engine: EngineConfig{
			UpperPrice:                    9,
			MaxOperationsToGenerate:       10,
			ThrottleProbability:           0.15,
			MaxOperationsToClearFromQueue: 10,
			MaxOperationsToAcknowledge:    10,
			OrderGCThreshold:              1000,
			QuoteHistoryThreshold:         200,
			QuoteHistoryCheckIndex:        151,
			QuoteHistoryTrim:              150,
		},
	}
}

// Load loads config from a file, falling back to CONFIG_FILE and then to
// built-in defaults when no file is available.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}
	if len(filePath) == 0 {
		return Default(), nil
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("loading config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Errorw("failed to load config file", "error", err)
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := Default()
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Errorw("failed to parse config file", "error", err)
		return nil, err
	}

	sugar.Debugf("config: %+v", cfg)
	return cfg, nil
}
