package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/contactkeval/option-calc/internal/logger"
	"github.com/contactkeval/option-calc/internal/pricing"
)

// DefaultFile is read when no explicit config path is given; it may be absent.
const DefaultFile = "option-calc.yaml"

// DefaultEnvFile is loaded into the environment before overrides are applied.
const DefaultEnvFile = ".env"

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig controls how numbers are reported, not how they are computed.
type OutputConfig struct {
	Precision int32  `yaml:"precision"`
	Dir       string `yaml:"dir"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

type Config struct {
	Log     LoggingConfig  `yaml:"log"`
	Pricing pricing.Config `yaml:"pricing"`
	Server  ServerConfig   `yaml:"server"`
	Output  OutputConfig   `yaml:"output"`
	Batch   BatchConfig    `yaml:"batch"`
}

func Default() *Config {
	return &Config{
		Log:     LoggingConfig{Level: "info"},
		Pricing: pricing.DefaultConfig(),
		Server:  ServerConfig{Addr: ":8080"},
		Output:  OutputConfig{Precision: 6, Dir: "out"},
		Batch:   BatchConfig{Workers: runtime.NumCPU()},
	}
}

// Load builds the configuration from defaults, the optional .env file, the
// YAML file at path and OPTCALC_* environment variables, in that order of
// precedence (later wins). An empty path means DefaultFile, which may be
// missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, DefaultEnvFile)
}

func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	optional := path == ""
	if optional {
		path = DefaultFile
	}
	return load(path, optional)
}

func load(path string, optional bool) (*Config, error) {
	cfg := Default()
	if err := cfg.loadYAML(path); err != nil {
		if !(optional && errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	logger.Debugf("loaded config from %s", path)
	return nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("OPTCALC_LOG_LEVEL", c.Log.Level)

	c.Pricing.MinSteps = getEnvInt("OPTCALC_MIN_STEPS", c.Pricing.MinSteps)
	c.Pricing.MaxSteps = getEnvInt("OPTCALC_MAX_STEPS", c.Pricing.MaxSteps)
	c.Pricing.StepsPerYear = getEnvFloat("OPTCALC_STEPS_PER_YEAR", c.Pricing.StepsPerYear)
	c.Pricing.Bumps.SpotPct = getEnvFloat("OPTCALC_SPOT_BUMP_PCT", c.Pricing.Bumps.SpotPct)
	c.Pricing.Bumps.Vol = getEnvFloat("OPTCALC_VOL_BUMP", c.Pricing.Bumps.Vol)
	c.Pricing.Bumps.Rate = getEnvFloat("OPTCALC_RATE_BUMP", c.Pricing.Bumps.Rate)
	c.Pricing.Bumps.Time = getEnvFloat("OPTCALC_TIME_BUMP", c.Pricing.Bumps.Time)
	c.Pricing.Bumps.MinTime = getEnvFloat("OPTCALC_MIN_TIME", c.Pricing.Bumps.MinTime)
	c.Pricing.ParallelGreeks = getEnvBool("OPTCALC_PARALLEL_GREEKS", c.Pricing.ParallelGreeks)

	c.Server.Addr = getEnv("OPTCALC_ADDR", c.Server.Addr)
	c.Output.Precision = int32(getEnvInt("OPTCALC_PRECISION", int(c.Output.Precision)))
	c.Output.Dir = getEnv("OPTCALC_OUTPUT_DIR", c.Output.Dir)
	c.Batch.Workers = getEnvInt("OPTCALC_WORKERS", c.Batch.Workers)
}

func (c *Config) Validate() error {
	if err := c.Pricing.Validate(); err != nil {
		return err
	}
	if c.Output.Precision < 0 || c.Output.Precision > 15 {
		return fmt.Errorf("output.precision must be within [0,15], got %d", c.Output.Precision)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		logger.Warnf("ignoring %s=%q: not a boolean", key, value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		logger.Warnf("ignoring %s=%q: not an integer", key, value)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		logger.Warnf("ignoring %s=%q: not a number", key, value)
	}
	return defaultValue
}
