// Package config defines the sweep configuration and its YAML loader.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every knob of a sweep: the three grid axes, the gem5
// installation paths, the fixed simulator flags, and the supervision
// timeouts.
type Config struct {
	Benchmarks    []string      `mapstructure:"benchmarks"`
	L2Sizes       []string      `mapstructure:"l2_sizes"`
	Assocs        []int         `mapstructure:"l2_assocs"`
	RootDir       string        `mapstructure:"root_dir"`
	OutDir        string        `mapstructure:"out_dir"`
	Simulator     string        `mapstructure:"simulator"`
	ConfigScript  string        `mapstructure:"config_script"`
	CPUType       string        `mapstructure:"cpu_type"`
	MaxInsts      int64         `mapstructure:"max_insts"`
	CachelineSize int           `mapstructure:"cacheline_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Grace         time.Duration `mapstructure:"grace"`
}

// Default returns the stock sweep configuration: the SPEC CPU
// benchmark set with L2 sizes from 256kB to 128MB and associativities
// 2, 4, and 8.
func Default() Config {
	return Config{
		Benchmarks: []string{
			"wrf_s", "xalancbmk_s",
			"x264_s", "exchange2_s", "mcf_s", "astar",
		},
		L2Sizes:       []string{"256kB", "2MB", "128MB"},
		Assocs:        []int{2, 4, 8},
		RootDir:       ".",
		OutDir:        "results",
		Simulator:     "build/X86/gem5.fast",
		ConfigScript:  "configs/spec/spec_se.py",
		CPUType:       "Timin",
		MaxInsts:      10000000,
		CachelineSize: 128,
		Timeout:       600 * time.Second,
		Grace:         5 * time.Second,
	}
}

// Load reads a YAML config file, falling back to Default for any key
// the file does not set. An empty path returns Default unchanged.
func Load(path string) (Config, error) {
	def := Default()
	if path == "" {
		return def, nil
	}

	v := viper.New()

	v.SetDefault("benchmarks", def.Benchmarks)
	v.SetDefault("l2_sizes", def.L2Sizes)
	v.SetDefault("l2_assocs", def.Assocs)
	v.SetDefault("root_dir", def.RootDir)
	v.SetDefault("out_dir", def.OutDir)
	v.SetDefault("simulator", def.Simulator)
	v.SetDefault("config_script", def.ConfigScript)
	v.SetDefault("cpu_type", def.CPUType)
	v.SetDefault("max_insts", def.MaxInsts)
	v.SetDefault("cacheline_size", def.CachelineSize)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("grace", def.Grace)

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects configurations that cannot produce a runnable sweep.
func (c Config) Validate() error {
	if len(c.Benchmarks) == 0 {
		return fmt.Errorf("no benchmarks configured")
	}

	if len(c.L2Sizes) == 0 {
		return fmt.Errorf("no L2 sizes configured")
	}

	if len(c.Assocs) == 0 {
		return fmt.Errorf("no associativities configured")
	}

	for _, a := range c.Assocs {
		if a <= 0 {
			return fmt.Errorf("invalid associativity %d", a)
		}
	}

	if c.Simulator == "" {
		return fmt.Errorf("no simulator binary configured")
	}

	if c.ConfigScript == "" {
		return fmt.Errorf("no config script configured")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.Grace <= 0 {
		return fmt.Errorf("grace must be positive, got %s", c.Grace)
	}

	return nil
}
