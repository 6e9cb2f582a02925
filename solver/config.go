package solver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileEntry is one solver declared in a YAML config file. Omitted fields keep the
// defaults of the entry's kind.
type fileEntry struct {
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"`
	Rule          string `yaml:"rule"`
	Seed          int64  `yaml:"seed"`
	MaxIterations int    `yaml:"max_iterations"`
	Tenure        int    `yaml:"tenure"`
}

type configFile struct {
	Solvers []fileEntry `yaml:"solvers"`
}

func (e fileEntry) config() (Config, error) {
	if e.Name == "" {
		return Config{}, fmt.Errorf("%w: solver entry without a name", ErrInvalidConfig)
	}
	kind, err := ParseKind(e.Kind)
	if err != nil {
		return Config{}, fmt.Errorf("solver %q: %w", e.Name, err)
	}
	cfg := DefaultConfig(kind)
	cfg.Name = e.Name
	if e.Rule != "" {
		if cfg.Rule, err = ParseRule(e.Rule); err != nil {
			return Config{}, fmt.Errorf("solver %q: %w", e.Name, err)
		}
	}
	cfg.Seed = e.Seed
	if e.MaxIterations != 0 {
		cfg.MaxIterations = e.MaxIterations
	}
	if e.Tenure != 0 {
		cfg.Tenure = e.Tenure
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("solver %q: %w", e.Name, err)
	}
	return cfg, nil
}

// ParseConfig decodes the solvers declared in a YAML document.
func ParseConfig(data []byte) ([]Config, error) {
	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	configs := make([]Config, 0, len(file.Solvers))
	for _, e := range file.Solvers {
		cfg, err := e.config()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// LoadConfigFile reads a YAML file declaring named solvers and registers them.
func (r *Registry) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read solver config: %w", err)
	}
	configs, err := ParseConfig(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, cfg := range configs {
		if err := r.Register(cfg); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
