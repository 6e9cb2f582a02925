package solver

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"jobshop/neighborhood"
)

var (
	ErrUnknownSolver = errors.New("unknown solver")
	ErrUnknownRule   = errors.New("unknown priority rule")
	ErrInvalidConfig = errors.New("invalid solver config")
)

// Kind enumerates the solver strategies.
type Kind uint8

const (
	KindBasic Kind = iota
	KindRandom
	KindGreedy
	KindDescent
	KindTaboo
)

var kindNames = [...]string{"basic", "random", "greedy", "descent", "taboo"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a kind name such as "taboo" to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: kind %q", ErrInvalidConfig, name)
}

// Config fully describes a solver. Rule is the greedy rule, or for Descent and Taboo the
// rule of their greedy base solver.
type Config struct {
	Name          string
	Kind          Kind
	Rule          Rule
	Seed          int64
	MaxIterations int
	Tenure        int
}

// DefaultConfig returns the configuration behind the plain kind name.
func DefaultConfig(kind Kind) Config {
	cfg := Config{Name: kind.String(), Kind: kind, Rule: ESTLRPT}
	switch kind {
	case KindGreedy:
		cfg.Rule = SPT
	case KindTaboo:
		cfg.MaxIterations = 200
		cfg.Tenure = 5
	}
	return cfg
}

func (c Config) Validate() error {
	if c.Kind > KindTaboo {
		return fmt.Errorf("%w: kind %v", ErrInvalidConfig, c.Kind)
	}
	if c.Rule > ESTLRPT {
		return fmt.Errorf("%w: rule %v", ErrInvalidConfig, c.Rule)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations must be >= 0 (got %d)", ErrInvalidConfig, c.MaxIterations)
	}
	if c.Kind == KindTaboo {
		if c.MaxIterations <= 0 {
			return fmt.Errorf("%w: taboo needs max iterations > 0 (got %d)", ErrInvalidConfig, c.MaxIterations)
		}
		if c.Tenure <= 0 {
			return fmt.Errorf("%w: taboo needs tenure > 0 (got %d)", ErrInvalidConfig, c.Tenure)
		}
	}
	return nil
}

// Names lists every built-in solver name understood by ParseName.
func Names() []string {
	names := []string{KindBasic.String(), KindRandom.String()}
	for _, r := range Rules() {
		names = append(names, strings.ToLower(r.String()))
	}
	names = append(names, KindDescent.String())
	for _, r := range Rules() {
		names = append(names, KindDescent.String()+"-"+strings.ToLower(r.String()))
	}
	names = append(names, KindTaboo.String())
	for _, r := range Rules() {
		names = append(names, KindTaboo.String()+"-"+strings.ToLower(r.String()))
	}
	return names
}

// ParseName resolves a built-in solver name: "basic", "random", a rule name such as "spt"
// or "est_lrpt" for Greedy, and "descent", "taboo" optionally suffixed with the base rule
// ("taboo-est_spt").
func ParseName(name string) (Config, error) {
	lower := strings.ToLower(name)
	switch lower {
	case KindBasic.String():
		return DefaultConfig(KindBasic), nil
	case KindRandom.String():
		return DefaultConfig(KindRandom), nil
	}
	if rule, err := ParseRule(lower); err == nil {
		cfg := DefaultConfig(KindGreedy)
		cfg.Name, cfg.Rule = lower, rule
		return cfg, nil
	}
	for _, kind := range []Kind{KindDescent, KindTaboo} {
		prefix := kind.String()
		if lower == prefix {
			return DefaultConfig(kind), nil
		}
		if suffix, ok := strings.CutPrefix(lower, prefix+"-"); ok {
			rule, err := ParseRule(suffix)
			if err != nil {
				return Config{}, fmt.Errorf("%w: %q: %w", ErrUnknownSolver, name, err)
			}
			cfg := DefaultConfig(kind)
			cfg.Name, cfg.Rule = lower, rule
			return cfg, nil
		}
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
}

// New builds the solver described by cfg. Descent and Taboo start from a Greedy solver
// with cfg.Rule and use the Nowicki neighborhood.
func New(cfg Config, logger *slog.Logger) (Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("solver", cfg.Name)
	}
	switch cfg.Kind {
	case KindBasic:
		return Basic{}, nil
	case KindRandom:
		return Random{Seed: cfg.Seed, MaxIterations: cfg.MaxIterations, Logger: logger}, nil
	case KindGreedy:
		return Greedy{Rule: cfg.Rule, Logger: logger}, nil
	case KindDescent:
		return Descent{
			Base:          Greedy{Rule: cfg.Rule, Logger: logger},
			Neighborhood:  neighborhood.Nowicki{},
			MaxIterations: cfg.MaxIterations,
			Logger:        logger,
		}, nil
	case KindTaboo:
		return Taboo{
			Base:          Greedy{Rule: cfg.Rule, Logger: logger},
			Neighborhood:  neighborhood.Nowicki{},
			MaxIterations: cfg.MaxIterations,
			Tenure:        cfg.Tenure,
			Logger:        logger,
		}, nil
	}
	return nil, fmt.Errorf("%w: kind %v", ErrInvalidConfig, cfg.Kind)
}

// Registry resolves solver names: configurations registered from a file first, then the
// built-in names.
type Registry struct {
	custom map[string]Config
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{custom: map[string]Config{}, logger: logger}
}

// Register adds a named configuration, replacing any earlier one with the same name.
func (r *Registry) Register(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("solver %q: %w", cfg.Name, err)
	}
	r.custom[strings.ToLower(cfg.Name)] = cfg
	return nil
}

// Config returns the configuration a name resolves to.
func (r *Registry) Config(name string) (Config, error) {
	if cfg, ok := r.custom[strings.ToLower(name)]; ok {
		return cfg, nil
	}
	return ParseName(name)
}

func (r *Registry) Lookup(name string) (Solver, error) {
	cfg, err := r.Config(name)
	if err != nil {
		return nil, err
	}
	return New(cfg, r.logger)
}

// Names lists registered and built-in names, registered ones first and sorted.
func (r *Registry) Names() []string {
	custom := make([]string, 0, len(r.custom))
	for name := range r.custom {
		custom = append(custom, name)
	}
	slices.Sort(custom)
	return append(custom, Names()...)
}
