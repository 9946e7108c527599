package discovery

import (
	"sort"
	"sync"

	"github.com/logflow/procmine/pkg/errors"
)

// Strategy families, as used in configuration and error context.
const (
	FamilyBaseCase      = "base-case"
	FamilyCut           = "cut"
	FamilySplitter      = "splitter"
	FamilyFallThrough   = "fall-through"
	FamilyPostProcessor = "post-processor"
	FamilyPolicy        = "policy"
)

// Registry maps strategy names to constructors so chains can be assembled
// from configuration.
type Registry struct {
	mu sync.RWMutex

	baseCases      map[string]func() BaseCaseFinder
	cuts           map[string]func() CutFinder
	splitters      map[string]func() Splitter
	fallThroughs   map[string]func() FallThrough
	postProcessors map[string]func() PostProcessor
	policies       map[string]func(Scorer) SelectionPolicy
}

// Global default registry
var defaultRegistry = NewRegistry()

func init() {
	r := defaultRegistry
	r.RegisterBaseCase("empty-log", func() BaseCaseFinder { return emptyLog{} })
	r.RegisterBaseCase("single-activity", func() BaseCaseFinder { return singleActivity{} })
	r.RegisterBaseCase("self-loop", func() BaseCaseFinder { return selfLoop{} })
	r.RegisterBaseCase("empty-traces", func() BaseCaseFinder { return emptyTraces{} })

	r.RegisterCut("sequence", func() CutFinder { return sequenceCut{} })
	r.RegisterCut("xor", func() CutFinder { return xorCut{} })
	r.RegisterCut("parallel", func() CutFinder { return parallelCut{} })
	r.RegisterCut("loop", func() CutFinder { return loopCut{} })
	r.RegisterCut("interleaved", func() CutFinder { return interleavedCut{} })
	r.RegisterCut("maybe-interleaved", func() CutFinder { return maybeInterleavedCut{} })

	r.RegisterSplitter("imf", func() Splitter { return imfSplitter{} })

	r.RegisterFallThrough("activity-once-per-trace", func() FallThrough { return activityOncePerTrace{} })
	r.RegisterFallThrough("activity-concurrent", func() FallThrough { return activityConcurrent{} })
	r.RegisterFallThrough("strict-tau-loop", func() FallThrough { return strictTauLoop{} })
	r.RegisterFallThrough("tau-loop", func() FallThrough { return tauLoop{} })
	r.RegisterFallThrough("flower", func() FallThrough { return flower{} })

	r.RegisterPostProcessor("flatten", func() PostProcessor { return flattenPostProcessor{} })
	r.RegisterPostProcessor("collapse-tau", func() PostProcessor { return collapseTauPostProcessor{} })

	r.RegisterPolicy("lowest", func(Scorer) SelectionPolicy { return lowestThreshold{} })
	r.RegisterPolicy("highest", func(Scorer) SelectionPolicy { return highestThreshold{} })
	r.RegisterPolicy("fewest-discards", func(Scorer) SelectionPolicy { return fewestDiscards{} })
	r.RegisterPolicy("scored", func(s Scorer) SelectionPolicy { return scored{scorer: s} })
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		baseCases:      make(map[string]func() BaseCaseFinder),
		cuts:           make(map[string]func() CutFinder),
		splitters:      make(map[string]func() Splitter),
		fallThroughs:   make(map[string]func() FallThrough),
		postProcessors: make(map[string]func() PostProcessor),
		policies:       make(map[string]func(Scorer) SelectionPolicy),
	}
}

// Default returns the registry holding the built-in strategies.
func Default() *Registry {
	return defaultRegistry
}

// RegisterBaseCase adds a base case constructor.
func (r *Registry) RegisterBaseCase(name string, f func() BaseCaseFinder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseCases[name] = f
}

// RegisterCut adds a cut finder constructor.
func (r *Registry) RegisterCut(name string, f func() CutFinder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cuts[name] = f
}

// RegisterSplitter adds a splitter constructor.
func (r *Registry) RegisterSplitter(name string, f func() Splitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.splitters[name] = f
}

// RegisterFallThrough adds a fall-through constructor.
func (r *Registry) RegisterFallThrough(name string, f func() FallThrough) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallThroughs[name] = f
}

// RegisterPostProcessor adds a post-processor constructor.
func (r *Registry) RegisterPostProcessor(name string, f func() PostProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postProcessors[name] = f
}

// RegisterPolicy adds a selection policy constructor. The scorer is nil
// unless the caller supplies one.
func (r *Registry) RegisterPolicy(name string, f func(Scorer) SelectionPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[name] = f
}

// ChainConfig names the strategies of each chain. A nil list selects the
// default chain; an empty list selects none.
type ChainConfig struct {
	BaseCases      []string `yaml:"base_cases"`
	Cuts           []string `yaml:"cuts"`
	Splitter       string   `yaml:"splitter"`
	FallThroughs   []string `yaml:"fall_throughs"`
	PostProcessors []string `yaml:"post_processors"`
}

// DefaultChainConfig returns the names of the IMf chains.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		BaseCases:      []string{"empty-log", "single-activity", "self-loop", "empty-traces"},
		Cuts:           []string{"sequence", "xor", "parallel", "loop", "interleaved", "maybe-interleaved"},
		Splitter:       "imf",
		FallThroughs:   []string{"activity-once-per-trace", "activity-concurrent", "strict-tau-loop", "tau-loop", "flower"},
		PostProcessors: []string{},
	}
}

// Chains assembles the chains named by cfg.
func (r *Registry) Chains(cfg ChainConfig) (Chains, error) {
	def := DefaultChainConfig()
	if cfg.BaseCases == nil {
		cfg.BaseCases = def.BaseCases
	}
	if cfg.Cuts == nil {
		cfg.Cuts = def.Cuts
	}
	if cfg.Splitter == "" {
		cfg.Splitter = def.Splitter
	}
	if cfg.FallThroughs == nil {
		cfg.FallThroughs = def.FallThroughs
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var c Chains
	var errs errors.MultiError
	for _, name := range cfg.BaseCases {
		if f, ok := r.baseCases[name]; ok {
			c.BaseCases = append(c.BaseCases, f())
		} else {
			errs.Add(errors.UnknownStrategy(FamilyBaseCase, name))
		}
	}
	for _, name := range cfg.Cuts {
		if f, ok := r.cuts[name]; ok {
			c.Cuts = append(c.Cuts, f())
		} else {
			errs.Add(errors.UnknownStrategy(FamilyCut, name))
		}
	}
	if f, ok := r.splitters[cfg.Splitter]; ok {
		c.Splitter = f()
	} else {
		errs.Add(errors.UnknownStrategy(FamilySplitter, cfg.Splitter))
	}
	for _, name := range cfg.FallThroughs {
		if f, ok := r.fallThroughs[name]; ok {
			c.FallThroughs = append(c.FallThroughs, f())
		} else {
			errs.Add(errors.UnknownStrategy(FamilyFallThrough, name))
		}
	}
	for _, name := range cfg.PostProcessors {
		if f, ok := r.postProcessors[name]; ok {
			c.PostProcessors = append(c.PostProcessors, f())
		} else {
			errs.Add(errors.UnknownStrategy(FamilyPostProcessor, name))
		}
	}
	if err := errs.Combined(); err != nil {
		return Chains{}, err
	}
	if err := c.validate(); err != nil {
		return Chains{}, err
	}
	return c, nil
}

// Policy constructs the named selection policy.
func (r *Registry) Policy(name string, scorer Scorer) (SelectionPolicy, error) {
	if name == "" {
		name = "lowest"
	}
	r.mu.RLock()
	f, ok := r.policies[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownStrategy(FamilyPolicy, name)
	}
	if name == "scored" && scorer == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "scored policy needs a scorer")
	}
	return f(scorer), nil
}

// List returns the registered names per family, sorted.
func (r *Registry) List() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string][]string{
		FamilyBaseCase:      keys(r.baseCases),
		FamilyCut:           keys(r.cuts),
		FamilySplitter:      keys(r.splitters),
		FamilyFallThrough:   keys(r.fallThroughs),
		FamilyPostProcessor: keys(r.postProcessors),
		FamilyPolicy:        keys(r.policies),
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
