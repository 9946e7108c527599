// Package hooks lets callers observe and veto steps of a discovery run.
// Hooks are called synchronously from the miner, possibly from several
// goroutines at once when sibling recursion runs in parallel.
package hooks

import (
	"context"
	"sync"

	"github.com/logflow/procmine/pkg/tree"
)

// HookManager manages all registered hooks.
type HookManager struct {
	mu sync.RWMutex

	preMineHooks []PreMineHook
	cutHooks     []CutHook
	nodeHooks    []NodeHook
	doneHooks    []DoneHook
	errorHooks   []ErrorHook
}

// NewHookManager creates a new hook manager.
func NewHookManager() *HookManager {
	return &HookManager{}
}

// PreMineHook is called before a (sub-)log is mined.
// Returning an error aborts the run.
type PreMineHook func(ctx context.Context, info *MineInfo) error

// MineInfo describes the log about to be mined.
type MineInfo struct {
	Depth      int
	Traces     int
	Events     int
	Activities []string
}

// CutHook is called when a cut has been chosen and the log split.
type CutHook func(ctx context.Context, info *CutInfo) error

// CutInfo describes a chosen cut.
type CutInfo struct {
	Depth     int
	Operator  string
	Groups    [][]string
	Threshold float64
	Discarded int
}

// NodeHook sees every node before it is appended and may rewrite it.
// Children referenced by the node already exist in the tree.
type NodeHook func(ctx context.Context, n tree.Node) (tree.Node, error)

// DoneHook is called once a run finishes, cancelled or not.
type DoneHook func(ctx context.Context, info *RunInfo) error

// RunInfo summarises a finished discovery run.
type RunInfo struct {
	Root      tree.NodeID
	Nodes     int
	Cancelled bool
	Discarded map[float64]int
	Duration  int64 // nanoseconds
}

// ErrorHook is called when a run fails.
type ErrorHook func(ctx context.Context, err error, phase string) error

// RegisterPreMine adds a pre-mine hook.
func (m *HookManager) RegisterPreMine(hook PreMineHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preMineHooks = append(m.preMineHooks, hook)
}

// RegisterCut adds a cut hook.
func (m *HookManager) RegisterCut(hook CutHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutHooks = append(m.cutHooks, hook)
}

// RegisterNode adds a node hook.
func (m *HookManager) RegisterNode(hook NodeHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeHooks = append(m.nodeHooks, hook)
}

// RegisterDone adds a completion hook.
func (m *HookManager) RegisterDone(hook DoneHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doneHooks = append(m.doneHooks, hook)
}

// RegisterError adds an error hook.
func (m *HookManager) RegisterError(hook ErrorHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorHooks = append(m.errorHooks, hook)
}

// RunPreMine executes all pre-mine hooks.
func (m *HookManager) RunPreMine(ctx context.Context, info *MineInfo) error {
	m.mu.RLock()
	hooks := m.preMineHooks
	m.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, info); err != nil {
			return err
		}
	}
	return nil
}

// RunCut executes all cut hooks.
func (m *HookManager) RunCut(ctx context.Context, info *CutInfo) error {
	m.mu.RLock()
	hooks := m.cutHooks
	m.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, info); err != nil {
			return err
		}
	}
	return nil
}

// RunNode passes n through all node hooks in registration order.
func (m *HookManager) RunNode(ctx context.Context, n tree.Node) (tree.Node, error) {
	m.mu.RLock()
	hooks := m.nodeHooks
	m.mu.RUnlock()

	var err error
	for _, hook := range hooks {
		n, err = hook(ctx, n)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// RunDone executes all completion hooks; every hook runs and the first
// error is returned.
func (m *HookManager) RunDone(ctx context.Context, info *RunInfo) error {
	m.mu.RLock()
	hooks := m.doneHooks
	m.mu.RUnlock()

	var first error
	for _, hook := range hooks {
		if err := hook(ctx, info); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RunError executes all error hooks.
func (m *HookManager) RunError(ctx context.Context, err error, phase string) error {
	m.mu.RLock()
	hooks := m.errorHooks
	m.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, err, phase); hookErr != nil {
			return hookErr
		}
	}
	return nil
}

// Clear removes all hooks.
func (m *HookManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.preMineHooks = nil
	m.cutHooks = nil
	m.nodeHooks = nil
	m.doneHooks = nil
	m.errorHooks = nil
}

// --- Built-in Hooks ---

// RenameActivities returns a node hook that relabels activity leaves
// through mapping; labels missing from mapping are kept.
func RenameActivities(mapping map[string]string) NodeHook {
	return func(ctx context.Context, n tree.Node) (tree.Node, error) {
		if n.Kind != tree.KindActivity {
			return n, nil
		}
		if to, ok := mapping[n.Label]; ok {
			n.Label = to
		}
		return n, nil
	}
}

// MaxDepth returns a pre-mine hook that aborts runs recursing deeper than
// limit.
func MaxDepth(limit int) PreMineHook {
	return func(ctx context.Context, info *MineInfo) error {
		if info.Depth > limit {
			return &DepthError{Depth: info.Depth, Limit: limit}
		}
		return nil
	}
}

// DepthError is returned by the MaxDepth hook.
type DepthError struct {
	Depth, Limit int
}

func (e *DepthError) Error() string {
	return "recursion depth limit exceeded"
}
