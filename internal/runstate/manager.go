// Package runstate tracks batch runs across restarts and guards against
// overlapping runs.
package runstate

import (
	"sync"

	"go.uber.org/zap"

	"InsiderSentinel/internal/model"
)

// Manager owns the persisted run state with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.RunState
	running  bool
	filePath string
	log      *zap.Logger
}

// NewManager creates a Manager, loading state from disk. An empty filePath
// keeps state in memory only.
func NewManager(filePath string, log *zap.Logger) (*Manager, error) {
	state := &model.RunState{}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{state: state, filePath: filePath, log: log}, nil
}

// GetState returns a copy of the current state.
func (m *Manager) GetState() model.RunState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := *m.state
	if st.LastRun != nil {
		last := *st.LastRun
		st.LastRun = &last
	}
	return st
}

// Running reports whether a batch is in progress.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// TryStart marks a batch as running. It returns false if one already is.
func (m *Manager) TryStart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	return true
}

// Finish records the outcome of the batch started by TryStart. sum may be
// nil when the run failed before producing a summary.
func (m *Manager) Finish(sum *model.RunSummary, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	m.state.TotalRuns++
	if sum != nil {
		last := *sum
		m.state.LastRun = &last
		m.state.TotalTrades += sum.Trades
	}
	m.state.LastError = ""
	if runErr != nil {
		m.state.LastError = runErr.Error()
	}

	if err := m.save(); err != nil {
		m.log.Error("failed to save run state", zap.Error(err))
	}
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
