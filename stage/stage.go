// Package stage tracks the engine's lifecycle stage and lets goroutines wait
// for a stage to be reached.
package stage

import "sync"

type Stage string

const (
	Init         Stage = "Init"         // The default stage of the engine
	Starting     Stage = "Starting"     // Engine is moved to this stage when Start() is called
	Running      Stage = "Running"      // Engine is ticking
	ShuttingDown Stage = "ShuttingDown" // Engine received a shutdown signal
	ShutDown     Stage = "ShutDown"     // Engine has fully stopped
)

type Manager struct {
	mu       sync.Mutex
	current  Stage
	watchers map[Stage][]chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		current:  Init,
		watchers: map[Stage][]chan struct{}{},
	}
}

func (m *Manager) Current() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) Store(stage Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(stage)
}

// CompareAndSwap moves to newStage only if the current stage is oldStage,
// reporting whether the swap happened. Exactly one caller wins a contested
// transition.
func (m *Manager) CompareAndSwap(oldStage, newStage Stage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != oldStage {
		return false
	}
	m.store(newStage)
	return true
}

// NotifyOnStage returns a channel that is closed when the given stage is
// reached. If the engine is already at that stage the channel is returned
// closed.
func (m *Manager) NotifyOnStage(stage Stage) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	if m.current == stage {
		close(ch)
		return ch
	}
	m.watchers[stage] = append(m.watchers[stage], ch)
	return ch
}

func (m *Manager) store(stage Stage) {
	m.current = stage
	for _, ch := range m.watchers[stage] {
		close(ch)
	}
	delete(m.watchers, stage)
}
