package input

import "sync"

// Actions holds the boolean action signals for the current frame. Held
// signals stay active until released; pulsed signals are active for exactly
// one frame and cleared by EndFrame.
type Actions struct {
	mu     sync.Mutex
	held   map[Path]bool
	pulsed map[Path]bool
}

func NewActions() *Actions {
	return &Actions{
		held:   make(map[Path]bool),
		pulsed: make(map[Path]bool),
	}
}

func (a *Actions) Get(path Path) bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.held[path] || a.pulsed[path]
}

func (a *Actions) Press(path Path) {
	a.mu.Lock()
	a.held[path] = true
	a.mu.Unlock()
}

func (a *Actions) Release(path Path) {
	a.mu.Lock()
	delete(a.held, path)
	a.mu.Unlock()
}

// Pulse activates path for the current frame only.
func (a *Actions) Pulse(path Path) {
	a.mu.Lock()
	a.pulsed[path] = true
	a.mu.Unlock()
}

func (a *Actions) EndFrame() {
	a.mu.Lock()
	clear(a.pulsed)
	a.mu.Unlock()
}

func (a *Actions) Clear() {
	a.mu.Lock()
	clear(a.held)
	clear(a.pulsed)
	a.mu.Unlock()
}
