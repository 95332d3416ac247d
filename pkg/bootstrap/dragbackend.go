package bootstrap

import "sync"

// The drag-and-drop backend is a process-wide singleton: registering it
// twice fails. Route modules register it on load, so a module swap must
// reset the registration first.

var dragBackend struct {
	mu         sync.Mutex
	registered bool
}

// RegisterDragBackend marks the backend registered. It reports false
// when a backend is already registered.
func RegisterDragBackend() bool {
	dragBackend.mu.Lock()
	defer dragBackend.mu.Unlock()
	if dragBackend.registered {
		return false
	}
	dragBackend.registered = true
	return true
}

func resetDragBackend() {
	dragBackend.mu.Lock()
	defer dragBackend.mu.Unlock()
	dragBackend.registered = false
}
