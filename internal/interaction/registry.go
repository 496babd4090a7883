package interaction

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Versifine/grasp/internal/vmath"
)

var (
	ErrDuplicateHandle = errors.New("interactable already registered")
	ErrInvalidSpawner  = errors.New("invalid spawner configuration")
)

// maxAncestorDepth bounds Resolve's parent walk.
const maxAncestorDepth = 256

// SpawnerConfig is the content-authored configuration of a spawner.
// Custom transforms are required when their Use flag is set.
type SpawnerConfig struct {
	Src      string
	Template string
	Resolve  bool
	Resize   bool

	UseCustomSpawnPosition bool
	SpawnPosition          *vmath.Vec3
	UseCustomSpawnRotation bool
	SpawnRotation          *vmath.Quat
	UseCustomSpawnScale    bool
	SpawnScale             *vmath.Vec3

	CenterSpawnedObject bool
}

func (c *SpawnerConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: missing spawner config", ErrInvalidSpawner)
	}
	if c.Src == "" {
		return fmt.Errorf("%w: src is empty", ErrInvalidSpawner)
	}
	if c.UseCustomSpawnPosition && c.SpawnPosition == nil {
		return fmt.Errorf("%w: use_custom_spawn_position without spawn_position", ErrInvalidSpawner)
	}
	if c.UseCustomSpawnRotation && c.SpawnRotation == nil {
		return fmt.Errorf("%w: use_custom_spawn_rotation without spawn_rotation", ErrInvalidSpawner)
	}
	if c.UseCustomSpawnScale && c.SpawnScale == nil {
		return fmt.Errorf("%w: use_custom_spawn_scale without spawn_scale", ErrInvalidSpawner)
	}
	return nil
}

// Handle is the registered identity of an interactable scene object. The
// scene graph owns the object; the registry only indexes it by id.
type Handle struct {
	ID      string
	Caps    Capability
	Spawner *SpawnerConfig
}

// Hierarchy exposes the parent relation of the scene graph.
type Hierarchy interface {
	Parent(id string) (string, bool)
}

// Registry indexes interactable handles by scene object id and resolves any
// object to its nearest registered ancestor.
type Registry struct {
	mu      sync.RWMutex
	tree    Hierarchy
	handles map[string]Handle
}

func NewRegistry(tree Hierarchy) *Registry {
	return &Registry{
		tree:    tree,
		handles: make(map[string]Handle),
	}
}

// Register validates h and indexes it. Spawner content errors surface here,
// not when the spawner is first grabbed.
func (r *Registry) Register(h Handle) error {
	if h.ID == "" {
		return fmt.Errorf("register interactable: empty id")
	}
	if h.Caps.Has(Spawner) {
		if err := h.Spawner.Validate(); err != nil {
			return fmt.Errorf("register %q: %w", h.ID, err)
		}
	} else if h.Spawner != nil {
		return fmt.Errorf("register %q: %w: spawner config on object without spawner capability", h.ID, ErrInvalidSpawner)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handles[h.ID]; exists {
		return fmt.Errorf("register %q: %w", h.ID, ErrDuplicateHandle)
	}
	r.handles[h.ID] = h
	return nil
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.handles, id)
	r.mu.Unlock()
}

// Lookup returns the handle registered exactly at id.
func (r *Registry) Lookup(id string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Resolve walks from id up the parent chain and returns the first registered
// handle carrying marker. Unknown ids resolve to nothing.
func (r *Registry) Resolve(id string, marker Capability) (Handle, bool) {
	if r == nil || id == "" {
		return Handle{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur := id
	for depth := 0; depth < maxAncestorDepth; depth++ {
		if h, ok := r.handles[cur]; ok && h.Caps.Has(marker) {
			return h, true
		}
		if r.tree == nil {
			return Handle{}, false
		}
		parent, ok := r.tree.Parent(cur)
		if !ok {
			return Handle{}, false
		}
		cur = parent
	}
	return Handle{}, false
}

// Handles lists registered handles ordered by id.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	out := make([]Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
