package media

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/Versifine/grasp/internal/interaction"
	"github.com/Versifine/grasp/internal/network"
	"github.com/Versifine/grasp/internal/physics"
	"github.com/Versifine/grasp/internal/scene"
	"github.com/Versifine/grasp/internal/vmath"
	"github.com/google/uuid"
)

const idPrefix = "media-"

// Instantiator builds spawned media objects out of the library: a scene
// node, a dynamic body that loads over a few physics steps, local ownership
// and a registered handle.
type Instantiator struct {
	library  *Library
	graph    *scene.Graph
	world    *physics.World
	owners   *network.Ownership
	registry *interaction.Registry
	newID    func() string

	mu      sync.Mutex
	spawned map[string]interaction.Origin
}

func NewInstantiator(library *Library, graph *scene.Graph, world *physics.World, owners *network.Ownership, registry *interaction.Registry) *Instantiator {
	m := &Instantiator{
		library:  library,
		graph:    graph,
		world:    world,
		owners:   owners,
		registry: registry,
		newID:    func() string { return idPrefix + uuid.NewString() },
		spawned:  make(map[string]interaction.Origin),
	}
	graph.OnRemove(m.forget)
	return m
}

// forget drops id once its node leaves the graph by any path.
func (m *Instantiator) forget(id string) {
	m.mu.Lock()
	delete(m.spawned, id)
	m.mu.Unlock()
}

func (m *Instantiator) Instantiate(req interaction.SpawnRequest) (interaction.SpawnedObject, error) {
	asset, err := m.library.Lookup(req.Src, req.Resolve)
	if err != nil {
		return interaction.SpawnedObject{}, err
	}
	caps, ok := m.library.Template(req.Template)
	if !ok {
		return interaction.SpawnedObject{}, fmt.Errorf("unknown template %q", req.Template)
	}

	id := m.newID()
	if err := m.graph.Add(scene.Node{ID: id}); err != nil {
		return interaction.SpawnedObject{}, fmt.Errorf("add media node: %w", err)
	}
	if err := m.registry.Register(interaction.Handle{ID: id, Caps: caps}); err != nil {
		m.graph.Remove(id)
		return interaction.SpawnedObject{}, err
	}

	half := asset.Half
	if req.Resize {
		half = fitHalf(half)
	}
	_, loaded := m.world.AddBody(physics.BodySpec{
		Element:   id,
		Half:      half,
		Mode:      physics.Dynamic,
		LoadTicks: asset.LoadTicks,
	})
	m.owners.TakeOwnership(id)

	m.mu.Lock()
	m.spawned[id] = req.Origin
	m.mu.Unlock()

	slog.Debug("media instantiated", "id", id, "src", asset.Src, "origin", string(req.Origin))
	return interaction.SpawnedObject{ID: id, Loaded: loaded}, nil
}

// Despawn removes id from the scene, physics and ownership tables. Unknown
// ids are ignored.
func (m *Instantiator) Despawn(id string) {
	m.mu.Lock()
	_, ok := m.spawned[id]
	delete(m.spawned, id)
	m.mu.Unlock()
	if !ok {
		return
	}

	m.graph.Remove(id)
	m.registry.Unregister(id)
	m.world.RemoveElement(id)
	m.owners.Forget(id)
	slog.Debug("media despawned", "id", id)
}

// Spawned lists live media ids in order.
func (m *Instantiator) Spawned() []string {
	m.mu.Lock()
	out := make([]string, 0, len(m.spawned))
	for id := range m.spawned {
		out = append(out, id)
	}
	m.mu.Unlock()
	sort.Strings(out)
	return out
}

// fitHalf scales half uniformly so its largest axis matches the default
// body extent.
func fitHalf(half vmath.Vec3) vmath.Vec3 {
	largest := math.Max(math.Abs(half.X), math.Max(math.Abs(half.Y), math.Abs(half.Z)))
	if largest == 0 {
		return half
	}
	return half.Scale(physics.DefaultHalfExtent / largest)
}
