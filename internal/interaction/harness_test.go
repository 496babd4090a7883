package interaction

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Versifine/grasp/internal/input"
	"github.com/Versifine/grasp/internal/network"
	"github.com/Versifine/grasp/internal/physics"
	"github.com/Versifine/grasp/internal/scene"
	"github.com/Versifine/grasp/internal/vmath"
)

const (
	leftPose   = "player-left-controller"
	rightPose  = "player-right-controller"
	cursorPose = "cursor"
	localID    = "me"
)

type recordedEvent struct {
	Target  string
	Name    string
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Dispatch(target, name string, payload any) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{Target: target, Name: name, Payload: payload})
	r.mu.Unlock()
}

func (r *recorder) Publish(name string, evt any) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{Name: name, Payload: evt})
	r.mu.Unlock()
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (r *recorder) last(name string) (recordedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return recordedEvent{}, false
}

type fakeCooldowns struct {
	activated []string
	active    map[string]bool
}

func (c *fakeCooldowns) Activate(spawner string) {
	c.activated = append(c.activated, spawner)
}

func (c *fakeCooldowns) Active(spawner string) bool {
	return c.active[spawner]
}

// fakeInstantiator creates scene nodes with dynamic bodies that load after
// loadTicks physics steps.
type fakeInstantiator struct {
	graph     *scene.Graph
	registry  *Registry
	caps      Capability
	world     *physics.World
	owners    *network.Ownership
	loadTicks int
	err       error
	seq       int
	requests  []SpawnRequest
	despawned []string
}

func (f *fakeInstantiator) Instantiate(req SpawnRequest) (SpawnedObject, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return SpawnedObject{}, f.err
	}
	f.seq++
	id := fmt.Sprintf("spawned-%d", f.seq)
	if err := f.graph.Add(scene.Node{ID: id}); err != nil {
		return SpawnedObject{}, err
	}
	if f.registry != nil && f.caps != 0 {
		if err := f.registry.Register(Handle{ID: id, Caps: f.caps}); err != nil {
			return SpawnedObject{}, err
		}
	}
	_, loaded := f.world.AddBody(physics.BodySpec{Element: id, Mode: physics.Dynamic, LoadTicks: f.loadTicks})
	f.owners.TakeOwnership(id)
	return SpawnedObject{ID: id, Loaded: loaded}, nil
}

func (f *fakeInstantiator) Despawn(id string) {
	f.despawned = append(f.despawned, id)
	f.graph.Remove(id)
	f.world.RemoveElement(id)
	f.owners.Forget(id)
}

type harness struct {
	t         *testing.T
	graph     *scene.Graph
	world     *physics.World
	registry  *Registry
	owners    *network.Ownership
	actions   *input.Actions
	events    *recorder
	cooldowns *fakeCooldowns
	media     *fakeInstantiator
	now       time.Time
	arbiter   *Arbiter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		graph:     scene.NewGraph(),
		world:     physics.NewWorld(),
		owners:    network.NewOwnership(localID),
		actions:   input.NewActions(),
		events:    &recorder{},
		cooldowns: &fakeCooldowns{active: make(map[string]bool)},
		now:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	h.registry = NewRegistry(h.graph)
	h.graph.OnRemove(h.registry.Unregister)
	h.media = &fakeInstantiator{graph: h.graph, world: h.world, owners: h.owners, loadTicks: 2}

	far := vmath.V3(100, 100, 100)
	h.addNode(leftPose, "", far)
	h.addNode(rightPose, "", far.Add(vmath.V3(10, 0, 0)))
	h.addNode(cursorPose, "", vmath.V3(0, 1.6, 0))
	half := vmath.V3(physics.HandHalfExtent, physics.HandHalfExtent, physics.HandHalfExtent)
	h.world.AddBody(physics.BodySpec{Element: leftPose, Half: half})
	h.world.AddBody(physics.BodySpec{Element: rightPose, Half: half})
	h.world.Sync(h.graph)

	arb, err := NewArbiter(Deps{
		Registry:     h.registry,
		Signals:      h.actions,
		Owners:       h.owners,
		Collisions:   h.world,
		Bodies:       h.world,
		Scene:        h.graph,
		Instantiator: h.media,
		Cooldowns:    h.cooldowns,
		Dispatcher:   h.events,
		Publisher:    h.events,
		Teleporter:   SignalTeleporter{Signals: h.actions},
		SpawnTimeout: 5 * time.Second,
		Now:          func() time.Time { return h.now },
	}, DefaultDescriptors(leftPose, rightPose, cursorPose))
	if err != nil {
		t.Fatalf("NewArbiter: %v", err)
	}
	h.arbiter = arb
	return h
}

func (h *harness) addNode(id, parent string, pos vmath.Vec3) {
	h.t.Helper()
	local := vmath.IdentityTransform()
	local.Position = pos
	if err := h.graph.Add(scene.Node{ID: id, Parent: parent, Local: local}); err != nil {
		h.t.Fatalf("add node %q: %v", id, err)
	}
}

// addInteractable places a registered object with a body at pos.
func (h *harness) addInteractable(id string, pos vmath.Vec3, caps Capability, spawner *SpawnerConfig) {
	h.t.Helper()
	h.addNode(id, "", pos)
	h.world.AddBody(physics.BodySpec{Element: id, Half: vmath.V3(0.2, 0.2, 0.2)})
	if err := h.registry.Register(Handle{ID: id, Caps: caps, Spawner: spawner}); err != nil {
		h.t.Fatalf("register %q: %v", id, err)
	}
	h.world.Sync(h.graph)
}

func (h *harness) moveHand(src Source, pos vmath.Vec3) {
	h.t.Helper()
	id := leftPose
	if src == RightHand {
		id = rightPose
	}
	h.graph.SetPosition(id, pos)
	h.world.Sync(h.graph)
}

// tick runs one frame the way the host does: physics, arbitration, input.
func (h *harness) tick(pulses ...input.Path) {
	for _, p := range pulses {
		h.actions.Pulse(p)
	}
	h.world.Step()
	h.arbiter.Tick()
	h.actions.EndFrame()
	h.assertExclusive()
}

func (h *harness) assertExclusive() {
	h.t.Helper()
	held := make(map[string]Source)
	for _, src := range sourceOrder {
		st := h.arbiter.State(src)
		if st.Held != "" && st.Hovered != "" {
			h.t.Fatalf("%s holds %q and hovers %q at once", src, st.Held, st.Hovered)
		}
		if st.Held == "" {
			continue
		}
		if other, dup := held[st.Held]; dup {
			h.t.Fatalf("%q held by both %s and %s", st.Held, other, src)
		}
		held[st.Held] = src
	}
}

func (h *harness) expectPhase(src Source, want Phase) {
	h.t.Helper()
	if got := h.arbiter.State(src).Phase(); got != want {
		h.t.Fatalf("%s phase = %s, want %s (state %+v)", src, got, want, h.arbiter.State(src))
	}
}

var errAssetMissing = errors.New("asset missing")
