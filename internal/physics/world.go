package physics

import (
	"sort"
	"sync"

	"github.com/Versifine/grasp/internal/vmath"
)

type BodyID uint32

// Pair is an ordered collision pair, A < B.
type Pair struct {
	A BodyID
	B BodyID
}

// Mode decides which side of a body/scene pair is authoritative on Sync.
type Mode int

const (
	// Kinematic bodies follow their scene element.
	Kinematic Mode = iota
	// Dynamic bodies follow their element until loaded and placed, then drive it.
	Dynamic
)

type BodySpec struct {
	Element string
	Half    vmath.Vec3
	Center  vmath.Vec3
	Mode    Mode
	// LoadTicks is the number of Step calls before the body reports loaded.
	// Zero loads immediately, LoadNever never loads.
	LoadTicks int
}

type body struct {
	id        BodyID
	element   string
	half      vmath.Vec3
	center    vmath.Vec3
	mode      Mode
	loaded    bool
	// placed is set once a loaded dynamic body has a position of its own,
	// from its first Sync or an explicit SetBodyPosition.
	placed    bool
	remaining int
	loadedCh  chan struct{}
}

// SceneAccess is the slice of the scene graph that Sync needs.
type SceneAccess interface {
	World(id string) (vmath.Transform, bool)
	SetPosition(id string, pos vmath.Vec3) bool
}

// World is a broad-phase only physics table: boxes, overlaps and load state.
type World struct {
	mu        sync.RWMutex
	nextID    BodyID
	bodies    map[BodyID]*body
	byElement map[string]BodyID
}

func NewWorld() *World {
	return &World{
		bodies:    make(map[BodyID]*body),
		byElement: make(map[string]BodyID),
	}
}

// AddBody creates a body for spec.Element, replacing any previous body of
// that element. The returned channel is closed once the body is loaded.
func (w *World) AddBody(spec BodySpec) (BodyID, <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.byElement[spec.Element]; ok {
		w.removeLocked(old)
	}
	w.nextID++
	b := &body{
		id:        w.nextID,
		element:   spec.Element,
		half:      normalizeHalf(spec.Half),
		center:    spec.Center,
		mode:      spec.Mode,
		remaining: spec.LoadTicks,
		loadedCh:  make(chan struct{}),
	}
	if spec.LoadTicks == 0 {
		b.loaded = true
		close(b.loadedCh)
	}
	w.bodies[b.id] = b
	if spec.Element != "" {
		w.byElement[spec.Element] = b.id
	}
	return b.id, b.loadedCh
}

func (w *World) RemoveBody(id BodyID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(id)
}

func (w *World) RemoveElement(element string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id, ok := w.byElement[element]; ok {
		w.removeLocked(id)
	}
}

func (w *World) removeLocked(id BodyID) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	delete(w.bodies, id)
	if w.byElement[b.element] == id {
		delete(w.byElement, b.element)
	}
}

func (w *World) BodyForElement(element string) (BodyID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.byElement[element]
	return id, ok
}

func (w *World) ElementForBody(id BodyID) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[id]
	if !ok || b.element == "" {
		return "", false
	}
	return b.element, true
}

func (w *World) IsLoaded(id BodyID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[id]
	return ok && b.loaded
}

func (w *World) BodyPosition(id BodyID) (vmath.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[id]
	if !ok {
		return vmath.Vec3{}, false
	}
	return b.center, true
}

func (w *World) SetBodyPosition(id BodyID, pos vmath.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	b.center = pos
	if b.loaded {
		b.placed = true
	}
	return true
}

// CurrentCollisions returns every overlapping pair of loaded bodies, sorted
// so that callers scanning for the first hit see a stable order.
func (w *World) CurrentCollisions() []Pair {
	w.mu.RLock()
	loaded := make([]*body, 0, len(w.bodies))
	for _, b := range w.bodies {
		if b.loaded {
			loaded = append(loaded, b)
		}
	}
	w.mu.RUnlock()

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].id < loaded[j].id })

	var pairs []Pair
	for i := 0; i < len(loaded); i++ {
		a := BoxAt(loaded[i].center, loaded[i].half)
		for j := i + 1; j < len(loaded); j++ {
			if intersects(a, BoxAt(loaded[j].center, loaded[j].half)) {
				pairs = append(pairs, Pair{A: loaded[i].id, B: loaded[j].id})
			}
		}
	}
	return pairs
}

// Step advances pending body loads by one tick.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range w.bodies {
		if b.loaded || b.remaining < 0 {
			continue
		}
		b.remaining--
		if b.remaining <= 0 {
			b.loaded = true
			close(b.loadedCh)
		}
	}
}

// Sync copies scene positions into kinematic bodies and loaded dynamic body
// positions back into the scene.
func (w *World) Sync(s SceneAccess) {
	if s == nil {
		return
	}
	type writeBack struct {
		element string
		pos     vmath.Vec3
	}
	var back []writeBack

	w.mu.Lock()
	for _, b := range w.bodies {
		if b.element == "" {
			continue
		}
		if b.mode == Dynamic && b.placed {
			back = append(back, writeBack{element: b.element, pos: b.center})
			continue
		}
		// Kinematic bodies, and dynamic ones not yet placed, follow the scene.
		if t, ok := s.World(b.element); ok {
			b.center = t.Position
		}
		if b.mode == Dynamic && b.loaded {
			b.placed = true
		}
	}
	w.mu.Unlock()

	for _, wb := range back {
		s.SetPosition(wb.element, wb.pos)
	}
}

func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.bodies)
}
