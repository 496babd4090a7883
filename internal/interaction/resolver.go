package interaction

import (
	"sync"

	"github.com/Versifine/grasp/internal/physics"
)

// HoverResolver yields the interactable an actuator currently targets.
type HoverResolver interface {
	Resolve() (Handle, bool)
}

// CollisionHoverResolver resolves the target touched by a hand body.
type CollisionHoverResolver struct {
	registry   *Registry
	collisions Collisions
	element    string
}

func NewCollisionHoverResolver(registry *Registry, collisions Collisions, handElement string) *CollisionHoverResolver {
	return &CollisionHoverResolver{
		registry:   registry,
		collisions: collisions,
		element:    handElement,
	}
}

// Resolve scans the current collision pairs for the hand body and returns
// the first touched body that resolves to a hand collision target.
func (r *CollisionHoverResolver) Resolve() (Handle, bool) {
	if r == nil || r.collisions == nil || r.registry == nil {
		return Handle{}, false
	}
	hand, ok := r.collisions.BodyForElement(r.element)
	if !ok {
		return Handle{}, false
	}
	for _, pair := range r.collisions.CurrentCollisions() {
		other, ok := otherBody(pair, hand)
		if !ok {
			continue
		}
		element, ok := r.collisions.ElementForBody(other)
		if !ok {
			continue
		}
		if h, ok := r.registry.Resolve(element, HandCollisionTarget); ok {
			return h, true
		}
	}
	return Handle{}, false
}

func otherBody(pair physics.Pair, body physics.BodyID) (physics.BodyID, bool) {
	switch body {
	case pair.A:
		return pair.B, true
	case pair.B:
		return pair.A, true
	}
	return 0, false
}

// Intersection is the cursor ray's nearest hit for a frame.
type Intersection struct {
	Object   string
	Distance float64
}

// PointerHoverResolver keeps the latest cursor intersection pushed by the
// raycast pass and resolves it to a remote hover target.
type PointerHoverResolver struct {
	registry *Registry

	mu  sync.Mutex
	hit *Intersection
}

func NewPointerHoverResolver(registry *Registry) *PointerHoverResolver {
	return &PointerHoverResolver{registry: registry}
}

// Update replaces the stored intersection; nil clears it.
func (r *PointerHoverResolver) Update(hit *Intersection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit == nil {
		r.hit = nil
		return
	}
	cp := *hit
	r.hit = &cp
}

func (r *PointerHoverResolver) Intersection() (Intersection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hit == nil {
		return Intersection{}, false
	}
	return *r.hit, true
}

func (r *PointerHoverResolver) Resolve() (Handle, bool) {
	hit, ok := r.Intersection()
	if !ok {
		return Handle{}, false
	}
	return r.registry.Resolve(hit.Object, RemoteHoverTarget)
}
