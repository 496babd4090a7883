package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Versifine/grasp/internal/event"
	"github.com/Versifine/grasp/internal/logger"
)

const DefaultSpawnTimeout = 10 * time.Second

// Arbiter owns the three actuators and decides, once per frame, which of
// them hovers, grabs, holds, drops or spawns. Tick and the queries must be
// called from the same goroutine.
type Arbiter struct {
	deps      Deps
	actuators [len(sourceOrder)]*actuator
	pointer   *PointerHoverResolver
	spawns    map[Source]*spawnTask
	log       *slog.Logger

	pointerEnabled bool
	frame          uint64
}

// NewArbiter wires descriptors to their resolvers. Hands without a Hover
// resolver use the collision set around their Pose element; the cursor uses
// the pointer intersection pushed by UpdatePointerIntersection.
func NewArbiter(deps Deps, descriptors map[Source]Descriptor) (*Arbiter, error) {
	if deps.Registry == nil {
		return nil, errors.New("arbiter: registry is nil")
	}
	if deps.Signals == nil {
		return nil, errors.New("arbiter: signals are nil")
	}
	if deps.Scene == nil {
		return nil, errors.New("arbiter: scene is nil")
	}
	if deps.SpawnTimeout <= 0 {
		deps.SpawnTimeout = DefaultSpawnTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	a := &Arbiter{
		deps:           deps,
		pointer:        NewPointerHoverResolver(deps.Registry),
		spawns:         make(map[Source]*spawnTask),
		log:            deps.Logger,
		pointerEnabled: true,
	}

	for _, src := range sourceOrder {
		desc, ok := descriptors[src]
		if !ok {
			return nil, fmt.Errorf("arbiter: missing descriptor for %s", src)
		}
		if desc.Grab == "" || desc.Drop == "" {
			return nil, fmt.Errorf("arbiter: %s needs grab and drop paths", src)
		}
		if desc.Hover == nil {
			if src == Cursor {
				desc.Hover = a.pointer
			} else {
				if deps.Collisions == nil {
					return nil, fmt.Errorf("arbiter: %s needs a collision source", src)
				}
				desc.Hover = NewCollisionHoverResolver(deps.Registry, deps.Collisions, desc.Pose)
			}
		}
		a.actuators[src] = &actuator{
			source: src,
			desc:   desc,
			log:    deps.Logger.With(logger.SourceKey, src.String()),
		}
	}
	return a, nil
}

// UpdatePointerIntersection stores the cursor hit for the next Tick. The
// raycast pass should push nil while PointerEnabled is false.
func (a *Arbiter) UpdatePointerIntersection(hit *Intersection) {
	a.pointer.Update(hit)
}

// Tick runs one frame of arbitration.
func (a *Arbiter) Tick() {
	a.frame++
	a.pollSpawns()

	left := a.actuators[LeftHand]
	right := a.actuators[RightHand]
	cursor := a.actuators[Cursor]

	a.tickActuator(left)
	a.tickActuator(right)

	rightBusy := right.state.Hovered != "" || right.state.Held != "" || right.state.Spawning
	shouldEnable := !rightBusy && !a.teleporting()
	if a.pointerEnabled && !shouldEnable {
		cursor.state.Hovered = ""
	}
	a.pointerEnabled = shouldEnable

	if rightBusy {
		// Frozen: no transition, and no hover left behind while suppressed.
		cursor.state.Hovered = ""
		return
	}
	a.tickActuator(cursor)
	a.tickPointerButtons(cursor)
}

func (a *Arbiter) teleporting() bool {
	return a.deps.Teleporter != nil && a.deps.Teleporter.Teleporting()
}

func (a *Arbiter) tickActuator(act *actuator) {
	st := &act.state
	if st.Spawning {
		return
	}

	if st.Held != "" {
		dropped := a.deps.Signals.Get(act.desc.Drop)
		lost := a.lostOwnership(st.Held)
		gone := !a.deps.Scene.Has(st.Held)
		if dropped || lost || gone {
			a.release(act, !dropped)
		}
		return
	}

	h, ok := act.desc.Hover.Resolve()
	if !ok {
		st.Hovered = ""
		return
	}
	st.Hovered = h.ID

	if !a.deps.Signals.Get(act.desc.Grab) {
		return
	}

	switch {
	case h.Caps.Has(act.desc.Constraint):
		if holder, taken := a.heldBy(h.ID); taken && holder != act.source {
			act.log.Debug("grab refused, held elsewhere", "target", h.ID, "holder", holder.String())
			return
		}
		st.Held = h.ID
		st.Hovered = ""
		act.log.Debug("grab", "target", h.ID)
		a.publish(event.EventGrab, event.HoldEvent{Source: act.source.String(), Target: h.ID})
	case h.Caps.Has(Spawner):
		if a.deps.Cooldowns != nil && a.deps.Cooldowns.Active(h.ID) {
			return
		}
		a.startSpawn(act, h)
	}
}

// tickPointerButtons fires the one-shot button side effects of a cursor
// grab on a hovered target.
func (a *Arbiter) tickPointerButtons(cursor *actuator) {
	st := &cursor.state
	if st.Hovered == "" || st.Held != "" || st.Spawning {
		return
	}
	if !a.deps.Signals.Get(cursor.desc.Grab) {
		return
	}
	h, ok := a.deps.Registry.Lookup(st.Hovered)
	if !ok {
		return
	}
	if h.Caps.Has(SingleActionButton) {
		a.dispatch(h.ID, event.EventInteract, string(cursor.desc.Grab))
	}
	if h.Caps.Has(HoldableButton) {
		if holder, taken := a.heldBy(h.ID); taken && holder != Cursor {
			return
		}
		st.Held = h.ID
		st.Hovered = ""
		cursor.log.Debug("holdable button down", "target", h.ID)
		a.dispatch(h.ID, event.EventHoldableButtonDown, string(cursor.desc.Grab))
	}
}

func (a *Arbiter) release(act *actuator, forced bool) {
	held := act.state.Held
	act.state.Held = ""
	act.state.Hovered = ""

	if act.source == Cursor {
		if h, ok := a.deps.Registry.Lookup(held); ok && h.Caps.Has(HoldableButton) {
			a.dispatch(held, event.EventHoldableButtonUp, string(act.desc.Drop))
		}
	}
	if forced {
		act.log.Debug("forced release", "target", held)
	} else {
		act.log.Debug("release", "target", held)
	}
	a.publish(event.EventRelease, event.HoldEvent{Source: act.source.String(), Target: held, Forced: forced})
}

func (a *Arbiter) lostOwnership(object string) bool {
	if a.deps.Owners == nil {
		return false
	}
	owner, networked := a.deps.Owners.OwnerOf(object)
	return networked && owner != a.deps.Owners.LocalSession()
}

// heldBy reports the source holding object. An in-flight spawn holds its
// object from the grab tick on, before the actuator takes it over.
func (a *Arbiter) heldBy(object string) (Source, bool) {
	for _, act := range a.actuators {
		if act.state.Held == object {
			return act.source, true
		}
	}
	for _, src := range sourceOrder {
		if task, ok := a.spawns[src]; ok && task.object.ID == object {
			return src, true
		}
	}
	return 0, false
}

func (a *Arbiter) dispatch(target, name string, payload any) {
	if a.deps.Dispatcher != nil {
		a.deps.Dispatcher.Dispatch(target, name, payload)
	}
}

func (a *Arbiter) publish(name string, evt any) {
	if a.deps.Publisher != nil {
		a.deps.Publisher.Publish(name, evt)
	}
}

// State returns a copy of the state of src.
func (a *Arbiter) State(src Source) State {
	if src < 0 || int(src) >= len(a.actuators) {
		return State{}
	}
	return a.actuators[src].state
}

func (a *Arbiter) CurrentHoverTarget(src Source) (string, bool) {
	st := a.State(src)
	return st.Hovered, st.Hovered != ""
}

func (a *Arbiter) CurrentHeldTarget(src Source) (string, bool) {
	st := a.State(src)
	return st.Held, st.Held != ""
}

// PointerEnabled reports whether the cursor controller should be active.
func (a *Arbiter) PointerEnabled() bool {
	return a.pointerEnabled
}

func (a *Arbiter) Frame() uint64 {
	return a.frame
}
