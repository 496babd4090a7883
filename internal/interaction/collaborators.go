package interaction

import (
	"log/slog"
	"time"

	"github.com/Versifine/grasp/internal/input"
	"github.com/Versifine/grasp/internal/physics"
	"github.com/Versifine/grasp/internal/vmath"
)

// Signals reads boolean action signals for the current frame.
type Signals interface {
	Get(path input.Path) bool
}

// Owners reports networked ownership. ok is false for objects that are not
// networked.
type Owners interface {
	OwnerOf(object string) (session string, ok bool)
	LocalSession() string
}

// Collisions is the broad-phase view used by hand actuators.
type Collisions interface {
	CurrentCollisions() []physics.Pair
	BodyForElement(element string) (physics.BodyID, bool)
	ElementForBody(id physics.BodyID) (string, bool)
}

// Bodies moves physics bodies of spawned objects.
type Bodies interface {
	BodyForElement(element string) (physics.BodyID, bool)
	SetBodyPosition(id physics.BodyID, pos vmath.Vec3) bool
}

// Scene is the part of the scene graph written by placement code.
type Scene interface {
	Has(id string) bool
	World(id string) (vmath.Transform, bool)
	SetLocal(id string, t vmath.Transform) bool
	SetPosition(id string, pos vmath.Vec3) bool
	SetScale(id string, scale vmath.Vec3) bool
	MarkDirty(id string)
}

// Dispatcher delivers fire-and-forget events to scene objects.
type Dispatcher interface {
	Dispatch(target, name string, payload any)
}

// Publisher receives interaction lifecycle events.
type Publisher interface {
	Publish(name string, evt any)
}

// Cooldowns gates how often a spawner may fire.
type Cooldowns interface {
	Activate(spawner string)
	Active(spawner string) bool
}

// Teleporter reports whether the right hand is aiming a teleport.
type Teleporter interface {
	Teleporting() bool
}

// SignalTeleporter treats a held action path as teleport aim.
type SignalTeleporter struct {
	Signals Signals
	Path    input.Path
}

func (t SignalTeleporter) Teleporting() bool {
	if t.Signals == nil {
		return false
	}
	return t.Signals.Get(t.Path.Or(input.RightHandTeleportAim))
}

// Deps bundles the collaborators of an Arbiter. Registry, Signals and Scene
// are required; the rest fall back to no-ops.
type Deps struct {
	Registry     *Registry
	Signals      Signals
	Owners       Owners
	Collisions   Collisions
	Bodies       Bodies
	Scene        Scene
	Instantiator Instantiator
	Cooldowns    Cooldowns
	Dispatcher   Dispatcher
	Publisher    Publisher
	Teleporter   Teleporter
	Logger       *slog.Logger

	// SpawnTimeout bounds the wait for a spawned body to load.
	SpawnTimeout time.Duration
	Now          func() time.Time
}
