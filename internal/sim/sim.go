package sim

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Versifine/grasp/internal/content"
	"github.com/Versifine/grasp/internal/event"
	"github.com/Versifine/grasp/internal/input"
	"github.com/Versifine/grasp/internal/interaction"
)

const commandQueueSize = 64

var sources = []interaction.Source{interaction.LeftHand, interaction.RightHand, interaction.Cursor}

// PoseOf returns the scene node carrying the pose of src.
func PoseOf(src interaction.Source) string {
	switch src {
	case interaction.LeftHand:
		return content.LeftPose
	case interaction.RightHand:
		return content.RightPose
	default:
		return content.CursorPose
	}
}

type Options struct {
	World        *content.World
	Descriptors  map[interaction.Source]interaction.Descriptor
	SpawnTimeout time.Duration
	Interval     time.Duration
	Bus          *event.Bus
	Logger       *slog.Logger
	Now          func() time.Time
}

// ActuatorSnapshot is the per-source view published after every frame.
type ActuatorSnapshot struct {
	Source interaction.Source
	State  interaction.State
}

type Snapshot struct {
	Frame          uint64
	PointerEnabled bool
	Aim            string
	Actuators      []ActuatorSnapshot
}

// Simulation runs the interaction frame loop over an in-process world. All
// world mutation happens on the goroutine calling Step; other goroutines
// go through Do.
type Simulation struct {
	world    *content.World
	actions  *input.Actions
	arbiter  *interaction.Arbiter
	bus      *event.Bus
	descs    map[interaction.Source]interaction.Descriptor
	interval time.Duration

	cmds chan func()
	aim  string

	mu   sync.RWMutex
	snap Snapshot
}

func New(opts Options) (*Simulation, error) {
	if opts.World == nil {
		return nil, errors.New("simulation world is nil")
	}
	if opts.Descriptors == nil {
		opts.Descriptors = interaction.DefaultDescriptors(content.LeftPose, content.RightPose, content.CursorPose)
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = 16 * time.Millisecond
	}

	actions := input.NewActions()
	w := opts.World
	arb, err := interaction.NewArbiter(interaction.Deps{
		Registry:     w.Registry,
		Signals:      actions,
		Owners:       w.Owners,
		Collisions:   w.Physics,
		Bodies:       w.Physics,
		Scene:        w.Graph,
		Instantiator: w.Media,
		Cooldowns:    w.Cooldowns,
		Dispatcher:   event.NewDispatcher(opts.Bus),
		Publisher:    opts.Bus,
		Teleporter:   interaction.SignalTeleporter{Signals: actions},
		Logger:       opts.Logger,
		SpawnTimeout: opts.SpawnTimeout,
		Now:          opts.Now,
	}, opts.Descriptors)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		world:    w,
		actions:  actions,
		arbiter:  arb,
		bus:      opts.Bus,
		descs:    opts.Descriptors,
		interval: opts.Interval,
		cmds:     make(chan func(), commandQueueSize),
	}
	s.publishSnapshot()
	return s, nil
}

// Run steps the simulation at the configured interval until ctx is done.
func (s *Simulation) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step runs one frame: queued commands, physics, pointer raycast, held
// object follow, arbitration, then input end of frame.
func (s *Simulation) Step() {
	s.drainCommands()

	s.world.Physics.Step()
	s.followHeld()
	s.world.Physics.Sync(s.world.Graph)
	s.raycast()
	s.arbiter.Tick()
	s.actions.EndFrame()
	s.publishSnapshot()
}

// Do queues fn to run on the simulation goroutine before the next frame.
// It reports false when the queue is full.
func (s *Simulation) Do(fn func()) bool {
	if fn == nil {
		return true
	}
	select {
	case s.cmds <- fn:
		return true
	default:
		return false
	}
}

func (s *Simulation) drainCommands() {
	for {
		select {
		case fn := <-s.cmds:
			fn()
		default:
			return
		}
	}
}

// raycast stands in for the cursor ray: it hits the aimed object while the
// pointer is enabled and nothing otherwise.
func (s *Simulation) raycast() {
	if !s.arbiter.PointerEnabled() || s.aim == "" || !s.world.Graph.Has(s.aim) {
		s.arbiter.UpdatePointerIntersection(nil)
		return
	}
	hit := interaction.Intersection{Object: s.aim}
	cursor, ok1 := s.world.Graph.World(content.CursorPose)
	target, ok2 := s.world.Graph.World(s.aim)
	if ok1 && ok2 {
		hit.Distance = target.Position.Sub(cursor.Position).Length()
	}
	s.arbiter.UpdatePointerIntersection(&hit)
}

// followHeld moves the loaded dynamic bodies of held objects onto their
// actuator pose. Kinematic scene objects are left where they are.
func (s *Simulation) followHeld() {
	for _, src := range sources {
		st := s.arbiter.State(src)
		if st.Held == "" || st.Spawning {
			continue
		}
		body, ok := s.world.Physics.BodyForElement(st.Held)
		if !ok || !s.world.Physics.IsLoaded(body) {
			continue
		}
		world, ok := s.world.Graph.World(PoseOf(src))
		if !ok {
			continue
		}
		s.world.Physics.SetBodyPosition(body, world.Position)
	}
}

func (s *Simulation) publishSnapshot() {
	snap := Snapshot{
		Frame:          s.arbiter.Frame(),
		PointerEnabled: s.arbiter.PointerEnabled(),
		Aim:            s.aim,
	}
	for _, src := range sources {
		snap.Actuators = append(snap.Actuators, ActuatorSnapshot{Source: src, State: s.arbiter.State(src)})
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Snapshot returns the state published after the last frame. Safe from any
// goroutine.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Actuators = append([]ActuatorSnapshot(nil), s.snap.Actuators...)
	return snap
}

// The accessors below must be called from the simulation goroutine, or from
// a function passed to Do.

func (s *Simulation) Actions() *input.Actions {
	return s.actions
}

func (s *Simulation) Arbiter() *interaction.Arbiter {
	return s.arbiter
}

func (s *Simulation) World() *content.World {
	return s.world
}

func (s *Simulation) Bus() *event.Bus {
	return s.bus
}

// Paths returns the grab and drop action paths bound to src.
func (s *Simulation) Paths(src interaction.Source) (grab, drop input.Path) {
	d := s.descs[src]
	return d.Grab, d.Drop
}

// Aim points the cursor ray at object; empty clears it.
func (s *Simulation) Aim(object string) {
	s.aim = object
}

// MovePose moves an actuator pose node and its hand body.
func (s *Simulation) MovePose(src interaction.Source, x, y, z float64) bool {
	pose := PoseOf(src)
	local, ok := s.world.Graph.Local(pose)
	if !ok {
		return false
	}
	local.Position.X, local.Position.Y, local.Position.Z = x, y, z
	s.world.Graph.SetLocal(pose, local)
	return true
}
