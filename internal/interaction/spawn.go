package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/Versifine/grasp/internal/event"
	"github.com/Versifine/grasp/internal/vmath"
)

var ErrSpawnTimeout = errors.New("spawned body did not finish loading")

// Origin tags why a media object was instantiated.
type Origin string

const OriginSpawner Origin = "spawner"

// SpawnRequest mirrors the spawner's asset configuration.
type SpawnRequest struct {
	Src      string
	Template string
	Origin   Origin
	Resolve  bool
	Resize   bool
}

// SpawnedObject is a freshly instantiated scene object. Loaded is closed
// once its physics body is ready.
type SpawnedObject struct {
	ID     string
	Loaded <-chan struct{}
}

type Instantiator interface {
	Instantiate(req SpawnRequest) (SpawnedObject, error)
	Despawn(id string)
}

// spawnTask is the suspended part of a spawn, resumed by pollSpawns at the
// start of each tick. At most one exists per source.
type spawnTask struct {
	spawner   Handle
	object    SpawnedObject
	adopted   bool
	deadline  time.Time
	startedAt uint64

	spawnerWorld  vmath.Transform
	actuatorWorld vmath.Transform
}

// startSpawn runs the synchronous half of a spawn on the grab tick: capture
// transforms, instantiate, place, start the cooldown, then suspend.
func (a *Arbiter) startSpawn(act *actuator, spawner Handle) {
	if _, busy := a.spawns[act.source]; busy {
		return
	}
	if a.deps.Instantiator == nil {
		a.failSpawn(act, spawner, "", errors.New("no instantiator configured"))
		return
	}
	cfg := spawner.Spawner

	spawnerWorld, ok := a.deps.Scene.World(spawner.ID)
	if !ok {
		spawnerWorld = vmath.IdentityTransform()
	}
	actuatorWorld, ok := a.deps.Scene.World(act.desc.Pose)
	if !ok {
		actuatorWorld = vmath.IdentityTransform()
	}

	obj, err := a.deps.Instantiator.Instantiate(SpawnRequest{
		Src:      cfg.Src,
		Template: cfg.Template,
		Origin:   OriginSpawner,
		Resolve:  cfg.Resolve,
		Resize:   cfg.Resize,
	})
	if err != nil {
		a.failSpawn(act, spawner, "", fmt.Errorf("instantiate %q: %w", cfg.Src, err))
		return
	}

	a.deps.Scene.SetLocal(obj.ID, vmath.Transform{
		Position: spawnPosition(cfg, spawnerWorld),
		Rotation: spawnRotation(cfg, spawnerWorld),
		Scale:    spawnScale(cfg, spawnerWorld),
	})
	a.deps.Scene.MarkDirty(obj.ID)

	if a.deps.Cooldowns != nil {
		a.deps.Cooldowns.Activate(spawner.ID)
	}

	act.state.Spawning = true
	act.state.Hovered = ""
	a.spawns[act.source] = &spawnTask{
		spawner:       spawner,
		object:        obj,
		deadline:      a.deps.Now().Add(a.deps.SpawnTimeout),
		startedAt:     a.frame,
		spawnerWorld:  spawnerWorld,
		actuatorWorld: actuatorWorld,
	}
	act.log.Debug("spawn started", "spawner", spawner.ID, "object", obj.ID)
	a.publish(event.EventSpawnStarted, event.SpawnEvent{
		Source:  act.source.String(),
		Spawner: spawner.ID,
		Object:  obj.ID,
	})
}

// pollSpawns resumes in-flight spawns: the first resume hands the object to
// the actuator, a loaded body finishes placement, a missed deadline fails.
func (a *Arbiter) pollSpawns() {
	for _, src := range sourceOrder {
		task, ok := a.spawns[src]
		if !ok {
			continue
		}
		act := a.actuators[src]

		if !task.adopted {
			a.releaseOthers(act, task.object.ID)
			act.state.Held = task.object.ID
			act.state.Hovered = ""
			task.adopted = true
		}

		select {
		case <-task.object.Loaded:
			a.finishSpawn(act, task)
			continue
		default:
		}

		if !a.deps.Now().Before(task.deadline) {
			a.deps.Instantiator.Despawn(task.object.ID)
			act.state.Held = ""
			a.failSpawn(act, task.spawner, task.object.ID, ErrSpawnTimeout)
		}
	}
}

func (a *Arbiter) finishSpawn(act *actuator, task *spawnTask) {
	delete(a.spawns, act.source)
	act.state.Spawning = false

	cfg := task.spawner.Spawner
	id := task.object.ID
	a.deps.Scene.SetPosition(id, spawnPosition(cfg, task.spawnerWorld))
	if cfg.CenterSpawnedObject && a.deps.Bodies != nil {
		pose := task.actuatorWorld
		if now, ok := a.deps.Scene.World(act.desc.Pose); ok {
			pose = now
		}
		if body, ok := a.deps.Bodies.BodyForElement(id); ok {
			a.deps.Bodies.SetBodyPosition(body, pose.Position)
		}
	}
	a.deps.Scene.SetScale(id, spawnScale(cfg, task.spawnerWorld))
	a.deps.Scene.MarkDirty(id)

	act.log.Debug("spawn finished", "spawner", task.spawner.ID, "object", id, "ticks", a.frame-task.startedAt)
	a.publish(event.EventSpawnFinished, event.SpawnEvent{
		Source:  act.source.String(),
		Spawner: task.spawner.ID,
		Object:  id,
	})
}

// releaseOthers force-releases object from any actuator other than owner.
func (a *Arbiter) releaseOthers(owner *actuator, object string) {
	for _, other := range a.actuators {
		if other != owner && other.state.Held == object {
			a.release(other, true)
		}
	}
}

// failSpawn leaves the actuator idle and reports err.
func (a *Arbiter) failSpawn(act *actuator, spawner Handle, object string, err error) {
	delete(a.spawns, act.source)
	act.state.Spawning = false
	act.state.Hovered = ""

	act.log.Warn("spawn failed", "spawner", spawner.ID, "object", object, "error", err)
	a.publish(event.EventSpawnFailed, event.SpawnEvent{
		Source:  act.source.String(),
		Spawner: spawner.ID,
		Object:  object,
		Err:     err,
	})
}

func spawnPosition(cfg *SpawnerConfig, spawner vmath.Transform) vmath.Vec3 {
	if cfg.UseCustomSpawnPosition && cfg.SpawnPosition != nil {
		return *cfg.SpawnPosition
	}
	return spawner.Position
}

func spawnRotation(cfg *SpawnerConfig, spawner vmath.Transform) vmath.Quat {
	if cfg.UseCustomSpawnRotation && cfg.SpawnRotation != nil {
		return *cfg.SpawnRotation
	}
	return spawner.Rotation
}

func spawnScale(cfg *SpawnerConfig, spawner vmath.Transform) vmath.Vec3 {
	if cfg.UseCustomSpawnScale && cfg.SpawnScale != nil {
		return *cfg.SpawnScale
	}
	return spawner.Scale
}

// Pending reports whether src has a spawn in flight.
func (a *Arbiter) Pending(src Source) bool {
	_, ok := a.spawns[src]
	return ok
}
