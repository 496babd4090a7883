package sim

import (
	"log/slog"

	"github.com/Versifine/grasp/internal/event"
)

// LogEvents subscribes log handlers for every interaction event on bus.
func LogEvents(bus *event.Bus) {
	for _, name := range []string{event.EventInteract, event.EventHoldableButtonDown, event.EventHoldableButtonUp} {
		bus.Subscribe(name, logSceneEvent)
	}
	for _, name := range []string{event.EventGrab, event.EventRelease} {
		bus.Subscribe(name, logHoldEvent)
	}
	for _, name := range []string{event.EventSpawnStarted, event.EventSpawnFinished, event.EventSpawnFailed} {
		bus.Subscribe(name, logSpawnEvent)
	}
}

func logSceneEvent(raw any) {
	evt, ok := raw.(event.SceneEvent)
	if !ok {
		slog.Error("Invalid event type for scene event handler")
		return
	}
	slog.Info("Scene event", "name", evt.Name, "target", evt.Target, "path", evt.Path)
}

func logHoldEvent(raw any) {
	evt, ok := raw.(event.HoldEvent)
	if !ok {
		slog.Error("Invalid event type for hold event handler")
		return
	}
	slog.Info("Hold event", "source", evt.Source, "target", evt.Target, "forced", evt.Forced)
}

func logSpawnEvent(raw any) {
	evt, ok := raw.(event.SpawnEvent)
	if !ok {
		slog.Error("Invalid event type for spawn event handler")
		return
	}
	if evt.Err != nil {
		slog.Warn("Spawn event", "source", evt.Source, "spawner", evt.Spawner, "object", evt.Object, "error", evt.Err)
		return
	}
	slog.Info("Spawn event", "source", evt.Source, "spawner", evt.Spawner, "object", evt.Object)
}
