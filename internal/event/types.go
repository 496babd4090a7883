package event

const (
	EventInteract           = "interact"
	EventHoldableButtonDown = "holdable-button-down"
	EventHoldableButtonUp   = "holdable-button-up"
	EventGrab               = "grab"
	EventRelease            = "release"
	EventSpawnStarted       = "spawn.started"
	EventSpawnFinished      = "spawn.finished"
	EventSpawnFailed        = "spawn.failed"
)

// SceneEvent is a fire-and-forget event aimed at one scene object.
type SceneEvent struct {
	Target string
	Name   string
	Path   string
}

type HoldEvent struct {
	Source string
	Target string
	Forced bool
}

type SpawnEvent struct {
	Source  string
	Spawner string
	Object  string
	Err     error
}
