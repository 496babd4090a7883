package interaction

import (
	"fmt"
	"log/slog"

	"github.com/Versifine/grasp/internal/input"
)

// Source identifies one of the three input sources.
type Source int

const (
	LeftHand Source = iota
	RightHand
	Cursor
)

var sourceOrder = [...]Source{LeftHand, RightHand, Cursor}

func (s Source) String() string {
	switch s {
	case LeftHand:
		return "left_hand"
	case RightHand:
		return "right_hand"
	case Cursor:
		return "cursor"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

func ParseSource(name string) (Source, error) {
	switch name {
	case "left_hand", "left":
		return LeftHand, nil
	case "right_hand", "right":
		return RightHand, nil
	case "cursor", "remote":
		return Cursor, nil
	}
	return 0, fmt.Errorf("unknown input source %q", name)
}

type Phase int

const (
	Idle Phase = iota
	Hovering
	Holding
	Spawning
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Hovering:
		return "hovering"
	case Holding:
		return "holding"
	case Spawning:
		return "spawning"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the per-source interaction state. Empty ids mean none.
// Held and Hovered are never both set.
type State struct {
	Hovered  string
	Held     string
	Spawning bool
}

func (s State) Phase() Phase {
	switch {
	case s.Spawning:
		return Spawning
	case s.Held != "":
		return Holding
	case s.Hovered != "":
		return Hovering
	default:
		return Idle
	}
}

// Descriptor is the static configuration of one input source.
type Descriptor struct {
	Grab input.Path
	Drop input.Path
	// Constraint is the capability a target needs to be grabbed directly.
	Constraint Capability
	// Pose is the scene object whose transform is the actuator pose.
	Pose string
	// Hover overrides the default resolver for the source.
	Hover HoverResolver
}

// DefaultDescriptors returns the built-in paths and constraint tags for
// every source.
func DefaultDescriptors(leftPose, rightPose, cursorPose string) map[Source]Descriptor {
	return map[Source]Descriptor{
		LeftHand: {
			Grab:       input.LeftHandGrab,
			Drop:       input.LeftHandDrop,
			Constraint: OffersHandConstraint,
			Pose:       leftPose,
		},
		RightHand: {
			Grab:       input.RightHandGrab,
			Drop:       input.RightHandDrop,
			Constraint: OffersHandConstraint,
			Pose:       rightPose,
		},
		Cursor: {
			Grab:       input.CursorGrab,
			Drop:       input.CursorDrop,
			Constraint: OffersRemoteConstraint,
			Pose:       cursorPose,
		},
	}
}

type actuator struct {
	source Source
	desc   Descriptor
	state  State
	log    *slog.Logger
}
