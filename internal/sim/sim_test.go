package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Versifine/grasp/internal/content"
	"github.com/Versifine/grasp/internal/event"
	"github.com/Versifine/grasp/internal/input"
	"github.com/Versifine/grasp/internal/interaction"
	"github.com/Versifine/grasp/internal/vmath"
)

func vec3(x, y, z float64) *[3]float64 {
	return &[3]float64{x, y, z}
}

func newSim(t *testing.T) (*Simulation, *event.Bus) {
	t.Helper()
	m := &content.Manifest{
		Hands: content.HandsSection{Left: vec3(-5, 0, 0), Right: vec3(5, 0, 0)},
		Assets: []content.AssetEntry{
			{Src: "assets/duck.glb", Half: [3]float64{0.1, 0.1, 0.1}, LoadTicks: 1},
		},
		Objects: []content.ObjectEntry{
			{
				ID:           "crate",
				Position:     [3]float64{0, 1, -1},
				Half:         vec3(0.2, 0.2, 0.2),
				Capabilities: []string{"is-hand-collision-target", "offers-hand-constraint"},
			},
			{
				ID:           "duck-spawner",
				Position:     [3]float64{2, 1, -1},
				Capabilities: []string{"is-hand-collision-target", "spawner"},
				Spawner:      &content.SpawnerEntry{Src: "assets/duck.glb"},
			},
			{
				ID:           "mute",
				Position:     [3]float64{0, 1.5, -3},
				Capabilities: []string{"is-remote-hover-target", "single-action-button"},
			},
		},
	}
	w, err := content.Build(m, "me", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bus := event.NewBus()
	s, err := New(Options{World: w, Bus: bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, bus
}

func stateOf(snap Snapshot, src interaction.Source) interaction.State {
	for _, a := range snap.Actuators {
		if a.Source == src {
			return a.State
		}
	}
	return interaction.State{}
}

func TestNewRequiresWorld(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New without world should fail")
	}
}

func TestStepGrabsWithHand(t *testing.T) {
	s, _ := newSim(t)
	s.MovePose(interaction.RightHand, 0, 1, -1)

	s.Step()
	if got := stateOf(s.Snapshot(), interaction.RightHand); got.Hovered != "crate" {
		t.Fatalf("right hand state = %+v, want hovering crate", got)
	}

	s.Actions().Pulse(input.RightHandGrab)
	s.Step()
	snap := s.Snapshot()
	if got := stateOf(snap, interaction.RightHand); got.Held != "crate" {
		t.Fatalf("right hand state = %+v, want holding crate", got)
	}
	if snap.PointerEnabled {
		t.Error("pointer should be disabled while the right hand holds")
	}
	if snap.Frame != 2 {
		t.Errorf("frame = %d, want 2", snap.Frame)
	}
}

func TestSpawnedObjectFollowsHand(t *testing.T) {
	s, _ := newSim(t)
	s.MovePose(interaction.LeftHand, 2, 1, -1)
	s.Step()
	s.Actions().Pulse(input.LeftHandGrab)
	s.Step()
	for i := 0; i < 3; i++ {
		s.Step()
	}

	st := stateOf(s.Snapshot(), interaction.LeftHand)
	if st.Held == "" || st.Spawning {
		t.Fatalf("left hand state = %+v, want holding a settled spawn", st)
	}

	s.MovePose(interaction.LeftHand, 2, 2, 0)
	s.Step()
	s.Step()
	got, ok := s.World().Graph.World(st.Held)
	if !ok {
		t.Fatalf("spawned %q missing from scene", st.Held)
	}
	if !got.Position.NearlyEqual(vmath.V3(2, 2, 0), 1e-9) {
		t.Errorf("held object at %v, want it on the hand", got.Position)
	}
}

func TestAimAndClickButton(t *testing.T) {
	s, bus := newSim(t)
	var mu sync.Mutex
	var got []event.SceneEvent
	bus.Subscribe(event.EventInteract, func(raw any) {
		mu.Lock()
		got = append(got, raw.(event.SceneEvent))
		mu.Unlock()
	})

	if !s.Do(func() { s.Aim("mute") }) {
		t.Fatal("Do rejected command")
	}
	s.Step()
	s.Actions().Pulse(input.CursorGrab)
	s.Step()
	bus.Drain()

	snap := s.Snapshot()
	if snap.Aim != "mute" {
		t.Errorf("aim = %q", snap.Aim)
	}
	if st := stateOf(snap, interaction.Cursor); st.Hovered != "mute" {
		t.Errorf("cursor state = %+v", st)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Target != "mute" {
		t.Fatalf("interact events = %+v", got)
	}
}

func TestDoQueueFull(t *testing.T) {
	s, _ := newSim(t)
	for i := 0; i < commandQueueSize; i++ {
		if !s.Do(func() {}) {
			t.Fatalf("queue full after %d commands", i)
		}
	}
	if s.Do(func() {}) {
		t.Fatal("full queue should reject commands")
	}
	s.Step()
	if !s.Do(func() {}) {
		t.Fatal("queue should drain on Step")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().Frame == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if s.Snapshot().Frame == 0 {
		t.Error("Run never stepped")
	}
}
