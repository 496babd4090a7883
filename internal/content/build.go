package content

import (
	"fmt"
	"time"

	"github.com/Versifine/grasp/internal/interaction"
	"github.com/Versifine/grasp/internal/media"
	"github.com/Versifine/grasp/internal/network"
	"github.com/Versifine/grasp/internal/physics"
	"github.com/Versifine/grasp/internal/scene"
	"github.com/Versifine/grasp/internal/vmath"
)

// Scene node ids of the actuator poses.
const (
	LeftPose   = "player-left-controller"
	RightPose  = "player-right-controller"
	CursorPose = "player-cursor"
)

var (
	defaultLeft   = vmath.V3(-0.4, 1.2, -0.3)
	defaultRight  = vmath.V3(0.4, 1.2, -0.3)
	defaultCursor = vmath.V3(0, 1.6, 0)
)

// World is everything a manifest populates.
type World struct {
	Graph     *scene.Graph
	Physics   *physics.World
	Registry  *interaction.Registry
	Owners    *network.Ownership
	Library   *media.Library
	Cooldowns *media.Cooldowns
	Media     *media.Instantiator
}

// Build populates a fresh world from m. Any invalid object, spawner or
// asset fails the whole build.
func Build(m *Manifest, session string, now func() time.Time) (*World, error) {
	w := &World{
		Graph:     scene.NewGraph(),
		Physics:   physics.NewWorld(),
		Owners:    network.NewOwnership(session),
		Library:   media.NewLibrary(),
		Cooldowns: media.NewCooldowns(media.DefaultCooldown, now),
	}
	w.Registry = interaction.NewRegistry(w.Graph)
	w.Graph.OnRemove(w.Registry.Unregister)
	w.Graph.OnRemove(w.Physics.RemoveElement)
	w.Graph.OnRemove(w.Owners.Forget)
	w.Media = media.NewInstantiator(w.Library, w.Graph, w.Physics, w.Owners, w.Registry)

	if err := w.addPoses(m.Hands); err != nil {
		return nil, err
	}
	if err := w.addLibrary(m); err != nil {
		return nil, err
	}
	if err := w.addObjects(m.Objects); err != nil {
		return nil, err
	}
	for object, owner := range m.Owners {
		if !w.Graph.Has(object) {
			return nil, fmt.Errorf("%w: owner set for unknown object %q", ErrInvalidManifest, object)
		}
		w.Owners.SetOwner(object, owner)
	}
	w.Physics.Sync(w.Graph)
	return w, nil
}

func (w *World) addPoses(h HandsSection) error {
	poses := []struct {
		id   string
		pos  *[3]float64
		def  vmath.Vec3
		body bool
	}{
		{LeftPose, h.Left, defaultLeft, true},
		{RightPose, h.Right, defaultRight, true},
		{CursorPose, h.Cursor, defaultCursor, false},
	}
	hand := vmath.V3(physics.HandHalfExtent, physics.HandHalfExtent, physics.HandHalfExtent)
	for _, p := range poses {
		local := vmath.IdentityTransform()
		local.Position = vecOr(p.pos, p.def)
		if err := w.Graph.Add(scene.Node{ID: p.id, Local: local}); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
		if p.body {
			w.Physics.AddBody(physics.BodySpec{Element: p.id, Half: hand})
		}
	}
	return nil
}

func (w *World) addLibrary(m *Manifest) error {
	for _, tpl := range m.Templates {
		caps, err := interaction.ParseCapabilities(tpl.Capabilities)
		if err != nil {
			return fmt.Errorf("%w: template %q: %v", ErrInvalidManifest, tpl.Name, err)
		}
		w.Library.AddTemplate(tpl.Name, caps)
	}
	for _, a := range m.Assets {
		if err := w.Library.Add(media.Asset{Src: a.Src, Half: vec(a.Half), LoadTicks: a.LoadTicks}); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
		for _, alias := range a.Aliases {
			if err := w.Library.Alias(alias, a.Src); err != nil {
				return fmt.Errorf("%w: asset %q: %v", ErrInvalidManifest, a.Src, err)
			}
		}
	}
	return nil
}

// addObjects adds objects parents first, whatever their order in the file.
func (w *World) addObjects(objects []ObjectEntry) error {
	pending := append([]ObjectEntry(nil), objects...)
	for len(pending) > 0 {
		var next []ObjectEntry
		for _, obj := range pending {
			if obj.Parent != "" && !w.Graph.Has(obj.Parent) {
				next = append(next, obj)
				continue
			}
			if err := w.addObject(obj); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			return fmt.Errorf("%w: object %q: parent %q not found", ErrInvalidManifest, next[0].ID, next[0].Parent)
		}
		pending = next
	}
	return nil
}

func (w *World) addObject(obj ObjectEntry) error {
	local := vmath.Transform{
		Position: vec(obj.Position),
		Rotation: vmath.QuatFromEuler(vec(obj.Rotation)),
		Scale:    vecOr(obj.Scale, vmath.V3(1, 1, 1)),
	}
	if err := w.Graph.Add(scene.Node{ID: obj.ID, Parent: obj.Parent, Local: local}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	caps, err := interaction.ParseCapabilities(obj.Capabilities)
	if err != nil {
		return fmt.Errorf("%w: object %q: %v", ErrInvalidManifest, obj.ID, err)
	}
	handle := interaction.Handle{ID: obj.ID, Caps: caps, Spawner: spawnerConfig(obj.Spawner)}
	if caps != 0 || handle.Spawner != nil {
		if err := w.Registry.Register(handle); err != nil {
			return err
		}
	}
	if d, ok := obj.Spawner.CooldownDuration(); ok {
		w.Cooldowns.SetDuration(obj.ID, d)
	}

	if !obj.NoBody {
		w.Physics.AddBody(physics.BodySpec{Element: obj.ID, Half: vecOr(obj.Half, vmath.Vec3{})})
	}
	return nil
}

func spawnerConfig(s *SpawnerEntry) *interaction.SpawnerConfig {
	if s == nil {
		return nil
	}
	cfg := &interaction.SpawnerConfig{
		Src:                    s.Src,
		Template:               s.Template,
		Resolve:                s.Resolve,
		Resize:                 s.Resize,
		UseCustomSpawnPosition: s.UseCustomSpawnPosition,
		UseCustomSpawnRotation: s.UseCustomSpawnRotation,
		UseCustomSpawnScale:    s.UseCustomSpawnScale,
		CenterSpawnedObject:    s.CenterSpawnedObject,
	}
	if s.SpawnPosition != nil {
		p := vec(*s.SpawnPosition)
		cfg.SpawnPosition = &p
	}
	if s.SpawnRotation != nil {
		q := vmath.QuatFromEuler(vec(*s.SpawnRotation))
		cfg.SpawnRotation = &q
	}
	if s.SpawnScale != nil {
		sc := vec(*s.SpawnScale)
		cfg.SpawnScale = &sc
	}
	return cfg
}

func vec(a [3]float64) vmath.Vec3 {
	return vmath.V3(a[0], a[1], a[2])
}

func vecOr(a *[3]float64, def vmath.Vec3) vmath.Vec3 {
	if a == nil {
		return def
	}
	return vec(*a)
}
