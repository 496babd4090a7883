package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Versifine/grasp/internal/interaction"
	"github.com/Versifine/grasp/internal/vmath"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入测试清单失败: %v", err)
	}
	return path
}

func fixedNow() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func TestLoadAndBuild(t *testing.T) {
	path := writeManifest(t, `
[hands]
left = [1.0, 1.0, 0.0]

[[asset]]
src = "assets/duck.glb"
half = [0.1, 0.1, 0.1]
load_ticks = 2
aliases = ["https://cdn.example.com/duck.glb"]

[[object]]
id = "lamp-shade"
parent = "lamp"
position = [0.0, 0.5, 0.0]

[[object]]
id = "lamp"
position = [0.0, 1.0, -1.0]
rotation = [0.0, 90.0, 0.0]
capabilities = ["is-hand-collision-target", "offers-hand-constraint"]

[[object]]
id = "spawner"
position = [2.0, 1.0, 0.0]
capabilities = ["is-hand-collision-target", "spawner"]

  [object.spawner]
  src = "https://cdn.example.com/duck.glb"
  resolve = true
  cooldown = "3s"
  use_custom_spawn_scale = true
  spawn_scale = [2.0, 2.0, 2.0]

[owners]
lamp = "remote-session"
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	w, err := Build(m, "me", fixedNow)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if parent, ok := w.Graph.Parent("lamp-shade"); !ok || parent != "lamp" {
		t.Errorf("lamp-shade parent = %q, %v", parent, ok)
	}
	if h, ok := w.Registry.Resolve("lamp-shade", interaction.HandCollisionTarget); !ok || h.ID != "lamp" {
		t.Errorf("lamp-shade should resolve to lamp, got %q, %v", h.ID, ok)
	}
	if _, ok := w.Registry.Lookup("lamp-shade"); ok {
		t.Error("object without capabilities should not be registered")
	}

	h, ok := w.Registry.Lookup("spawner")
	if !ok || h.Spawner == nil {
		t.Fatalf("spawner handle = %+v, %v", h, ok)
	}
	if !h.Spawner.UseCustomSpawnScale || h.Spawner.SpawnScale == nil || *h.Spawner.SpawnScale != vmath.V3(2, 2, 2) {
		t.Errorf("spawner config = %+v", h.Spawner)
	}
	w.Cooldowns.Activate("spawner")
	if got := w.Cooldowns.Remaining("spawner"); got != 3*time.Second {
		t.Errorf("spawner cooldown = %s, want 3s", got)
	}

	if owner, ok := w.Owners.OwnerOf("lamp"); !ok || owner != "remote-session" {
		t.Errorf("lamp owner = %q, %v", owner, ok)
	}
	if _, err := w.Library.Lookup("https://cdn.example.com/duck.glb", true); err != nil {
		t.Errorf("alias lookup: %v", err)
	}

	left, _ := w.Graph.World(LeftPose)
	if !left.Position.NearlyEqual(vmath.V3(1, 1, 0), 1e-9) {
		t.Errorf("left pose = %v", left.Position)
	}
	right, _ := w.Graph.World(RightPose)
	if !right.Position.NearlyEqual(defaultRight, 1e-9) {
		t.Errorf("right pose should default, got %v", right.Position)
	}
	if _, ok := w.Physics.BodyForElement(LeftPose); !ok {
		t.Error("left hand body missing")
	}
	if _, ok := w.Physics.BodyForElement(CursorPose); ok {
		t.Error("cursor should not have a body")
	}

	shade, _ := w.Graph.World("lamp-shade")
	if !shade.Position.NearlyEqual(vmath.V3(0, 1.5, -1), 1e-9) {
		t.Errorf("lamp-shade world position = %v", shade.Position)
	}

	// Removing a node tears down its handle and body.
	w.Graph.Remove("lamp")
	if _, ok := w.Registry.Lookup("lamp"); ok {
		t.Error("removed lamp still registered")
	}
	if _, ok := w.Physics.BodyForElement("lamp-shade"); ok {
		t.Error("removed lamp-shade still has a body")
	}
	if _, ok := w.Owners.OwnerOf("lamp"); ok {
		t.Error("removed lamp still owned")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "生成器缺少src",
			content: `
[[object]]
id = "s"
capabilities = ["spawner"]
  [object.spawner]
  resolve = true
`,
			wantErr: interaction.ErrInvalidSpawner,
		},
		{
			name: "自定义位置缺值",
			content: `
[[object]]
id = "s"
capabilities = ["spawner"]
  [object.spawner]
  src = "a.glb"
  use_custom_spawn_position = true
`,
			wantErr: interaction.ErrInvalidSpawner,
		},
		{
			name: "未知能力",
			content: `
[[object]]
id = "x"
capabilities = ["is-grabbable"]
`,
			wantErr: ErrInvalidManifest,
		},
		{
			name: "父节点不存在",
			content: `
[[object]]
id = "x"
parent = "ghost"
`,
			wantErr: ErrInvalidManifest,
		},
		{
			name: "重复对象",
			content: `
[[object]]
id = "x"
[[object]]
id = "x"
`,
			wantErr: ErrInvalidManifest,
		},
		{
			name: "未知对象的所有者",
			content: `
[owners]
ghost = "someone"
`,
			wantErr: ErrInvalidManifest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load(writeManifest(t, tt.content))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			_, err = Build(m, "me", fixedNow)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"TOML格式错误", "[[object]\nid = 1"},
		{"缺少id", "[[object]]\nposition = [0.0, 0.0, 0.0]\n"},
		{"冷却时间无效", "[[object]]\nid = \"s\"\n[object.spawner]\nsrc = \"a\"\ncooldown = \"soon\"\n"},
		{"资源缺少src", "[[asset]]\nload_ticks = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeManifest(t, tt.content)); err == nil {
				t.Fatal("Load() should fail")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestShippedManifest(t *testing.T) {
	m, err := Load(filepath.Join("..", "..", "configs", "scene.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	w, err := Build(m, "local", fixedNow)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	for _, id := range []string{"crate", "duck-spawner", "camera-spawner", "mute-button", "pen-cap"} {
		if _, ok := w.Registry.Lookup(id); !ok {
			t.Errorf("%q not registered", id)
		}
	}
}
