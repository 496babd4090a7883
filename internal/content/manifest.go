package content

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalidManifest = errors.New("invalid scene manifest")

// Manifest is the TOML description of a scene: interactables, spawnable
// media and the initial actuator poses.
type Manifest struct {
	Hands     HandsSection      `toml:"hands"`
	Assets    []AssetEntry      `toml:"asset"`
	Templates []TemplateEntry   `toml:"template"`
	Objects   []ObjectEntry     `toml:"object"`
	Owners    map[string]string `toml:"owners"`
}

type HandsSection struct {
	Left   *[3]float64 `toml:"left"`
	Right  *[3]float64 `toml:"right"`
	Cursor *[3]float64 `toml:"cursor"`
}

type AssetEntry struct {
	Src       string     `toml:"src"`
	Half      [3]float64 `toml:"half"`
	LoadTicks int        `toml:"load_ticks"`
	Aliases   []string   `toml:"aliases"`
}

type TemplateEntry struct {
	Name         string   `toml:"name"`
	Capabilities []string `toml:"capabilities"`
}

type ObjectEntry struct {
	ID           string        `toml:"id"`
	Parent       string        `toml:"parent"`
	Position     [3]float64    `toml:"position"`
	Rotation     [3]float64    `toml:"rotation"`
	Scale        *[3]float64   `toml:"scale"`
	Half         *[3]float64   `toml:"half"`
	NoBody       bool          `toml:"no_body"`
	Capabilities []string      `toml:"capabilities"`
	Spawner      *SpawnerEntry `toml:"spawner"`
}

type SpawnerEntry struct {
	Src                    string      `toml:"src"`
	Template               string      `toml:"template"`
	Resolve                bool        `toml:"resolve"`
	Resize                 bool        `toml:"resize"`
	Cooldown               string      `toml:"cooldown"`
	UseCustomSpawnPosition bool        `toml:"use_custom_spawn_position"`
	SpawnPosition          *[3]float64 `toml:"spawn_position"`
	UseCustomSpawnRotation bool        `toml:"use_custom_spawn_rotation"`
	SpawnRotation          *[3]float64 `toml:"spawn_rotation"`
	UseCustomSpawnScale    bool        `toml:"use_custom_spawn_scale"`
	SpawnScale             *[3]float64 `toml:"spawn_scale"`
	CenterSpawnedObject    bool        `toml:"center_spawned_object"`

	cooldown *time.Duration
}

// CooldownDuration is the parsed cooldown, or false when the manifest keeps
// the default.
func (s *SpawnerEntry) CooldownDuration() (time.Duration, bool) {
	if s == nil || s.cooldown == nil {
		return 0, false
	}
	return *s.cooldown, true
}

// Load decodes the manifest at path. Unknown keys are logged and ignored.
func Load(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("load scene manifest: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		slog.Warn("scene manifest has unknown keys", "path", path, "keys", strings.Join(keys, ","))
	}
	if !meta.IsDefined("hands") {
		slog.Debug("scene manifest has no hands section, using default poses", "path", path)
	}
	if err := m.normalize(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) normalize() error {
	for i := range m.Objects {
		obj := &m.Objects[i]
		obj.ID = strings.TrimSpace(obj.ID)
		obj.Parent = strings.TrimSpace(obj.Parent)
		if obj.ID == "" {
			return fmt.Errorf("%w: object #%d has no id", ErrInvalidManifest, i)
		}
		if obj.Spawner == nil || strings.TrimSpace(obj.Spawner.Cooldown) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(obj.Spawner.Cooldown))
		if err != nil {
			return fmt.Errorf("%w: object %q: parse cooldown: %v", ErrInvalidManifest, obj.ID, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: object %q: negative cooldown", ErrInvalidManifest, obj.ID)
		}
		obj.Spawner.cooldown = &d
	}
	for i := range m.Assets {
		m.Assets[i].Src = strings.TrimSpace(m.Assets[i].Src)
		if m.Assets[i].Src == "" {
			return fmt.Errorf("%w: asset #%d has no src", ErrInvalidManifest, i)
		}
	}
	return nil
}
