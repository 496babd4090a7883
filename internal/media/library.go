package media

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Versifine/grasp/internal/interaction"
	"github.com/Versifine/grasp/internal/physics"
	"github.com/Versifine/grasp/internal/vmath"
)

var ErrAssetNotFound = errors.New("asset not found")

// DefaultTemplate is used when a request names no template.
const DefaultTemplate = "#interactable-media"

// DefaultTemplateCaps makes spawned media grabbable by every source.
const DefaultTemplateCaps = interaction.HandCollisionTarget |
	interaction.RemoteHoverTarget |
	interaction.OffersHandConstraint |
	interaction.OffersRemoteConstraint

// Asset describes a loadable media source.
type Asset struct {
	Src string
	// Half is the half extent of the spawned body. Zero uses the physics default.
	Half vmath.Vec3
	// LoadTicks is how many physics steps the body takes to load.
	LoadTicks int
}

// Library holds known assets, URL aliases and spawn templates.
type Library struct {
	mu        sync.RWMutex
	assets    map[string]Asset
	aliases   map[string]string
	templates map[string]interaction.Capability
}

func NewLibrary() *Library {
	return &Library{
		assets:    make(map[string]Asset),
		aliases:   make(map[string]string),
		templates: map[string]interaction.Capability{DefaultTemplate: DefaultTemplateCaps},
	}
}

func (l *Library) Add(a Asset) error {
	if a.Src == "" {
		return errors.New("asset src is empty")
	}
	if a.LoadTicks < physics.LoadNever {
		return fmt.Errorf("asset %q: invalid load ticks %d", a.Src, a.LoadTicks)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.assets[a.Src]; exists {
		return fmt.Errorf("asset %q already defined", a.Src)
	}
	l.assets[a.Src] = a
	return nil
}

// Alias maps an external URL to a known asset. Aliases are only consulted
// for requests with Resolve set.
func (l *Library) Alias(from, to string) error {
	key := canonical(from)
	if key == "" || to == "" {
		return errors.New("alias needs a source and a target")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.aliases[key] = to
	return nil
}

// AddTemplate registers the capabilities carried by objects built from name.
func (l *Library) AddTemplate(name string, caps interaction.Capability) {
	l.mu.Lock()
	l.templates[name] = caps
	l.mu.Unlock()
}

func (l *Library) Template(name string) (interaction.Capability, bool) {
	if name == "" {
		name = DefaultTemplate
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	caps, ok := l.templates[name]
	return caps, ok
}

// Lookup finds the asset for src. With resolve set, the canonical form of
// src and its aliases are tried as well.
func (l *Library) Lookup(src string, resolve bool) (Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.assets[src]; ok {
		return a, nil
	}
	if resolve {
		key := canonical(src)
		if a, ok := l.assets[key]; ok {
			return a, nil
		}
		if target, ok := l.aliases[key]; ok {
			if a, ok := l.assets[target]; ok {
				return a, nil
			}
		}
	}
	return Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, src)
}

// Sources lists asset sources in order.
func (l *Library) Sources() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.assets))
	for src := range l.assets {
		out = append(out, src)
	}
	l.mu.RUnlock()
	sort.Strings(out)
	return out
}

// canonical drops the query and fragment of src and lower-cases the scheme.
func canonical(src string) string {
	s := strings.TrimSpace(src)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "://"); i > 0 {
		s = strings.ToLower(s[:i]) + s[i:]
	}
	return s
}
