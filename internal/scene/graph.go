package scene

import (
	"fmt"
	"sync"

	"github.com/Versifine/grasp/internal/vmath"
)

// MaxDepth bounds every parent-chain walk. Scene trees are shallow; a longer
// chain means a cycle slipped in.
const MaxDepth = 256

type Node struct {
	ID     string
	Parent string
	Local  vmath.Transform
}

type node struct {
	id       string
	parent   string
	children map[string]struct{}
	local    vmath.Transform
	dirty    bool
}

type RemoveFunc func(id string)

// Graph is the in-process scene tree. The interaction core only reads it
// (parents, world transforms) and writes placement of spawned objects.
type Graph struct {
	mu       sync.RWMutex
	nodes    map[string]*node
	onRemove []RemoveFunc
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// OnRemove registers a callback run for every node removed from the graph,
// including descendants removed with it.
func (g *Graph) OnRemove(fn RemoveFunc) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.onRemove = append(g.onRemove, fn)
	g.mu.Unlock()
}

func (g *Graph) Add(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("scene node id is empty")
	}
	if n.Local.Scale == (vmath.Vec3{}) && n.Local.Rotation == (vmath.Quat{}) {
		n.Local = withIdentityDefaults(n.Local)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("scene node %q already exists", n.ID)
	}
	if n.Parent != "" {
		parent, ok := g.nodes[n.Parent]
		if !ok {
			return fmt.Errorf("scene node %q: parent %q not found", n.ID, n.Parent)
		}
		parent.children[n.ID] = struct{}{}
	}
	g.nodes[n.ID] = &node{
		id:       n.ID,
		parent:   n.Parent,
		children: make(map[string]struct{}),
		local:    n.Local,
		dirty:    true,
	}
	return nil
}

// Remove deletes id and its subtree. Unknown ids are ignored.
func (g *Graph) Remove(id string) {
	g.mu.Lock()
	n, ok := g.nodes[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	if parent, ok := g.nodes[n.parent]; ok {
		delete(parent.children, id)
	}
	removed := make([]string, 0, 1)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cn, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for child := range cn.children {
			stack = append(stack, child)
		}
		delete(g.nodes, cur)
		removed = append(removed, cur)
	}
	callbacks := append([]RemoveFunc(nil), g.onRemove...)
	g.mu.Unlock()

	for _, rid := range removed {
		for _, fn := range callbacks {
			fn(rid)
		}
	}
}

func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Parent returns the parent id of id; ok is false for roots and unknown ids.
func (g *Graph) Parent(id string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok || n.parent == "" {
		return "", false
	}
	return n.parent, true
}

func (g *Graph) Local(id string) (vmath.Transform, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return vmath.Transform{}, false
	}
	return n.local, true
}

// SetLocal replaces the local transform and marks the node dirty.
func (g *Graph) SetLocal(id string, t vmath.Transform) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.local = t
	n.dirty = true
	return true
}

func (g *Graph) SetPosition(id string, pos vmath.Vec3) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.local.Position = pos
	n.dirty = true
	return true
}

func (g *Graph) SetScale(id string, scale vmath.Vec3) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.local.Scale = scale
	n.dirty = true
	return true
}

// WorldMatrix composes the local matrices from the root down to id.
func (g *Graph) WorldMatrix(id string) (vmath.Mat4, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return vmath.Mat4{}, false
	}
	m := n.local.Matrix()
	cur := n.parent
	for depth := 0; cur != "" && depth < MaxDepth; depth++ {
		p, ok := g.nodes[cur]
		if !ok {
			break
		}
		m = p.local.Matrix().Mul(m)
		cur = p.parent
	}
	return m, true
}

// World returns the decomposed world transform of id.
func (g *Graph) World(id string) (vmath.Transform, bool) {
	m, ok := g.WorldMatrix(id)
	if !ok {
		return vmath.Transform{}, false
	}
	return vmath.Decompose(m), true
}

func (g *Graph) MarkDirty(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[id]; ok {
		n.dirty = true
	}
}

func (g *Graph) Dirty(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return ok && n.dirty
}

// ClearDirty is called by whatever consumes re-composed matrices.
func (g *Graph) ClearDirty(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[id]; ok {
		n.dirty = false
	}
}

func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func withIdentityDefaults(t vmath.Transform) vmath.Transform {
	out := vmath.IdentityTransform()
	out.Position = t.Position
	return out
}
