package interaction

import (
	"fmt"
	"strings"
)

// Capability is the fixed set of interaction tags an object can declare.
// Tags are resolved once at registration; per-tick code only tests bits.
type Capability uint16

const (
	HandCollisionTarget Capability = 1 << iota
	RemoteHoverTarget
	OffersHandConstraint
	OffersRemoteConstraint
	SingleActionButton
	HoldableButton
	Spawner
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{HandCollisionTarget, "is-hand-collision-target"},
	{RemoteHoverTarget, "is-remote-hover-target"},
	{OffersHandConstraint, "offers-hand-constraint"},
	{OffersRemoteConstraint, "offers-remote-constraint"},
	{SingleActionButton, "single-action-button"},
	{HoldableButton, "holdable-button"},
	{Spawner, "spawner"},
}

func (c Capability) Has(flag Capability) bool {
	return flag != 0 && c&flag == flag
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, entry := range capabilityNames {
		if c.Has(entry.cap) {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseCapability maps a tag name to its flag.
func ParseCapability(name string) (Capability, error) {
	key := strings.TrimSpace(strings.ToLower(name))
	for _, entry := range capabilityNames {
		if entry.name == key {
			return entry.cap, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}

// ParseCapabilities folds a list of tag names into one set.
func ParseCapabilities(names []string) (Capability, error) {
	var out Capability
	for _, name := range names {
		c, err := ParseCapability(name)
		if err != nil {
			return 0, err
		}
		out |= c
	}
	return out, nil
}
