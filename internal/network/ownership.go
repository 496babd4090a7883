package network

import "sync"

// Ownership tracks which session is authoritative for each networked object.
// Objects with no entry are local-only and never change owner.
type Ownership struct {
	mu      sync.RWMutex
	local   string
	owners  map[string]string
	changes []ChangeFunc
}

type ChangeFunc func(object, previous, current string)

func NewOwnership(localSession string) *Ownership {
	return &Ownership{
		local:  localSession,
		owners: make(map[string]string),
	}
}

func (o *Ownership) LocalSession() string {
	return o.local
}

func (o *Ownership) OwnerOf(object string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	owner, ok := o.owners[object]
	return owner, ok
}

// SetOwner records session as owner of object. Observers run outside the lock.
func (o *Ownership) SetOwner(object, session string) {
	o.mu.Lock()
	previous := o.owners[object]
	o.owners[object] = session
	observers := append([]ChangeFunc(nil), o.changes...)
	o.mu.Unlock()

	if previous == session {
		return
	}
	for _, fn := range observers {
		fn(object, previous, session)
	}
}

// TakeOwnership claims object for the local session.
func (o *Ownership) TakeOwnership(object string) {
	o.SetOwner(object, o.local)
}

func (o *Ownership) IsMine(object string) bool {
	owner, ok := o.OwnerOf(object)
	return !ok || owner == o.local
}

func (o *Ownership) Forget(object string) {
	o.mu.Lock()
	delete(o.owners, object)
	o.mu.Unlock()
}

func (o *Ownership) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	o.changes = append(o.changes, fn)
	o.mu.Unlock()
}
