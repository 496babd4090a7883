package event

// Dispatcher routes scene object events onto a Bus under the event name.
type Dispatcher struct {
	bus *Bus
}

func NewDispatcher(bus *Bus) *Dispatcher {
	return &Dispatcher{bus: bus}
}

// Dispatch publishes a SceneEvent for target. A string payload is recorded
// as the input path that caused the event.
func (d *Dispatcher) Dispatch(target, name string, payload any) {
	if d == nil || d.bus == nil {
		return
	}
	evt := SceneEvent{Target: target, Name: name}
	if path, ok := payload.(string); ok {
		evt.Path = path
	}
	d.bus.Publish(name, evt)
}

func (d *Dispatcher) Bus() *Bus {
	if d == nil {
		return nil
	}
	return d.bus
}
