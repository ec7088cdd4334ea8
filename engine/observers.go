package engine

// FrameObserver receives each frame after it is handed to the surface.
// The frame is only valid for the duration of the callback; observers that
// keep it must Clone it.
type FrameObserver func(*Frame)

type frameObserver struct {
	id int
	fn FrameObserver
}

// AddFrameObserver registers fn to run after each publish. Observers run in
// registration order. Returns an id for later removal.
//
// The registry belongs to the engine and is not safe to mutate while Tick
// is running on another goroutine.
func (e *Engine) AddFrameObserver(fn FrameObserver) int {
	id := e.nextObsID
	e.nextObsID++
	e.observers = append(e.observers, frameObserver{id: id, fn: fn})
	return id
}

// RemoveFrameObserver unregisters the observer with the given id. Unknown
// ids are ignored.
func (e *Engine) RemoveFrameObserver(id int) {
	for i, obs := range e.observers {
		if obs.id == id {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// ObserverCount returns the number of registered frame observers.
func (e *Engine) ObserverCount() int {
	return len(e.observers)
}
