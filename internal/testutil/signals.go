package testutil

import "sync"

// ManualSignals is a SignalSource driven explicitly by tests. Emit methods
// synchronously invoke every live registration, like a host adapter
// delivering a real event.
//
// Registration counts are exposed so tests can assert that teardown
// released everything.
type ManualSignals struct {
	mu sync.Mutex

	offset, contentH, viewportH float64

	nextID   int
	scroll   map[int]func(offset, contentH, viewportH float64)
	pointer  map[int]func()
	visible  map[int]visibleReg
	click    map[int]clickReg
}

type visibleReg struct {
	selector string
	fn       func(ratio float64)
}

type clickReg struct {
	selector string
	fn       func()
}

// NewManualSignals creates an empty signal source with no scroll extent.
func NewManualSignals() *ManualSignals {
	return &ManualSignals{
		scroll:  make(map[int]func(float64, float64, float64)),
		pointer: make(map[int]func()),
		visible: make(map[int]visibleReg),
		click:   make(map[int]clickReg),
	}
}

// SetScrollPosition sets the position returned by ScrollPosition without
// emitting a scroll event.
func (m *ManualSignals) SetScrollPosition(offset, contentH, viewportH float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset, m.contentH, m.viewportH = offset, contentH, viewportH
}

// ScrollPosition implements trigger.SignalSource.
func (m *ManualSignals) ScrollPosition() (float64, float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset, m.contentH, m.viewportH
}

// OnScroll implements trigger.SignalSource.
func (m *ManualSignals) OnScroll(fn func(offset, contentH, viewportH float64)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.scroll[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.scroll, id)
	}
}

// OnPointerLeave implements trigger.SignalSource.
func (m *ManualSignals) OnPointerLeave(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.pointer[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.pointer, id)
	}
}

// OnElementVisible implements trigger.SignalSource.
func (m *ManualSignals) OnElementVisible(selector string, fn func(ratio float64)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.visible[id] = visibleReg{selector: selector, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.visible, id)
	}
}

// OnClick implements trigger.SignalSource.
func (m *ManualSignals) OnClick(selector string, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.click[id] = clickReg{selector: selector, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.click, id)
	}
}

// EmitScroll updates the stored position and delivers a scroll event to
// every registration.
func (m *ManualSignals) EmitScroll(offset, contentH, viewportH float64) {
	m.mu.Lock()
	m.offset, m.contentH, m.viewportH = offset, contentH, viewportH
	fns := make([]func(float64, float64, float64), 0, len(m.scroll))
	for _, fn := range m.scroll {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(offset, contentH, viewportH)
	}
}

// EmitPointerLeave delivers an exit-intent event.
func (m *ManualSignals) EmitPointerLeave() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.pointer))
	for _, fn := range m.pointer {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// EmitElementVisible delivers an intersection ratio to registrations whose
// selector matches.
func (m *ManualSignals) EmitElementVisible(selector string, ratio float64) {
	m.mu.Lock()
	fns := make([]func(float64), 0)
	for _, reg := range m.visible {
		if reg.selector == selector {
			fns = append(fns, reg.fn)
		}
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ratio)
	}
}

// EmitClick delivers a click to registrations whose selector matches.
func (m *ManualSignals) EmitClick(selector string) {
	m.mu.Lock()
	fns := make([]func(), 0)
	for _, reg := range m.click {
		if reg.selector == selector {
			fns = append(fns, reg.fn)
		}
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Registrations returns the number of live registrations of every kind.
func (m *ManualSignals) Registrations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scroll) + len(m.pointer) + len(m.visible) + len(m.click)
}
