package trigger

// SignalSource is the host-environment capability set the trigger engine
// observes. The core never touches the environment directly; a hosting
// environment (browser bridge, test harness, native shell) supplies an
// adapter implementing these signals.
//
// Every On* registration returns a cancel function releasing it. Cancel is
// idempotent. Callbacks may be invoked from any goroutine; the trigger
// engine routes them onto the dispatcher before touching shared state.
type SignalSource interface {
	// ScrollPosition returns the current scroll offset and the content and
	// viewport extents, for the initial scroll-depth evaluation at arm time.
	ScrollPosition() (offset, contentHeight, viewportHeight float64)

	// OnScroll registers for scroll position changes.
	OnScroll(fn func(offset, contentHeight, viewportHeight float64)) (cancel func())

	// OnPointerLeave registers for the pointer crossing the top edge of the
	// viewport while the window retains focus.
	OnPointerLeave(fn func()) (cancel func())

	// OnElementVisible registers for visible-intersection changes of the
	// element matching selector. fn receives the visible ratio in [0, 1].
	OnElementVisible(selector string, fn func(ratio float64)) (cancel func())

	// OnClick registers a delegated observation for interactions matching
	// selector. The host matches against the selector; there is no
	// per-element binding in the core.
	OnClick(selector string, fn func()) (cancel func())
}

// ScrollPercent converts a scroll position into a 0-100 depth percentage.
// A page with no scrollable extent counts as depth 0.
func ScrollPercent(offset, contentHeight, viewportHeight float64) float64 {
	scrollable := contentHeight - viewportHeight
	if scrollable <= 0 {
		return 0
	}
	return offset / scrollable * 100
}
