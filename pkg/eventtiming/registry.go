package eventtiming

// supportedEvents maps internal dispatcher event names to the canonical
// names used in reported entries. Only event types listed here produce
// timing entries; continuous move-family events are not tracked. The
// table is immutable after initialization, so lookups need no locking.
var supportedEvents = map[string]string{
	"topAuxClick":           "auxclick",
	"topClick":              "click",
	"topContextMenu":        "contextmenu",
	"topDblClick":           "dblclick",
	"topMouseDown":          "mousedown",
	"topMouseEnter":         "mouseenter",
	"topMouseLeave":         "mouseleave",
	"topMouseOut":           "mouseout",
	"topMouseOver":          "mouseover",
	"topMouseUp":            "mouseup",
	"topPointerOver":        "pointerover",
	"topPointerEnter":       "pointerenter",
	"topPointerDown":        "pointerdown",
	"topPointerUp":          "pointerup",
	"topPointerCancel":      "pointercancel",
	"topPointerOut":         "pointerout",
	"topPointerLeave":       "pointerleave",
	"topGotPointerCapture":  "gotpointercapture",
	"topLostPointerCapture": "lostpointercapture",
	"topTouchStart":         "touchstart",
	"topTouchEnd":           "touchend",
	"topTouchCancel":        "touchcancel",
	"topKeyDown":            "keydown",
	"topKeyPress":           "keypress",
	"topKeyUp":              "keyup",
	"topBeforeInput":        "beforeinput",
	"topInput":              "input",
	"topCompositionStart":   "compositionstart",
	"topCompositionUpdate":  "compositionupdate",
	"topCompositionEnd":     "compositionend",
	"topDragStart":          "dragstart",
	"topDragEnd":            "dragend",
	"topDragEnter":          "dragenter",
	"topDragLeave":          "dragleave",
	"topDragOver":           "dragover",
	"topDrop":               "drop",
}

// ReportedName resolves an internal event name to the canonical name
// used in reported entries. The second result is false for event types
// that are not tracked.
func ReportedName(name string) (string, bool) {
	reported, ok := supportedEvents[name]
	return reported, ok
}

// IsSupported reports whether the event type produces timing entries.
func IsSupported(name string) bool {
	_, ok := supportedEvents[name]
	return ok
}

// SupportedEvents returns a copy of the internal-to-canonical name table.
func SupportedEvents() map[string]string {
	m := make(map[string]string, len(supportedEvents))
	for name, reported := range supportedEvents {
		m[name] = reported
	}
	return m
}
