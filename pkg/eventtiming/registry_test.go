package eventtiming

import "testing"

func TestReportedName(t *testing.T) {
	tests := []struct {
		name     string
		reported string
	}{
		{"topClick", "click"},
		{"topAuxClick", "auxclick"},
		{"topPointerDown", "pointerdown"},
		{"topGotPointerCapture", "gotpointercapture"},
		{"topLostPointerCapture", "lostpointercapture"},
		{"topKeyDown", "keydown"},
		{"topCompositionUpdate", "compositionupdate"},
		{"topDrop", "drop"},
	}
	for _, tt := range tests {
		got, ok := ReportedName(tt.name)
		if !ok {
			t.Errorf("ReportedName(%q) not found", tt.name)
			continue
		}
		if got != tt.reported {
			t.Errorf("ReportedName(%q) = %q, want %q", tt.name, got, tt.reported)
		}
	}
}

func TestReportedNameUntracked(t *testing.T) {
	for _, name := range []string{"topMouseMove", "topPointerMove", "topTouchMove", "topScroll", "click", ""} {
		if got, ok := ReportedName(name); ok {
			t.Errorf("ReportedName(%q) = %q, want untracked", name, got)
		}
		if IsSupported(name) {
			t.Errorf("IsSupported(%q) = true, want false", name)
		}
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("topClick") {
		t.Error("IsSupported(topClick) = false, want true")
	}
}

func TestSupportedEventsCopy(t *testing.T) {
	m := SupportedEvents()
	if len(m) != len(supportedEvents) {
		t.Fatalf("SupportedEvents() returned %d entries, want %d", len(m), len(supportedEvents))
	}

	m["topClick"] = "tampered"
	if got, _ := ReportedName("topClick"); got != "click" {
		t.Error("mutating the returned map should not affect the registry")
	}
}
