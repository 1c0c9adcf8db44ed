package session

import (
	"testing"

	"github.com/Problematy/goodmap-e2e-tests/internal/devices"
)

func TestUserAgentOverridePerProfile(t *testing.T) {
	for _, name := range devices.Names() {
		p, err := devices.Lookup(name)
		if err != nil {
			t.Fatal(err)
		}
		ua := userAgentOverride(p)
		if ua == nil {
			t.Fatalf("%s: nil override for mobile profile", name)
		}
		if ua.UserAgent != p.UserAgent {
			t.Errorf("%s: override UA = %q, want profile UA", name, ua.UserAgent)
		}
		if ua.UserAgentMetadata == nil || !ua.UserAgentMetadata.Mobile {
			t.Errorf("%s: metadata must mark the device mobile", name)
		}
	}
}

func TestUserAgentOverrideDesktopIsNil(t *testing.T) {
	if ua := userAgentOverride(devices.Desktop); ua != nil {
		t.Errorf("desktop profile must keep the browser UA, got %+v", ua)
	}
}

func TestPlatformDetection(t *testing.T) {
	tests := []struct {
		ua       string
		js       string
		metadata string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X)", "iPhone", "iOS"},
		{"Mozilla/5.0 (iPad; CPU OS 11_0 like Mac OS X)", "iPad", "iOS"},
		{"Mozilla/5.0 (Linux; Android 9; SAMSUNG SM-G973U)", "Linux armv8l", "Android"},
		{"Mozilla/5.0 (X11; Linux x86_64)", "Linux x86_64", "Linux"},
	}
	for _, tt := range tests {
		if got := jsPlatform(tt.ua); got != tt.js {
			t.Errorf("jsPlatform(%q) = %q, want %q", tt.ua, got, tt.js)
		}
		if got := metadataPlatform(tt.ua); got != tt.metadata {
			t.Errorf("metadataPlatform(%q) = %q, want %q", tt.ua, got, tt.metadata)
		}
	}
}
