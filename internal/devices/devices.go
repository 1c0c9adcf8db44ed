// Package devices holds the static device emulation table used to
// parametrize mobile scenarios. The table is defined once at process scope
// and never mutated at runtime.
package devices

import (
	"fmt"
	"sort"
)

// Viewport is a device screen size in CSS pixels.
type Viewport struct {
	Width  int64
	Height int64
}

// Profile describes one emulated device: viewport, user agent and touch
// capability. Mobile controls the CDP device-metrics mobile flag (layout
// viewport, meta viewport handling).
type Profile struct {
	Name      string
	Viewport  Viewport
	UserAgent string
	HasTouch  bool
	Mobile    bool
}

// Desktop is the default profile for non-parametrized scenarios: a fixed
// desktop viewport with the browser's own user agent.
var Desktop = Profile{
	Name:     "desktop",
	Viewport: Viewport{Width: 1280, Height: 800},
}

// UnknownDeviceError reports a profile name absent from the table. This is
// a configuration error in the referencing scenario, not a runtime state.
type UnknownDeviceError struct {
	Name string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device profile %q", e.Name)
}

var table = map[string]Profile{
	"iphone-x": {
		Name:     "iphone-x",
		Viewport: Viewport{Width: 375, Height: 812},
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X) " +
			"AppleWebKit/604.1.38 (KHTML, like Gecko) " +
			"Version/11.0 Mobile/15A372 Safari/604.1",
		HasTouch: true,
		Mobile:   true,
	},
	"iphone-6": {
		Name:     "iphone-6",
		Viewport: Viewport{Width: 375, Height: 667},
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X) " +
			"AppleWebKit/604.1.38 (KHTML, like Gecko) " +
			"Version/11.0 Mobile/15A372 Safari/604.1",
		HasTouch: true,
		Mobile:   true,
	},
	"ipad-2": {
		Name:     "ipad-2",
		Viewport: Viewport{Width: 768, Height: 1024},
		UserAgent: "Mozilla/5.0 (iPad; CPU OS 11_0 like Mac OS X) " +
			"AppleWebKit/604.1.34 (KHTML, like Gecko) " +
			"Version/11.0 Mobile/15A5341f Safari/604.1",
		HasTouch: true,
		Mobile:   true,
	},
	"samsung-s10": {
		Name:     "samsung-s10",
		Viewport: Viewport{Width: 360, Height: 760},
		UserAgent: "Mozilla/5.0 (Linux; Android 9; SAMSUNG SM-G973U) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) " +
			"SamsungBrowser/9.2 Chrome/67.0.3396.87 Mobile Safari/537.36",
		HasTouch: true,
		Mobile:   true,
	},
}

// Lookup returns the named profile or *UnknownDeviceError.
func Lookup(name string) (Profile, error) {
	p, ok := table[name]
	if !ok {
		return Profile{}, &UnknownDeviceError{Name: name}
	}
	return p, nil
}

// Names returns every mobile profile name, sorted, for parametrized
// scenarios.
func Names() []string {
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
