package history

import "time"

// Window is a named history range offered to the operator. The renderer does
// not interpret it; sources turn it into a from/to pair.
type Window struct {
	Key      string        `json:"key"`
	Label    string        `json:"label"`
	Duration time.Duration `json:"-"`
}

var windows = []Window{
	{Key: "24h", Label: "last 24h", Duration: 24 * time.Hour},
	{Key: "7d", Label: "last 7d", Duration: 7 * 24 * time.Hour},
}

// DefaultWindow is used when a request names no range.
const DefaultWindow = "24h"

func Windows() []Window {
	return append([]Window(nil), windows...)
}

func LookupWindow(key string) (Window, bool) {
	if key == "" {
		key = DefaultWindow
	}
	for _, w := range windows {
		if w.Key == key {
			return w, true
		}
	}
	return Window{}, false
}

// Bounds returns the [from, to] interval ending at now.
func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	return now.Add(-w.Duration), now
}
