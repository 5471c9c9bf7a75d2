// Package proctor implements the tab-visibility lock applied to a running test.
package proctor

import "fmt"

// Signal is a foreground change reported by the browser.
type Signal string

const (
	SignalHidden  Signal = "hidden"
	SignalBlur    Signal = "blur"
	SignalVisible Signal = "visible"
	SignalFocus   Signal = "focus"
)

// ParseSignal validates a client supplied signal name.
func ParseSignal(raw string) (Signal, error) {
	switch s := Signal(raw); s {
	case SignalHidden, SignalBlur, SignalVisible, SignalFocus:
		return s, nil
	}
	return "", fmt.Errorf("unknown visibility signal %q", raw)
}

// State is the observable output of a Monitor.
type State struct {
	IsVisible      bool `json:"isVisible"`
	TabSwitchCount int  `json:"tabSwitchCount"`
	IsTestDisabled bool `json:"isTestDisabled"`
}

// Monitor is armed until the first hidden or blur signal, then stays disabled
// until Reset. A single tab switch usually fires both hidden and blur; only the
// first one counts.
type Monitor struct {
	enabled bool
	state   State
}

// NewMonitor returns an armed, visible monitor.
func NewMonitor(enabled bool) *Monitor {
	return &Monitor{enabled: enabled, state: State{IsVisible: true}}
}

// Restore rebuilds a monitor from persisted state.
func Restore(enabled bool, s State) *Monitor {
	return &Monitor{enabled: enabled, state: s}
}

// SetEnabled suspends or resumes observation. It never changes State.
func (m *Monitor) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// Enabled reports whether signals are currently observed.
func (m *Monitor) Enabled() bool {
	return m.enabled
}

// Apply feeds one signal and reports whether the state changed.
func (m *Monitor) Apply(sig Signal) bool {
	if !m.enabled {
		return false
	}
	before := m.state
	switch sig {
	case SignalHidden, SignalBlur:
		m.state.IsVisible = false
		if !m.state.IsTestDisabled {
			m.state.IsTestDisabled = true
			m.state.TabSwitchCount++
		}
	case SignalVisible, SignalFocus:
		m.state.IsVisible = true
	}
	return before != m.state
}

// Reset re-arms the monitor for a fresh attempt.
func (m *Monitor) Reset() {
	m.state = State{IsVisible: true}
}

// State returns a copy of the current state.
func (m *Monitor) State() State {
	return m.state
}
