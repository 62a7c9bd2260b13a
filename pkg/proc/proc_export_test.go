package proc

import "time"

// SetMonitorSleep replaces the function a Monitor uses to wait between
// reads.
func SetMonitorSleep[T Value](m *Monitor[T], sleep func(time.Duration)) {
	m.sleep = sleep
}
