//go:build !ember_debug

package process

// SetWaitingFor is a no-op outside ember_debug builds; waitingFor is never
// read, matching the teacher's DEBUG_ENABLE-gated fields being compiled out
// on release builds.
func (p *Process) SetWaitingFor(svc interface{}) {}

const DebugEnabled = false
