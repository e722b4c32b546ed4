//go:build ember_debug

package process

// SetWaitingFor records the service a process is about to block on. Called
// by the service package's suspend() only when built with ember_debug,
// mirroring DEBUG_ENABLE's waiting_for field from spec.md §3.
func (p *Process) SetWaitingFor(svc interface{}) { p.waitingFor = svc }

const DebugEnabled = true
