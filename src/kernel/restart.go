//go:build ember_restart

package kernel

import "ember/src/kernerr"

// TerminateProcess resets the process at priority to its just-constructed
// state (spec.md §4.3's restart-mode Terminate), using this kernel's
// platform port to reinitialize the stack frame. Pair with
// GetProc(priority).Start() to restart it.
func (k *Kernel) TerminateProcess(priority int) error {
	p := k.GetProc(priority)
	if p == nil {
		return kernerr.New(kernerr.KernelSubsystem, kernerr.NotRegistered, priority)
	}
	p.Terminate(k.port)
	return nil
}
