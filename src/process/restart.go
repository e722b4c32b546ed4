//go:build ember_restart

package process

import (
	"unsafe"

	"ember/src/critsec"
)

// InitStackFrame is called by the kernel to (re)write the initial stack
// frame, on first registration and again from Terminate.
type StackInit interface {
	InitStackFrame(stackBase, stackTop uintptr, entry func()) uintptr
}

// Terminate resets p to its just-constructed state: removes it from
// whatever waiter map it last belonged to, clears its timeout, clears its
// ready bit, and reinitializes its stack frame so a subsequent Start
// re-enters p.entry from the top. Pair with Start to restart a process.
func (p *Process) Terminate(port StackInit) {
	g := critsec.Enter()
	defer g.Exit()

	if p.waitingMap != nil {
		*p.waitingMap &^= p.tag
		p.waitingMap = nil
	}
	p.timeout = 0
	p.kernel.ClearReady(p.tag)
	base := uintptr(unsafe.Pointer(&p.stackRegion[0]))
	top := base + uintptr(len(p.stackRegion))
	p.stackPointer = port.InitStackFrame(base, top, p.entry)
}
