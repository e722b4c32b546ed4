//go:build tinygo

package hal

import (
	"unsafe"

	"device/arm"
)

func dummyInstr() { arm.Asm("nop") }

// ArmPort is the bare-metal Port. ContextSwitch and StartFirst are thin Go
// wrappers over assembly routines exactly like
// iansmith-feelings/src/joy/schedule.go's switchToDomain/cpuSwitchTo: the
// heavy lifting (saving callee-preserved registers, swapping SP) is
// per-target assembly, explicitly out of this core's scope per spec.md §1.
type ArmPort struct{}

//go:export ember_cpu_switch
func cpuSwitch(saveSlot *uintptr, newSP uintptr)

//go:export ember_start_first
func startFirst(sp uintptr)

//go:export ember_init_stack_frame
func initStackFrame(stackBase, stackTop uintptr, entry uintptr) uintptr

//go:export ember_raise_context_switch
func raiseContextSwitch()

//go:export ember_enable_context_switch
func enableContextSwitch()

//go:export ember_disable_context_switch
func disableContextSwitch()

func (ArmPort) StartFirst(sp uintptr) { startFirst(sp) }

func (ArmPort) ContextSwitch(saveSlot *uintptr, newSP uintptr) { cpuSwitch(saveSlot, newSP) }

func (ArmPort) InitStackFrame(stackBase, stackTop uintptr, entry func()) uintptr {
	entryAddr := **(**uintptr)(unsafe.Pointer(&entry))
	return initStackFrame(stackBase, stackTop, entryAddr)
}

func (ArmPort) RaiseContextSwitch()   { raiseContextSwitch() }
func (ArmPort) EnableContextSwitch()  { enableContextSwitch() }
func (ArmPort) DisableContextSwitch() { disableContextSwitch() }
func (ArmPort) DummyInstr()           { dummyInstr() }

var _ Port = ArmPort{}
