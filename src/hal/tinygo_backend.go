//go:build tinygo

// Hardware backend for bare-metal ARM targets, grounded on
// iansmith-feelings/src/lib/upbeat/interrupt_support.go (MaskDAIF/UnmaskDAIF)
// and src/hardware/arm-cortex-a53/interrupts.go. Selected automatically when
// building with the TinyGo compiler (which defines the "tinygo" build tag).
package hal

import (
	"device/arm"

	"ember/src/critsec"
)

func init() {
	critsec.SetBackend(armBackend{})
}

// armBackend masks/unmasks IRQ+FIQ via the DAIF register, exactly as the
// teacher's MaskDAIF/UnmaskDAIF pair does. A single physical core makes this
// trivially reentrant: disabling twice in a row is simply a no-op the second
// time, and the saved flag tells Restore whether the outermost Enter found
// interrupts on or off.
type armBackend struct{}

func (armBackend) Disable() bool {
	wasEnabled := arm.AsmFull("mrs {daif}, DAIF", nil).(uint64)&0x80 == 0
	arm.Asm("msr daifset, #0x3")
	return wasEnabled
}

func (armBackend) Restore(wasEnabled bool) {
	if wasEnabled {
		arm.Asm("msr daifclr, #0x3")
	}
}
