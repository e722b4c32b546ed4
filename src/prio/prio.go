// Package prio implements the bitmap operations spec.md §4.2 describes:
// locating the highest-priority set bit in a ProcessMap and converting a
// priority into its tag, under either bit orientation.
package prio

import "math/bits"

// Map is a ProcessMap: bit i represents the process at priority i (or at
// priority N-i under reversed order). The Non-goal of more than 32 total
// priorities makes uint32 the natural width.
type Map = uint32

// Order selects which end of the bitmap priority 0 occupies.
type Order int

const (
	// LSBFirst: priority 0 is bit 0 (highest priority).
	LSBFirst Order = 0
	// MSBFirst: priority 0 is the top bit of the configured width (reversed order).
	MSBFirst Order = 1
)

// Highest returns the position of the highest-priority set bit in m under
// the given order and process count. It is undefined (and will panic) if m
// is zero; callers must guarantee a non-empty map, e.g. the idle process's
// bit is always ready.
func Highest(m Map, order Order, processCount int) int {
	if m == 0 {
		panic("prio: Highest called with an empty map")
	}
	switch order {
	case LSBFirst:
		return bits.TrailingZeros32(m)
	default:
		return processCount - 1 - (31 - bits.LeadingZeros32(m))
	}
}

// Tag returns the ProcessMap with exactly one bit set, at priority p's bit
// position under the given order and process count.
func Tag(p int, order Order, processCount int) Map {
	switch order {
	case LSBFirst:
		return 1 << uint(p)
	default:
		return 1 << uint(processCount-1-p)
	}
}

// HighestTag returns the tag of the highest-priority waiter in m. Under
// LSB-first order this is the classic "isolate lowest set bit" trick; under
// MSB-first it falls back to Tag(Highest(...)).
func HighestTag(m Map, order Order, processCount int) Map {
	if m == 0 {
		return 0
	}
	if order == LSBFirst {
		return m & -m
	}
	return Tag(Highest(m, order, processCount), order, processCount)
}
