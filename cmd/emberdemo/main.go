// Command emberdemo runs EMBER's three-process priority-preemption
// scenario (spec.md §8, scenario 1) against the hosted platform port, so
// the scheduler and event flag can be watched end to end on a development
// machine instead of real hardware. Grounded on the teacher's own
// demo-program shape (src/joy/main.go, samples/*), rebuilt around EMBER's
// bitmap scheduler and IPC services instead of the teacher's board
// bring-up code.
package main

import (
	"fmt"
	"time"

	"ember/src/eventflag"
	"ember/src/hal"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/process"
)

const (
	prioHigh = 0
	prioMed  = 1
	prioLow  = 2
	prioIdle = 3

	processCount = 4
	stackSize    = 4096
)

func main() {
	port := hal.NewHostedPort()
	k := kernel.New(port, kernel.Config{
		ProcessCount:      processCount,
		Order:             prio.LSBFirst,
		Scheme:            kernel.Direct,
		SystemTicksEnable: true,
	})

	flag := eventflag.New(k)

	_, err := k.RegisterProcess(prioHigh, stackSize, func() {
		for {
			flag.Wait(0)
			fmt.Println("H: resumed from flag.Wait")
		}
	}, false, "high")
	must(err)

	// med's entry closes over the *process.Process RegisterProcess is
	// about to return; the closure only runs once the scheduler switches
	// to it, long after med has been assigned.
	var med *process.Process
	med, err = k.RegisterProcess(prioMed, stackSize, func() {
		for {
			med.Sleep(1000)
			fmt.Println("M: woke from sleep (should not preempt H)")
		}
	}, false, "medium")
	must(err)

	_, err = k.RegisterProcess(prioLow, stackSize, func() {
		for {
			time.Sleep(5 * time.Millisecond)
			fmt.Println("L: signaling flag")
			flag.Signal()
		}
	}, false, "low")
	must(err)

	_, err = k.NewIdleProcess(stackSize)
	must(err)

	go func() {
		for {
			time.Sleep(time.Millisecond)
			k.SystemTick()
		}
	}()

	k.Run() // never returns
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
