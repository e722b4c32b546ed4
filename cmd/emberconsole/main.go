// Command emberconsole is an interactive host-side debug console for a
// running EMBER kernel, reading raw keystrokes the same way the teacher's
// release tool drives its flashing protocol
// (src/boot/anticipation/cmd/release/ioproto.go's ttyIOProto, built on
// github.com/mattn/go-tty). Commands drive a demo kernel instance running
// on the hosted platform port: 's' signals an event flag that a high
// priority process is waiting on, 'w' wakes a sleeping process, 't'
// prints the tick count, 'i' inspects every registered process, 'q' quits.
package main

import (
	"fmt"
	"time"

	tty "github.com/mattn/go-tty"

	"ember/src/eventflag"
	"ember/src/hal"
	"ember/src/kernel"
	"ember/src/prio"
	"ember/src/process"
)

const (
	prioHigh = 0
	prioMed  = 1
	prioIdle = 2

	processCount = 3
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
			if flag.Wait(0) {
				fmt.Println("\r\nH: signaled")
			}
		}
	}, false, "high")
	must(err)

	var med *process.Process
	med, err = k.RegisterProcess(prioMed, stackSize, func() {
		for {
			med.Sleep(1 << 30) // effectively parked until 'w'
		}
	}, false, "medium")
	must(err)

	_, err = k.NewIdleProcess(stackSize)
	must(err)

	go func() {
		for {
			time.Sleep(time.Millisecond)
			k.SystemTick()
		}
	}()

	go k.Run()

	t, err := tty.Open()
	if err != nil {
		fmt.Printf("emberconsole: no raw tty available (%v); commands disabled\n", err)
		select {}
	}
	defer t.Close()

	fmt.Println("emberconsole: s=signal flag, w=wake medium, t=tick count, i=inspect, q=quit")
	for {
		r, err := t.ReadRune()
		if err != nil {
			return
		}
		switch r {
		case 's':
			flag.Signal()
			fmt.Println("\r\nsignaled flag")
		case 'w':
			med.WakeUp()
			fmt.Println("\r\nwoke medium")
		case 't':
			fmt.Printf("\r\ntick count: %d\n", k.GetTickCount())
		case 'i':
			for i := 0; i < processCount; i++ {
				p := k.GetProc(i)
				if p == nil {
					continue
				}
				fmt.Printf("\r\npriority %d (%s): timeout=%d sleeping=%v suspended=%v\n",
					p.Priority(), p.Name(), p.Timeout(), p.IsSleeping(), p.IsSuspended())
			}
		case 'q':
			fmt.Println("\r\nbye")
			return
		}
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
