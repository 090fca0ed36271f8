//go:build linux

// Command esc-bench runs the controller on a Linux board, driving a gate
// driver and reading back-EMF comparators through GPIO character device
// lines. Timing is soft: the PWM and watchdog interrupts are serviced from
// the busy waits, so use it for low-speed bench tests only.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"goesc/core"
)

var (
	chipPath = flag.String("chip", "/dev/gpiochip0", "GPIO character device")
	highA    = flag.Int("high-a", 17, "Phase A high-side gate line")
	highB    = flag.Int("high-b", 27, "Phase B high-side gate line")
	highC    = flag.Int("high-c", 22, "Phase C high-side gate line")
	lowA     = flag.Int("low-a", 5, "Phase A low-side gate line")
	lowB     = flag.Int("low-b", 6, "Phase B low-side gate line")
	lowC     = flag.Int("low-c", 13, "Phase C low-side gate line")
	senseA   = flag.Int("sense-a", 23, "Phase A comparator line")
	senseB   = flag.Int("sense-b", 24, "Phase B comparator line")
	senseC   = flag.Int("sense-c", 25, "Phase C comparator line")
	green    = flag.Int("green", -1, "Green light line (-1 for none)")
	red      = flag.Int("red", -1, "Red light line (-1 for none)")

	throttle = flag.Float64("throttle", 0.2, "Throttle fraction 0-1")
	duration = flag.Duration("duration", 10*time.Second, "Run time")
	mhz      = flag.Uint("mhz", 8, "Commutation clock rate in MHz")
	reverse  = flag.Bool("reverse", false, "Reverse rotation")
	lock     = flag.Bool("mlock", true, "Lock memory to avoid page faults in the control loop")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *throttle < 0 || *throttle > 1 {
		return fmt.Errorf("throttle %.2f out of range", *throttle)
	}

	runtime.LockOSThread()
	if *lock {
		if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: mlockall: %v\n", err)
		}
	}

	cfg := core.ConfigForClock(uint32(*mhz))
	cfg.Reverse = *reverse

	clock := newMonoClock(cfg.TimerMHz)
	irq := &softIRQ{clock: clock, rcEvery: uint64(cfg.TicksFromUS(20_000))}

	bridge, err := openBridge(*chipPath, bridgePins{
		High:  [3]int{*highA, *highB, *highC},
		Low:   [3]int{*lowA, *lowB, *lowC},
		Sense: [3]int{*senseA, *senseB, *senseC},
	}, irq)
	if err != nil {
		return err
	}
	defer bridge.Close()

	lights, err := openLights(bridge.chip, *green, *red)
	if err != nil {
		return err
	}
	defer lights.Close()

	c, err := core.NewController(cfg, core.Hardware{
		Timer:     clock,
		Phases:    bridge,
		Pwm:       irq,
		Indicator: lights,
	})
	if err != nil {
		return err
	}
	irq.esc = c

	var stop atomic.Bool
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, unix.SIGTERM)
	go func() {
		<-sigs
		stop.Store(true)
	}()

	cmd := uint16(*throttle * float64(cfg.MaxPower))
	irq.feed = func() (uint16, bool) { return cmd, true }

	core.SetDebugWriter(func(s string) { fmt.Println(s) })
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	end := clock.Ticks() + uint64(duration.Microseconds())*uint64(cfg.TimerMHz)
	c.SetPollHook(irq.service)
	c.SetStopHook(func() bool {
		return stop.Load() || clock.Ticks() >= end
	})

	fmt.Printf("Running at %.0f%% throttle for %s\n", *throttle*100, *duration)
	runErr := c.Run()
	st := c.Status()
	fmt.Printf("%s\nCommutation interval: %dus, PWM interrupts: %d\n", st, cfg.TicksToUS(st.Interval), irq.pwmCount)
	core.DumpEventRing()

	if err := bridge.Err(); err != nil {
		return fmt.Errorf("gpio: %w", err)
	}
	if errors.Is(runErr, core.ErrStartFailed) {
		return runErr
	}
	return nil
}
