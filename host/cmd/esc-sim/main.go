package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"goesc/core"
	"goesc/sim"
	"goesc/sim/config"
)

var (
	scenarioPath = flag.String("scenario", "", "YAML scenario file (default: steady flywheel)")
	plotPath     = flag.String("plot", "", "Write duty/interval plots to this PNG path")
	duration     = flag.Duration("duration", 0, "Override the scenario duration")
	reverse      = flag.Bool("reverse", false, "Run the reverse commutation sequence")
	verbose      = flag.Bool("verbose", false, "Print controller debug output")
	events       = flag.Bool("events", true, "Capture control events for the post-run listing")
)

func main() {
	flag.Parse()

	s, err := loadScenario()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		core.SetDebugWriter(func(msg string) { fmt.Println(msg) })
		core.SetDebugEnabled(true)
	}

	core.SetEventsEnabled(*events)

	rig, err := sim.NewRig(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Simulating %s, motor=%s, timer=%dMHz\n", s.Duration, s.Motor.Model, s.ESC.TimerMHz)
	wall := time.Now()
	res, err := rig.Run()
	failed := errors.Is(err, core.ErrStartFailed)
	if err != nil && !failed {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %s simulated in %s\n\n", res.Elapsed, time.Since(wall).Round(time.Millisecond))
	printResult(rig, res)

	if s.Plot != "" {
		fmt.Printf("\nPlots written to %s\n", s.Plot)
	}
	if failed || res.ShootThrough > 0 {
		os.Exit(2)
	}
}

func loadScenario() (*config.Scenario, error) {
	var s *config.Scenario
	if *scenarioPath == "" {
		s = config.DefaultScenario()
	} else {
		var err error
		if s, err = config.LoadFile(*scenarioPath); err != nil {
			return nil, err
		}
	}
	if *plotPath != "" {
		s.Plot = *plotPath
	}
	if *duration > 0 {
		s.Duration = *duration
	}
	if *reverse {
		s.ESC.Reverse = true
	}
	return s, nil
}

func printResult(rig *sim.Rig, res sim.Result) {
	fmt.Println("Final status:")
	fmt.Printf("  %s\n", res.Status)

	fmt.Print("States visited:")
	for _, st := range res.Visited {
		if t, ok := rig.Trace.FirstIn(st); ok {
			fmt.Printf(" %s@%s", st, t)
		} else {
			fmt.Printf(" %s", st)
		}
	}
	fmt.Println()

	fmt.Printf("Shoot-through events: %d\n", res.ShootThrough)
	fmt.Printf("Bridge switches: %d, comparator samples: %d\n", rig.Bridge.Switches, rig.Bridge.Samples)
	fmt.Printf("Timer overflows: %d, PWM interrupts: %d, deferred: %d\n",
		rig.Timer.Overflows, rig.Timer.PwmInterrupts, rig.Timer.DeferredEvents)

	fmt.Printf("\nLast %d events:\n", len(res.Events))
	for _, evt := range res.Events {
		fmt.Printf("  %-14s phase=%s clock=%06x v1=%d v2=%d\n",
			core.EventName(evt.EventType), evt.Phase, evt.Clock, evt.Value1, evt.Value2)
	}
}
