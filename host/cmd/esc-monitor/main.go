package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"goesc/host/serial"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud       = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	eventsOnly = flag.Bool("events", false, "Only print event ring dump lines")
	stamp      = flag.Bool("timestamps", true, "Prefix lines with the host receive time")
	logPath    = flag.String("log", "", "Also append received lines to this file")
)

func main() {
	flag.Parse()

	fmt.Println("ESC Monitor - firmware debug console")
	fmt.Println("====================================")

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Opening %s...\n", *device)
	console, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer console.Close()

	var logFile *os.File
	if *logPath != "" {
		logFile, err = os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open log: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
	}

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		close(stop)
	}()

	lines := make(chan serial.Line, 64)
	errc := make(chan error, 1)
	go func() { errc <- console.Lines(lines, stop) }()

	fmt.Printf("Listening on %s (Ctrl-C to quit)\n", console.Device())
	start := time.Now()
	events := 0
	for l := range lines {
		if l.Event {
			events++
		}
		if *eventsOnly && !l.Event {
			continue
		}
		text := l.Text
		if *stamp {
			text = fmt.Sprintf("%10.3f %s", time.Since(start).Seconds(), text)
		}
		fmt.Println(text)
		if logFile != nil {
			fmt.Fprintln(logFile, text)
		}
		if strings.Contains(l.Text, "START_FAILED") {
			fmt.Println("*** controller reported a start failure ***")
		}
	}

	if err := <-errc; err != nil {
		fmt.Fprintf(os.Stderr, "Error: read failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nStopped after %s, %d event lines\n", time.Since(start).Round(time.Millisecond), events)
}
