package sim

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"time"

	"goesc/core"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Sample is one trace point
type Sample struct {
	T         time.Duration
	State     core.SupervisorState
	Interval  uint32
	Commanded uint16
	Applied   uint16
	Motor     float64 // motor interval, 0 if unknown or stopped
}

// Trace records controller status at a fixed period of simulated time
type Trace struct {
	Samples []Sample
	every   uint64
	next    uint64
}

// NewTrace creates a trace sampling every period ticks
func NewTrace(period uint64) *Trace {
	return &Trace{every: period}
}

// due reports whether a sample is due at now and moves the schedule on
func (tr *Trace) due(now uint64) bool {
	if tr == nil || tr.every == 0 || now < tr.next {
		return false
	}
	tr.next = now + tr.every
	return true
}

// FirstIn returns the time state was first recorded, false if never
func (tr *Trace) FirstIn(state core.SupervisorState) (time.Duration, bool) {
	for _, s := range tr.Samples {
		if s.State == state {
			return s.T, true
		}
	}
	return 0, false
}

// SavePlot writes two PNGs: duty (path) and commutation interval (path with
// an _interval suffix).
func (tr *Trace) SavePlot(path string) error {
	if len(tr.Samples) == 0 {
		return fmt.Errorf("trace is empty")
	}

	pDuty := plot.New()
	pDuty.Title.Text = "Duty"
	pDuty.X.Label.Text = "Time (ms)"
	pDuty.Y.Label.Text = "PWM ticks"

	pIv := plot.New()
	pIv.Title.Text = "Commutation interval"
	pIv.X.Label.Text = "Time (ms)"
	pIv.Y.Label.Text = "Timer ticks"

	cmdPts := make(plotter.XYs, 0, len(tr.Samples))
	appliedPts := make(plotter.XYs, 0, len(tr.Samples))
	ivPts := make(plotter.XYs, 0, len(tr.Samples))
	motorPts := make(plotter.XYs, 0, len(tr.Samples))
	for _, s := range tr.Samples {
		x := float64(s.T) / float64(time.Millisecond)
		cmdPts = append(cmdPts, plotter.XY{X: x, Y: float64(s.Commanded)})
		appliedPts = append(appliedPts, plotter.XY{X: x, Y: float64(s.Applied)})
		ivPts = append(ivPts, plotter.XY{X: x, Y: float64(s.Interval)})
		if s.Motor > 0 {
			motorPts = append(motorPts, plotter.XY{X: x, Y: s.Motor})
		}
	}

	if err := addLine(pDuty, cmdPts, "commanded", color.RGBA{R: 128, G: 128, B: 128, A: 255}); err != nil {
		return err
	}
	if err := addLine(pDuty, appliedPts, "applied", color.RGBA{R: 200, A: 255}); err != nil {
		return err
	}
	if err := addLine(pIv, ivPts, "measured", color.RGBA{B: 200, A: 255}); err != nil {
		return err
	}
	if len(motorPts) > 0 {
		if err := addLine(pIv, motorPts, "motor", color.RGBA{G: 160, A: 255}); err != nil {
			return err
		}
	}

	if err := pDuty.Save(12*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save duty plot: %w", err)
	}
	ext := filepath.Ext(path)
	ivPath := strings.TrimSuffix(path, ext) + "_interval" + ext
	if err := pIv.Save(12*vg.Inch, 4*vg.Inch, ivPath); err != nil {
		return fmt.Errorf("save interval plot: %w", err)
	}
	return nil
}

func addLine(p *plot.Plot, pts plotter.XYs, name string, c color.Color) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("%s line: %w", name, err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}
