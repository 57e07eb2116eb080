package main

import (
	"fmt"
	"time"
)

const (
	applicationTitle = "Fractality"
	fpsInterval      = time.Second / 2
)

// frameCounter averages the frame rate over fixed intervals.
type frameCounter struct {
	interval time.Duration
	start    time.Time
	frames   int
}

// Frame records a frame drawn at now. Once per interval it returns the
// average frame rate since the previous report.
func (c *frameCounter) Frame(now time.Time) (fps float64, ok bool) {
	if c.start.IsZero() {
		c.start = now
		return 0, false
	}
	c.frames++

	elapsed := now.Sub(c.start)
	if elapsed < c.interval {
		return 0, false
	}
	fps = float64(c.frames) / elapsed.Seconds()
	c.start = now
	c.frames = 0
	return fps, true
}

func fpsTitle(fps float64) string {
	return fmt.Sprintf("%s (%.2f FPS)", applicationTitle, fps)
}
