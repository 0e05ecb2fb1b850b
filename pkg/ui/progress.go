package ui

import (
	"fmt"
	"time"
)

// StatusTracker follows the pages of a run for the page banner and the
// closing rate line
type StatusTracker struct {
	Pages     int
	StartTime time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
	}
}

// NextPage records the start of a page fetch and returns its number
func (st *StatusTracker) NextPage() int {
	st.Pages++
	return st.Pages
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetDownloadRate returns downloaded files per minute
func (st *StatusTracker) GetDownloadRate(downloaded int) float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(downloaded) / elapsed
}

// PrintPageStatus prints the banner for a page fetch
func (st *StatusTracker) PrintPageStatus(c *Console, cursor string) {
	after := "newest"
	if cursor != "" {
		after = "after " + cursor
	}
	c.Println(fmt.Sprintf("%s %s", c.Magenta(fmt.Sprintf("[PAGE %d]", st.Pages)), c.Dim(after)))
}

// PrintRate prints how long the run took and its download rate
func (st *StatusTracker) PrintRate(c *Console, downloaded int) {
	c.Println(c.Dim(fmt.Sprintf("Elapsed %s, %.1f files/min",
		st.GetElapsedTime().Round(time.Second), st.GetDownloadRate(downloaded))))
}
