package view

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line message until stopped.
type Spinner struct {
	w       io.Writer
	message string
	done    chan struct{}
	cleared chan struct{}
	once    sync.Once
}

// StartSpinner displays an animated spinner with message on w.
func StartSpinner(w io.Writer, message string) *Spinner {
	sp := &Spinner{w: w, message: message, done: make(chan struct{}), cleared: make(chan struct{})}
	go sp.run()
	return sp
}

func (sp *Spinner) run() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-sp.done:
			fmt.Fprintf(sp.w, "\r%s\r", strings.Repeat(" ", runewidth.StringWidth(sp.message)+2)) //nolint:errcheck
			close(sp.cleared)
			return
		case <-ticker.C:
			fmt.Fprintf(sp.w, "\r%s %s", frames[i%len(frames)], sp.message) //nolint:errcheck
		}
	}
}

// Stop clears the spinner line. It is safe to call more than once.
func (sp *Spinner) Stop() {
	sp.once.Do(func() { close(sp.done) })
	<-sp.cleared
}
