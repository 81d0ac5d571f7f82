package main

import (
	"fmt"
	"os"
	"time"
)

var spinnerChars = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// spinner animates a braille indicator on one terminal line while a question
// is in flight. It shares nothing with the caller beyond the start/stop signal.
type spinner struct {
	prefix  string
	message string
	done    chan struct{}
	stopped chan struct{}
}

func newSpinner(prefix, message string) *spinner {
	return &spinner{
		prefix:  prefix,
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *spinner) start() {
	go s.spin()
}

func (s *spinner) spin() {
	defer close(s.stopped)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-s.done:
			// Clear the spinner line
			fmt.Fprintf(os.Stdout, "\r%*s\r", 60, "")
			return
		case <-ticker.C:
			fmt.Fprintf(os.Stdout, "\r%s%c %s...", s.prefix, spinnerChars[i], s.message)
			i = (i + 1) % len(spinnerChars)
		}
	}
}

func (s *spinner) stop() {
	close(s.done)
	<-s.stopped
}
