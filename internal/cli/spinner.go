package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates one status line on w until stop is called or ctx ends.
// Runs longer than a second show the elapsed time. Only the spinner's own
// goroutine writes to w.
type spinner struct {
	w     io.Writer
	msg   string
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
	width int // widest line drawn so far
}

// startSpinner draws msg with a spinner on w, starting one frame interval
// from now so that fast operations leave no trace.
func startSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	s := &spinner{
		w:    w,
		msg:  msg,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run(ctx, time.Now())
	return s
}

func (s *spinner) run(ctx context.Context, start time.Time) {
	defer close(s.done)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-s.quit:
			s.clear()
			return
		case now := <-ticker.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)], now.Sub(start))
		}
	}
}

func (s *spinner) draw(frame string, elapsed time.Duration) {
	text := s.msg
	if elapsed >= time.Second {
		text += fmt.Sprintf(" (%ds)", int(elapsed.Seconds()))
	}
	s.width = max(s.width, len([]rune(frame))+1+len([]rune(text)))
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(text))
}

func (s *spinner) clear() {
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
}

// stop ends the animation and waits until the line is cleared. Calling it
// again is a no-op.
func (s *spinner) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}
