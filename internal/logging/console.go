package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
)

// Console is the operator-facing output of the agent. Every line is tagged
// with a coloured outcome.
type Console struct {
	mu  sync.Mutex
	out *termenv.Output
}

// NewConsole writes to w (stdout when nil). The colour profile follows the
// terminal unless opts pin one.
func NewConsole(w io.Writer, opts ...termenv.OutputOption) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{out: termenv.NewOutput(w, opts...)}
}

func (c *Console) Success(format string, v ...interface{}) {
	c.print("Success", "2", format, v...)
}

func (c *Console) Failure(format string, v ...interface{}) {
	c.print("Failure", "1", format, v...)
}

func (c *Console) Info(format string, v ...interface{}) {
	c.print("Info", "6", format, v...)
}

func (c *Console) print(tag string, color string, format string, v ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	label := c.out.String(tag + ":").Foreground(c.out.Color(color)).Bold()
	fmt.Fprintf(c.out, "%s %s\n", label, fmt.Sprintf(format, v...))
}
