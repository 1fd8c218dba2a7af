package events

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Console renders events as colored progress lines.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool

	cyan   *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	faint  *color.Color
}

func NewConsole(out io.Writer, verbose bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:     out,
		verbose: verbose,
		cyan:    color.New(color.FgCyan),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow),
		red:     color.New(color.FgRed),
		faint:   color.New(color.Faint),
	}
}

func (c *Console) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case RunStarted:
		c.cyan.Fprintf(c.out, "🌱 %s\n", e.Message)
	case StageStarted:
		if e.Total > 0 {
			c.cyan.Fprintf(c.out, "  📝 Generating %s (%d rows)...\n", e.Stage, e.Total)
		} else {
			c.cyan.Fprintf(c.out, "  📝 Generating %s...\n", e.Stage)
		}
	case ChunkWritten:
		c.faint.Fprintf(c.out, "     inserted %s: %d/%d\n", e.Stage, e.Done, e.Total)
	case StageCompleted:
		c.green.Fprintf(c.out, "  ✅ %s: %d rows\n", e.Stage, e.Rows)
	case StageFailed:
		c.red.Fprintf(c.out, "  ❌ %s failed: %v\n", e.Stage, e.Err)
	case Warning:
		// per-customer mask warnings only show up with --verbose
		if e.Category == CategoryMask && !c.verbose {
			return
		}
		c.yellow.Fprintf(c.out, "  ⚠️  [%s] %s\n", e.Category, e.Message)
	case RunCompleted:
		c.green.Fprintf(c.out, "\n✅ %s\n", e.Message)
	case RunFailed:
		c.red.Fprintf(c.out, "\n❌ Run failed: %v\n", e.Err)
	}
}
