package surface

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"

	"github.com/1ureka/p2plink/internal/session"
	"github.com/1ureka/p2plink/internal/util"
)

// Console prints status lines, chat lines and failures to a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	// EchoOwn prints the local user's own lines as well. Off for a stdin
	// chat where the typed line is already on screen.
	EchoOwn bool
}

// NewConsole returns a Console writing to out, or to stdout if out is nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) Handle(ev session.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case session.StatusEvent:
		pterm.Info.WithWriter(c.out).Println(e.Text)

	case session.StateEvent:
		util.LogDebug("state: %s", e.State)

	case session.ChatReadyEvent:
		pterm.Success.WithWriter(c.out).Println("Chat ready. Type a message and press Enter (Ctrl+C to quit).")

	case session.MessageEvent:
		if e.From == session.FromYou && !c.EchoOwn {
			return
		}
		line := e.Line
		if e.From == session.FromPeer {
			line = pterm.Cyan(line)
		}
		fmt.Fprintln(c.out, line)

	case session.FailureEvent:
		printer := pterm.Warning
		if e.Kind == session.FailureProtocol {
			printer = pterm.Error
		}
		printer.WithWriter(c.out).Println(e.Text)
	}
}
