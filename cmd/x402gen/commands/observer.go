package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vitwit/x402gen/generation"
	"golang.org/x/term"
)

// terminalObserver renders job progress on stderr: one rewritten line on a
// terminal, one line per poll otherwise.
type terminalObserver struct {
	w       io.Writer
	tty     bool
	lineLen int
}

func newTerminalObserver(w io.Writer) *terminalObserver {
	return &terminalObserver{w: w, tty: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (o *terminalObserver) OnSubmitted(sub *generation.SubmissionResult) {
	fmt.Fprintf(o.w, "Job accepted: %s\n", sub.TaskID)
	if sub.TxHash != "" {
		fmt.Fprintf(o.w, "Payment: %s\n", sub.TxHash)
	}
	if sub.Explorer != "" {
		fmt.Fprintf(o.w, "Explorer: %s\n", sub.Explorer)
	}
}

func (o *terminalObserver) OnProgress(p generation.Progress) {
	state := p.State
	if state == "" {
		state = "pending"
	}
	line := fmt.Sprintf("%s %3.0f%%  %ds elapsed  poll %d/%d",
		state, p.Percent, int(p.Elapsed.Seconds()), p.Attempt, p.MaxAttempts)

	if !o.tty {
		fmt.Fprintln(o.w, line)
		return
	}
	pad := ""
	if n := o.lineLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprint(o.w, "\r"+line+pad)
	o.lineLen = len(line)
}

func (o *terminalObserver) endLine() {
	if o.tty && o.lineLen > 0 {
		fmt.Fprintln(o.w)
		o.lineLen = 0
	}
}

func (o *terminalObserver) OnCompleted(r *generation.Report) {
	o.endLine()
	fmt.Fprintf(o.w, "Completed after %d polls (%.0fs)\n", r.Attempts, r.ElapsedSeconds)
}

func (o *terminalObserver) OnFailed(err error) {
	o.endLine()

	var gerr *generation.Error
	if !errors.As(err, &gerr) || gerr.TaskID == "" {
		return
	}
	switch {
	case errors.Is(err, generation.ErrPollingTimeout):
		fmt.Fprintf(o.w, "Job %s is still running remotely; check it later with: x402gen status %s\n", gerr.TaskID, gerr.TaskID)
	case errors.Is(err, generation.ErrRemoteJob):
		fmt.Fprintf(o.w, "Job %s failed: %s\n", gerr.TaskID, gerr.Message)
	}
}
