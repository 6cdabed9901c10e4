package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/modloader/internal/events"
)

// responder answers overwrite questions from the hub until ctx is done.
// With assumeYes every question is approved without prompting; otherwise
// the user is asked on out and the answer read from in. Anything but y or
// yes, including end of input, declines.
type responder struct {
	hub       *events.Hub
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func newResponder(hub *events.Hub, in io.Reader, out io.Writer, assumeYes bool) *responder {
	return &responder{hub: hub, in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

// start runs the responder in the background. The returned func stops it;
// a prompt already waiting on input is abandoned.
func (r *responder) start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	go r.run(ctx)
	return cancel
}

func (r *responder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.hub.Requests():
			r.hub.Answer(req.ModName, r.ask(req.ModName))
		}
	}
}

func (r *responder) ask(name string) bool {
	if r.assumeYes {
		return true
	}
	fmt.Fprintf(r.out, "%s A mod named %q is already registered and one of the versions is unknown. Overwrite? [y/N] ",
		warningStyle.Render("?"), name)

	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(r.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
