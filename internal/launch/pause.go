package launch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const PausePrompt = "Press any key to continue . . . "

// Pauser blocks until the operator acknowledges.
type Pauser interface {
	Pause() error
}

// ConsolePauser waits for a single key when In is a terminal and for a line
// (or EOF) otherwise.
type ConsolePauser struct {
	In  *os.File
	Out io.Writer
}

func (p ConsolePauser) Pause() error {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprint(out, PausePrompt)
	defer fmt.Fprintln(out)

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err == nil {
			defer term.Restore(fd, state)
			var b [1]byte
			_, err = in.Read(b[:])
			return err
		}
	}
	_, err := bufio.NewReader(in).ReadString('\n')
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// NoPause returns immediately.
type NoPause struct{}

func (NoPause) Pause() error { return nil }
