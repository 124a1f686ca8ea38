package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"

	contractx "github.com/voxline/voxline/agent/contract"
)

// ConsoleSession is the development SpeechSession: transcripts are lines on
// a reader, agent speech is printed to a writer. The production session is
// the managed voice pipeline bound behind the same interface.
type ConsoleSession struct {
	in  *bufio.Scanner
	out io.Writer
}

var _ contractx.SpeechSession = (*ConsoleSession)(nil)

func NewConsoleSession(in io.Reader, out io.Writer) *ConsoleSession {
	return &ConsoleSession{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

func (c *ConsoleSession) Say(ctx context.Context, text string) (contractx.SpeechHandle, error) {
	if _, err := fmt.Fprintf(c.out, "agent> %s\n", text); err != nil {
		return nil, err
	}
	return immediateHandle{}, nil
}

func (c *ConsoleSession) NextTranscript(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.in.Text(), nil
}

// immediateHandle reports playout as already finished; console output has no
// audio to wait on.
type immediateHandle struct{}

func (immediateHandle) WaitForPlayout(context.Context) error { return nil }
