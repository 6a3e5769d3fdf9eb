package interactive

import (
	"context"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// Client runs a Shell on a readline prompt.
type Client struct {
	rl    *readline.Instance
	shell *Shell
}

// New creates the readline prompt. Attach a shell before calling Run.
func New() (*Client, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "telemetry> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Client{rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Client) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Client) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Attach sets the shell that executes commands.
func (c *Client) Attach(shell *Shell) {
	c.shell = shell
}

// Run starts the interactive command loop.
func (c *Client) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.shell.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		if c.shell.Exec(line) {
			cancel()
			return
		}
	}
}
