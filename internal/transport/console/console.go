// Package console runs one menu conversation over a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/callpulse/internal/menu"
)

// Handler applies intents; *menu.Machine implements it.
type Handler interface {
	Handle(ctx context.Context, conv string, in menu.Intent, send func(menu.Reply))
}

const (
	prompt      = "> "
	invalidText = "Unknown command. Pick a number from the list or type /help."
)

// Console reads intents from in and writes replies to out.
type Console struct {
	h    Handler
	in   io.Reader
	out  io.Writer
	log  *zap.Logger
	conv string

	// buttons of the most recent reply, addressed by number
	buttons []menu.Button
}

// New returns a console bound to a fresh conversation id.
func New(h Handler, in io.Reader, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{h: h, in: in, out: out, log: log, conv: "console-" + uuid.NewString()}
}

// Conversation is the id replies are keyed by.
func (c *Console) Conversation() string { return c.conv }

// Run shows the main menu and processes lines until EOF, "quit", or ctx is
// done. Input is one of: a button number, an intent such as
// "run:top_sellers?top=3", or a command such as /start.
func (c *Console) Run(ctx context.Context) error {
	c.handle(ctx, menu.Start())
	sc := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, prompt)
		if !sc.Scan() {
			fmt.Fprintln(c.out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "/quit":
			return nil
		}
		in, err := c.resolve(line)
		if err != nil {
			c.log.Debug("rejected console input", zap.String("input", line), zap.Error(err))
			fmt.Fprintln(c.out, invalidText)
			continue
		}
		c.handle(ctx, in)
	}
}

func (c *Console) resolve(line string) (menu.Intent, error) {
	if n, err := strconv.Atoi(line); err == nil {
		if n < 1 || n > len(c.buttons) {
			return menu.Intent{}, fmt.Errorf("no option %d", n)
		}
		return menu.ParseIntent(c.buttons[n-1].Data)
	}
	return menu.ParseIntent(line)
}

func (c *Console) handle(ctx context.Context, in menu.Intent) {
	c.h.Handle(ctx, c.conv, in, c.print)
}

func (c *Console) print(r menu.Reply) {
	fmt.Fprintln(c.out, r.Text)
	if len(r.Buttons) == 0 {
		// keep the previous options addressable under the progress notice
		return
	}
	c.buttons = r.Buttons
	for i, b := range r.Buttons {
		fmt.Fprintf(c.out, "  [%d] %s\n", i+1, b.Label)
	}
}
