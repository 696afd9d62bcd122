package tui

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var errNoTerminal = errors.New("output is not a terminal")

// Terminal implements the app platform on a terminal: notifications as
// OSC 777 escapes, the alert sound as the bell, and the online count in
// the window title.
type Terminal struct {
	mu  sync.Mutex
	out *termenv.Output
	tty bool
}

func NewTerminal(f *os.File) *Terminal {
	fd := f.Fd()
	return &Terminal{
		out: termenv.NewOutput(f),
		tty: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// ShowNotification fails when there is no terminal to notify, which makes
// the app fall back to an in-app alert.
func (t *Terminal) ShowNotification(title, body string) error {
	if !t.tty {
		return errNoTerminal
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.Notify(title, body)
	return nil
}

func (t *Terminal) Play() error {
	if !t.tty {
		return errNoTerminal
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.out.WriteString("\a")
	return err
}

func (t *Terminal) UpdateOnlineCount(n int) {
	if !t.tty {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.SetWindowTitle(fmt.Sprintf("Team Alert (%d online)", n))
}
