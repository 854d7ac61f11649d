package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/aretw0/parkdash/pkg/domain"
	"golang.org/x/term"
)

// Prompt reads credentials. Passwords are read without echo when In is a terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	lines *bufio.Reader
}

// NewPrompt prompts on in and writes labels to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{In: in, Out: out}
}

func (p *Prompt) reader() *bufio.Reader {
	if p.lines == nil {
		p.lines = bufio.NewReader(p.In)
	}
	return p.lines
}

// Line prints label and reads one trimmed line.
func (p *Prompt) Line(label string) (string, error) {
	fmt.Fprint(p.Out, label)
	line, err := p.reader().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return tui.SanitizeInput(strings.TrimSpace(line))
}

// Secret prints label and reads a line without echo on terminals.
func (p *Prompt) Secret(label string) (string, error) {
	f, ok := p.In.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.Line(label)
	}
	fmt.Fprint(p.Out, label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// Login asks for whatever is missing, then logs in and persists the session.
func Login(ctx context.Context, app *App, p *Prompt, username, password string) (domain.Credentials, error) {
	var err error
	if username == "" {
		if username, err = p.Line("Username: "); err != nil {
			return domain.Credentials{}, err
		}
	}
	if password == "" {
		if password, err = p.Secret("Password: "); err != nil {
			return domain.Credentials{}, err
		}
	}
	return app.Client.Login(ctx, username, password)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
