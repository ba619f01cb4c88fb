package internal

import (
	"io"

	"github.com/starford/vaultsort/internal/console"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	console   *console.Console
	logOutput io.Writer
	stdin     io.Reader
	stdout    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConsole sets the terminal used for prompts and summaries.
func WithConsole(c *console.Console) Option {
	return func(a *application) {
		a.console = c
	}
}

// WithLogOutput redirects the structured log (stderr by default).
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithStdio sets the streams the MCP server talks over.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.stdin = in
		a.stdout = out
	}
}
