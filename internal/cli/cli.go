// Package cli implements the x-scraper subcommands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"xscraper/internal/adapters/bird"
	"xscraper/internal/adapters/cookiestore"
	"xscraper/internal/config"
	"xscraper/internal/core/domain"
	"xscraper/internal/core/ports"
	"xscraper/internal/logging"
	"xscraper/internal/service"
)

// Version is the x-scraper release, overridden at build time with
// -ldflags "-X xscraper/internal/cli.Version=...".
var Version = "0.1.0"

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const usage = `Usage: x-scraper <command> [options]

Commands:
  scrape <url...>      Scrape tweets and save them as JSON or Markdown
  read <url>           Read a single tweet and print it
  check-auth           Check bird installation and cookies
  show-cookie-help     Explain how to extract cookies manually
  refresh-query-ids    Refresh bird's cached GraphQL query IDs
  version              Show version information

Run 'x-scraper <command> -h' for command options.
`

// App holds everything the commands share.
type App struct {
	Settings *config.Settings
	Logger   *logrus.Logger
	Cookies  ports.CookieStore
	Stdout   io.Writer
	Stderr   io.Writer

	color bool
}

// New creates an App. Colors are enabled only when stdout is a terminal.
func New(settings *config.Settings, logger *logrus.Logger, stdout, stderr io.Writer) *App {
	return &App{
		Settings: settings,
		Logger:   logger,
		Cookies:  cookiestore.NewFileStore(settings.CookiesFile),
		Stdout:   stdout,
		Stderr:   stderr,
		color:    logging.IsTerminal(stdout),
	}
}

// Run dispatches args (without the program name) and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.Stderr, usage)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "scrape":
		return a.scrape(ctx, rest)
	case "read":
		return a.read(ctx, rest)
	case "check-auth":
		return a.checkAuth(ctx, rest)
	case "show-cookie-help":
		return a.showCookieHelp(rest)
	case "refresh-query-ids":
		return a.refreshQueryIDs(ctx, rest)
	case "version", "--version":
		return a.version(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.Stdout, usage)
		return ExitOK
	}

	fmt.Fprintf(a.Stderr, "unknown command %q\n\n%s", cmd, usage)
	return ExitUsage
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func (a *App) newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.Stderr, "Usage: x-scraper %s %s\n\nOptions:\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args allowing flags before, after or between positional
// arguments. ok is false after a usage error or -h; code is then the exit code.
func parse(fs *flag.FlagSet, args []string) (positional []string, code int, ok bool) {
	if err := fs.Parse(reorderArgs(fs, args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ExitOK, false
		}
		return nil, ExitUsage, false
	}
	return fs.Args(), ExitOK, true
}

// reorderArgs moves flags ahead of positional arguments so flag.Parse sees
// all of them. Everything after "--" stays positional.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}

		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		f := fs.Lookup(name)
		if f == nil || isBoolFlag(f) {
			continue
		}
		if i+1 == len(args) {
			// let flag.Parse report the missing value
			return flags
		}
		i++
		flags = append(flags, args[i])
	}
	return append(append(flags, "--"), positional...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// cookies returns the best available cookies: environment (including .env and
// the config file), then the saved cookie file. source names where they came
// from; ok is false when bird must fall back to its own detection.
func (a *App) cookies() (c ports.Cookies, source string, ok bool) {
	if a.Settings.HasCookies() {
		return ports.Cookies{AuthToken: a.Settings.AuthToken, CT0: a.Settings.CT0}, "environment", true
	}
	saved, found, err := a.Cookies.Load()
	if err != nil {
		a.Logger.WithField("error", err).Warn("Ignoring unreadable cookies file")
		return ports.Cookies{}, "", false
	}
	if found {
		return saved, "cookies file", true
	}
	return ports.Cookies{}, "", false
}

func (a *App) newClient(cookies ports.Cookies, proxyURL string) *bird.Client {
	return bird.NewClient(bird.Config{
		BinaryPath: a.Settings.BirdPath,
		AuthToken:  cookies.AuthToken,
		CT0:        cookies.CT0,
		ProxyURL:   proxyURL,
		Timeout:    a.Settings.BirdTimeoutDuration(),
		Logger:     a.Logger,
	})
}

func (a *App) retryPolicy(retries int) service.RetryPolicy {
	return service.RetryPolicy{
		MaxRetries:  retries,
		BackoffBase: a.Settings.RetryWaitDuration(),
		BackoffMax:  a.Settings.RetryMaxWaitDuration(),
	}
}

func (a *App) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if a.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (a *App) success(format string, args ...interface{}) {
	a.paint(color.FgGreen).Fprintf(a.Stdout, "✓ "+format+"\n", args...)
}

func (a *App) warn(format string, args ...interface{}) {
	a.paint(color.FgYellow).Fprintf(a.Stdout, "⚠ "+format+"\n", args...)
}

func (a *App) fail(w io.Writer, format string, args ...interface{}) {
	a.paint(color.FgRed).Fprintf(w, "✗ "+format+"\n", args...)
}

// printError reports err on stderr, adding the remediation hint for rejected cookies.
func (a *App) printError(err error) {
	a.paint(color.FgRed).Fprintf(a.Stderr, "Error: %v\n", err)
	if domain.IsKind(err, domain.KindAuthFailure) {
		fmt.Fprintln(a.Stderr, "Run 'x-scraper show-cookie-help' for instructions.")
	}
}

func (a *App) version(ctx context.Context) int {
	fmt.Fprintf(a.Stdout, "x-scraper version %s\n", Version)
	client := a.newClient(ports.Cookies{}, "")
	if !client.Installed() {
		fmt.Fprintln(a.Stdout, "bird CLI: not installed")
		return ExitOK
	}
	fmt.Fprintf(a.Stdout, "bird CLI version %s\n", client.Version(ctx))
	return ExitOK
}
