package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"xscraper/internal/adapters/bird"
	"xscraper/internal/adapters/cookiestore"
	"xscraper/internal/core/ports"
)

const cookieHelp = `To extract X cookies manually:

1. Open x.com in your browser and make sure you are logged in
2. Open the developer tools (F12 or Cmd+Option+I)
3. Go to the "Application" tab (Chrome) or "Storage" tab (Firefox)
4. Under "Cookies", select "https://x.com"
5. Copy the values of these two cookies:
   - auth_token
   - ct0

6. Export them:
   export AUTH_TOKEN=your_auth_token_value
   export CT0=your_ct0_value

   or put them in a .env file in the working directory:
   AUTH_TOKEN=your_auth_token_value
   CT0=your_ct0_value

7. Optionally persist them for later runs:
   x-scraper check-auth --save

bird can also read cookies from Safari, Chrome or Firefox on its own:
   bird whoami

If that works, no manual setup is needed.
`

func (a *App) checkAuth(ctx context.Context, args []string) int {
	var save bool
	fs := a.newFlagSet("check-auth", "[--save]")
	fs.BoolVar(&save, "save", false, "save cookies from the environment to the cookies file")
	if _, code, ok := parse(fs, args); !ok {
		return code
	}

	a.paint(color.Bold).Fprintln(a.Stdout, "Checking authentication...")
	fmt.Fprintln(a.Stdout)

	client := a.newClient(ports.Cookies{}, a.Settings.ProxyURL)
	if !client.Installed() {
		a.fail(a.Stdout, "bird CLI not installed")
		fmt.Fprintln(a.Stdout, "  "+bird.InstallHint)
		return ExitFailure
	}
	a.success("bird CLI installed (version %s)", client.Version(ctx))

	cookies, source, found := a.cookies()
	if found {
		a.success("Cookies configured from %s", source)
		fmt.Fprintf(a.Stdout, "  AUTH_TOKEN: %s\n", mask(cookies.AuthToken))
		fmt.Fprintf(a.Stdout, "  CT0: %s\n", mask(cookies.CT0))

		if save {
			if source != "environment" {
				a.warn("Cookies already come from the cookies file; nothing to save")
			} else {
				path, err := a.Cookies.Save(cookies)
				if err != nil {
					a.fail(a.Stdout, "%v", err)
					return ExitFailure
				}
				a.success("Saved cookies to %s", path)
			}
		}

		fmt.Fprintln(a.Stdout)
		a.success("Ready to scrape!")
		fmt.Fprintln(a.Stdout, "  Try: x-scraper read https://x.com/user/status/123")
		return ExitOK
	}

	a.warn("No cookies found in .env, the environment or the cookies file")
	if save {
		a.warn("Set AUTH_TOKEN and CT0 before using --save")
	}
	fmt.Fprintln(a.Stdout)
	a.paint(color.Bold).Fprintln(a.Stdout, "Testing bird browser auto-detection...")

	user, err := client.WhoAmI(ctx)
	if err != nil {
		a.Logger.WithField("error", err).Debug("bird whoami failed")
		a.fail(a.Stdout, "bird couldn't auto-detect cookies")
		fmt.Fprintln(a.Stdout, "\nTo fix, either:")
		fmt.Fprintln(a.Stdout, "1. Log in to X in Safari, Chrome or Firefox (bird auto-detects)")
		fmt.Fprintln(a.Stdout, "2. Set AUTH_TOKEN and CT0 in a .env file or the environment")
		fmt.Fprintln(a.Stdout, "\nRun 'x-scraper show-cookie-help' for detailed instructions")
		return ExitFailure
	}
	a.success("bird auto-detected browser cookies (@%s)", user)
	return ExitOK
}

func (a *App) showCookieHelp(args []string) int {
	fs := a.newFlagSet("show-cookie-help", "")
	if _, code, ok := parse(fs, args); !ok {
		return code
	}
	a.paint(color.Bold).Fprintln(a.Stdout, "Cookie Extraction Instructions")
	fmt.Fprintln(a.Stdout)
	fmt.Fprint(a.Stdout, cookieHelp)

	path := a.Settings.CookiesFile
	if path == "" {
		path = cookiestore.DefaultPath()
	}
	fmt.Fprintf(a.Stdout, "\nSaved cookies live in %s\n", path)
	return ExitOK
}

func (a *App) refreshQueryIDs(ctx context.Context, args []string) int {
	fs := a.newFlagSet("refresh-query-ids", "")
	if _, code, ok := parse(fs, args); !ok {
		return code
	}

	cookies, _, _ := a.cookies()
	client := a.newClient(cookies, a.Settings.ProxyURL)
	if err := client.RefreshQueryIDs(ctx); err != nil {
		a.printError(err)
		return ExitFailure
	}
	a.success("Query IDs refreshed")
	return ExitOK
}

// mask shows only the first characters of a secret.
func mask(s string) string {
	const visible = 10
	if len(s) <= visible {
		return s[:len(s)/2] + "..."
	}
	return s[:visible] + "..."
}
