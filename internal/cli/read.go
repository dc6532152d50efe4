package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"xscraper/internal/core/domain"
	"xscraper/internal/format"
	"xscraper/internal/service"
)

func (a *App) read(ctx context.Context, args []string) int {
	var (
		formatFlag string
		raw        bool
	)
	fs := a.newFlagSet("read", "<url> [options]")
	fs.StringVar(&formatFlag, "format", "markdown", "output format: json or markdown")
	fs.StringVar(&formatFlag, "f", "markdown", "shorthand for --format")
	fs.BoolVar(&raw, "raw", false, "print bird's raw JSON (ignores --format)")
	fs.BoolVar(&raw, "r", false, "shorthand for --raw")

	urls, code, ok := parse(fs, args)
	if !ok {
		return code
	}
	if len(urls) != 1 {
		fmt.Fprintf(a.Stderr, "read: exactly one tweet URL is required, got %d\n", len(urls))
		fs.Usage()
		return ExitUsage
	}
	f, err := format.Parse(formatFlag)
	if err != nil {
		fmt.Fprintf(a.Stderr, "read: %v\n", err)
		return ExitUsage
	}

	cookies, _, _ := a.cookies()
	client := a.newClient(cookies, a.Settings.ProxyURL)
	orch := service.NewOrchestrator(client, nil, nil, nil, a.Logger,
		service.WithSpawnRate(a.Settings.SpawnRate))
	policy := a.retryPolicy(a.Settings.MaxRetry)

	if raw {
		out, err := orch.ReadRaw(ctx, urls[0], policy)
		if err != nil {
			a.printError(err)
			return ExitFailure
		}
		var pretty bytes.Buffer
		if json.Indent(&pretty, out, "", "  ") == nil {
			out = pretty.Bytes()
		}
		fmt.Fprintf(a.Stdout, "%s\n", out)
		return ExitOK
	}

	res := orch.ReadOne(ctx, urls[0], policy)
	if !res.Success {
		a.printError(domain.NewError(res.Kind, res.Error, nil))
		return ExitFailure
	}

	if f == domain.FormatMarkdown {
		fmt.Fprint(a.Stdout, format.Single(res))
		return ExitOK
	}
	out, err := format.Record(res.Data)
	if err != nil {
		a.printError(err)
		return ExitFailure
	}
	a.Stdout.Write(out)
	return ExitOK
}
