package bird

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"xscraper/internal/core/domain"
)

const (
	// DefaultBinary is looked up on PATH when no explicit path is configured.
	DefaultBinary = "bird"
	// DefaultTimeout bounds a single `bird read` invocation.
	DefaultTimeout = 60 * time.Second

	versionTimeout  = 10 * time.Second
	whoamiTimeout   = 30 * time.Second
	queryIDsTimeout = 120 * time.Second
	waitDelay       = 5 * time.Second
)

// InstallHint tells the user how to get the external tool.
const InstallHint = "Install it with: bun install -g @nicepkg/bird (see https://github.com/steipete/bird)"

var (
	authMarker     = regexp.MustCompile(`\b401\b|unauthori[sz]ed|\bauth(?:entication|entic\w*|ori[sz]\w*|_token)?\b`)
	rateMarker     = regexp.MustCompile(`\b429\b|rate.?limit|too many requests`)
	notFoundMarker = regexp.MustCompile(`\b404\b|not found|does not exist|no tweet|no status|no results`)
)

// Config holds what the client needs to run the external tool.
type Config struct {
	BinaryPath string
	AuthToken  string
	CT0        string
	ProxyURL   string
	Timeout    time.Duration
	Logger     *logrus.Logger
}

// Client runs the bird CLI as a subprocess, one process per call.
type Client struct {
	binaryPath string
	authToken  string
	ct0        string
	proxyURL   string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	c := &Client{
		binaryPath: cfg.BinaryPath,
		authToken:  cfg.AuthToken,
		ct0:        cfg.CT0,
		proxyURL:   cfg.ProxyURL,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}
	if c.binaryPath == "" {
		c.binaryPath = DefaultBinary
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	return c
}

// Installed reports whether the binary can be found.
func (c *Client) Installed() bool {
	_, err := exec.LookPath(c.binaryPath)
	return err == nil
}

// FetchTweet runs `bird read <url> --json` and returns its stdout.
func (c *Client) FetchTweet(ctx context.Context, url string) ([]byte, error) {
	c.logger.WithField("url", url).Debug("Reading tweet via bird")

	stdout, err := c.run(ctx, c.timeout, "read", url, "--json")
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, domain.NewError(domain.KindNotFound, "Tweet not found: bird returned no data", nil)
	}
	return trimmed, nil
}

// Version returns the bird version string, or "unknown".
func (c *Client) Version(ctx context.Context) string {
	out, err := c.run(ctx, versionTimeout, "--version")
	if err != nil {
		return "unknown"
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return "unknown"
	}
	return v
}

// WhoAmI asks bird to authenticate on its own (it can read browser cookies)
// and returns the detected username.
func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	out, err := c.run(ctx, whoamiTimeout, "whoami")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return "", domain.NewError(domain.KindAuthFailure, "bird whoami returned no user", nil)
	}
	return strings.TrimPrefix(fields[len(fields)-1], "@"), nil
}

// RefreshQueryIDs forces bird to refetch X's rotating GraphQL query IDs.
func (c *Client) RefreshQueryIDs(ctx context.Context) error {
	c.logger.Info("Refreshing bird query IDs")
	_, err := c.run(ctx, queryIDsTimeout, "query-ids", "--fresh")
	return err
}

// env builds the child environment. Credentials are passed only here so they
// never show up in process listings.
func (c *Client) env() []string {
	env := os.Environ()
	if c.authToken != "" {
		env = append(env, "AUTH_TOKEN="+c.authToken)
	}
	if c.ct0 != "" {
		env = append(env, "CT0="+c.ct0)
	}
	if c.proxyURL != "" {
		env = append(env, "HTTPS_PROXY="+c.proxyURL, "HTTP_PROXY="+c.proxyURL)
	}
	return env
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(callCtx, c.binaryPath, args...)
	cmd.Env = c.env()
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	c.logger.WithFields(logrus.Fields{
		"binary": c.binaryPath,
		"args":   args,
	}).Debug("Executing bird")

	err := cmd.Run()
	if err == nil {
		return out.Bytes(), nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil, domain.NewError(domain.KindBinaryNotFound, "bird CLI not found. "+InstallHint, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, domain.NewError(domain.KindTimeout, fmt.Sprintf("bird command timed out after %s", timeout), nil)
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	c.logger.WithFields(logrus.Fields{
		"exit_code": exitCode,
		"stderr":    strings.TrimSpace(stderr.String()),
	}).Debug("bird failed")

	return nil, classify(stderr.String(), out.String(), exitCode)
}

// classify maps a failed run to an error kind by scanning its output.
func classify(stderr, stdout string, exitCode int) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = strings.TrimSpace(stdout)
	}
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", exitCode)
	}
	cause := errors.New(msg)
	text := strings.ToLower(stderr + "\n" + stdout)

	switch {
	case authMarker.MatchString(text):
		return domain.NewError(domain.KindAuthFailure, domain.AuthRemediation, cause)
	case rateMarker.MatchString(text):
		return domain.NewError(domain.KindRateLimited, "Rate limit exceeded. Wait before retrying", cause)
	case notFoundMarker.MatchString(text):
		return domain.NewError(domain.KindNotFound, "Tweet not found or query IDs outdated. Try: bird query-ids --fresh", cause)
	}
	return domain.NewError(domain.KindProcessError, fmt.Sprintf("bird CLI failed (exit %d)", exitCode), cause)
}
