// Package novaqueryctl is the command line client for the question service.
package novaqueryctl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// errRequestFailed marks a reply that was already reported to stderr.
var errRequestFailed = errors.New("request failed")

type client struct {
	baseURL string
	http    *http.Client
	raw     bool
	stdout  io.Writer
	stderr  io.Writer
}

// Run executes one novaqueryctl invocation and returns the process exit code.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	stdin := defaults.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}

	c := &client{stdout: stdout, stderr: stderr}
	var (
		baseURL string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "novaqueryctl",
		Short:         "Ask the kiosk sales question service from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			c.baseURL = strings.TrimRight(baseURL, "/")
			c.http = defaults.HTTPClient
			if c.http == nil {
				c.http = &http.Client{Timeout: timeout}
			}
		},
	}
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&baseURL, "base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:5001"), "question service base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 30s)")
	root.PersistentFlags().BoolVar(&c.raw, "json", false, "print raw JSON responses")

	root.AddCommand(
		c.getCommand("health", "Check the service is up", "/v1/health"),
		c.getCommand("ready", "Check the store and AI backend are reachable", "/v1/ready"),
		c.getCommand("schema", "Show the tables the service can query", "/v1/schema"),
		&cobra.Command{
			Use:   "ask [question]",
			Short: "Ask a business question; without arguments reads questions from stdin",
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) > 0 {
					return c.ask(cmd.Context(), strings.Join(args, " "))
				}
				return c.repl(cmd.Context(), cmd.InOrStdin())
			},
		},
	)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRequestFailed) {
			_, _ = fmt.Fprintln(stderr, err)
		}
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

func (c *client) getCommand(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, body, err := c.do(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			c.printJSON(body)
			return nil
		},
	}
}

type askReply struct {
	Success  bool   `json:"success"`
	Question string `json:"question"`
	SQL      string `json:"sql"`
	Result   string `json:"result"`
	Error    string `json:"error"`
}

func (c *client) ask(ctx context.Context, question string) error {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return err
	}
	code, body, err := c.send(ctx, http.MethodPost, "/ai-query", payload)
	if err != nil {
		return err
	}
	if c.raw {
		c.printJSON(body)
		if code >= 400 {
			return errRequestFailed
		}
		return nil
	}

	var reply askReply
	if err := json.Unmarshal(body, &reply); err != nil {
		_, _ = fmt.Fprintf(c.stderr, "http %d: %s\n", code, strings.TrimSpace(string(body)))
		return errRequestFailed
	}
	if !reply.Success {
		_, _ = fmt.Fprintln(c.stderr, pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("✗ ")+reply.Error)
		return errRequestFailed
	}
	_, _ = fmt.Fprintln(c.stdout, pterm.DefaultBox.WithTitle("SQL").WithPadding(1).Sprint(reply.SQL))
	_, _ = fmt.Fprintln(c.stdout, pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("✓ ")+reply.Result)
	return nil
}

// repl keeps asking until stdin ends or the user types exit or quit. Failed
// questions are reported and do not stop the loop.
func (c *client) repl(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	prompt := pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("? ")
	for {
		_, _ = fmt.Fprint(c.stdout, prompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(c.stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := c.ask(ctx, line); err != nil && !errors.Is(err, errRequestFailed) {
			_, _ = fmt.Fprintf(c.stderr, "request failed: %v\n", err)
		}
	}
}

func (c *client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	code, body, err := c.send(ctx, method, path, payload)
	if err != nil {
		return code, body, err
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(c.stderr, "http %d: %s\n", code, strings.TrimSpace(string(body)))
		return code, body, errRequestFailed
	}
	return code, body, nil
}

func (c *client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *client) printJSON(raw []byte) {
	if pretty, ok := prettyJSON(raw); ok {
		_, _ = fmt.Fprintln(c.stdout, pretty)
		return
	}
	if len(raw) > 0 {
		_, _ = fmt.Fprintln(c.stdout, string(raw))
	}
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "accepts 0 arg(s)")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
