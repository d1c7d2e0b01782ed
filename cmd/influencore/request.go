package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/influencore/apiclient/component"
	"github.com/influencore/apiclient/httpclient"
)

// headerFlags collects repeated -H "Name: value" flags.
type headerFlags map[string]string

func (h headerFlags) String() string { return fmt.Sprint(map[string]string(h)) }

func (h headerFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("header must be \"Name: value\", got %q", v)
	}
	h[strings.TrimSpace(name)] = strings.TrimSpace(value)
	return nil
}

// tokenPayload is the part of an auth response carrying the session token.
type tokenPayload struct {
	Token string `json:"token"`
}

func runRequest(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("request", stderr)
	method := fs.String("X", http.MethodGet, "HTTP method")
	path := fs.String("path", "", "request path, e.g. /api/videos (required)")
	data := fs.String("d", "", "JSON request body")
	timeout := fs.Duration("timeout", 0, "per-attempt timeout (default from config)")
	wait := fs.Duration("wait", time.Minute, "how long to wait for a queued request while offline")
	headers := headerFlags{}
	fs.Var(headers, "H", "extra header \"Name: value\" (repeatable)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *path == "" {
		fmt.Fprintln(stderr, "request: -path is required")
		return errUsage
	}

	req := httpclient.Request{
		Method:  strings.ToUpper(*method),
		Path:    *path,
		Headers: headers,
		Timeout: *timeout,
	}
	if *data != "" {
		if !json.Valid([]byte(*data)) {
			fmt.Fprintln(stderr, "request: -d must be valid JSON")
			return errUsage
		}
		req.Body = []byte(*data)
	}

	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	waitCtx, cancel := context.WithTimeout(ctx, *wait)
	defer cancel()

	resp, err := a.client.Client().Execute(waitCtx, req)
	if err != nil {
		return describeError(err)
	}

	if err := a.saveToken(ctx, resp); err != nil {
		return err
	}
	return printJSON(stdout, resp.Body)
}

// saveToken stores the session token returned by a successful login or
// registration.
func (a *app) saveToken(ctx context.Context, resp *httpclient.Response) error {
	var payload tokenPayload
	if resp.Decode(&payload) != nil || payload.Token == "" {
		return nil
	}
	if err := a.session.SetToken(ctx, payload.Token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	a.log.Info("session saved")
	return nil
}

func describeError(err error) error {
	var apiErr *httpclient.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("gave up waiting for the backend")
		}
		return err
	}
	if apiErr.StatusCode != 0 {
		return fmt.Errorf("%s (HTTP %d, %d attempt(s)): %s", apiErr.Kind, apiErr.StatusCode, apiErr.Attempts, apiErr.Message)
	}
	return fmt.Errorf("%s (%d attempt(s)): %s", apiErr.Kind, apiErr.Attempts, apiErr.Message)
}

func printJSON(w io.Writer, body json.RawMessage) error {
	if len(body) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(body))
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func runLogout(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("logout", stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	if err := a.session.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Fprintln(stdout, "signed out")
	return nil
}

func runStatus(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("status", stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	for _, d := range a.registry.Describe() {
		fmt.Fprintf(stdout, "%-20s %-12s %s\n", d.Name, d.Type, d.Details)
	}
	fmt.Fprintln(stdout)
	reports := a.registry.HealthAll(ctx)
	for _, h := range reports {
		line := fmt.Sprintf("%-20s %s", h.Name, h.Status)
		if h.Message != "" {
			line += "  " + h.Message
		}
		fmt.Fprintln(stdout, line)
	}

	overall := component.Overall(reports)
	fmt.Fprintf(stdout, "\noverall: %s\n", overall)
	if overall == component.StatusUnhealthy {
		return errors.New("unhealthy")
	}
	return nil
}

var _ flag.Value = headerFlags{}
