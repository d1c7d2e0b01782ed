package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/influencore/apiclient/logger"
	"github.com/influencore/apiclient/testutil"
)

// userFlags collects repeated -user "name:email:password" flags.
type userFlags []string

func (u *userFlags) String() string { return strings.Join(*u, ",") }

func (u *userFlags) Set(v string) error {
	if strings.Count(v, ":") < 2 {
		return fmt.Errorf("user must be \"name:email:password\", got %q", v)
	}
	*u = append(*u, v)
	return nil
}

// runMock serves the fake backend until ctx is cancelled.
func runMock(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return serveMock(ctx, args, stdout, stderr, nil)
}

// serveMock is runMock reporting the bound address on ready, if not nil.
func serveMock(ctx context.Context, args []string, stdout, stderr io.Writer, ready chan<- string) error {
	fs, _ := newFlagSet("mock", stderr)
	addr := fs.String("addr", ":8089", "listen address")
	secret := fs.String("secret", "influencore-mock-secret", "JWT signing secret")
	ttl := fs.Duration("token-ttl", time.Hour, "issued token lifetime")
	var users userFlags
	fs.Var(&users, "user", "pre-registered user \"name:email:password\" (repeatable)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	log := logger.WithComponent("mock")
	backend := testutil.NewBackend(testutil.BackendConfig{
		Secret:   *secret,
		TokenTTL: *ttl,
		Logger:   log,
	})
	for _, u := range users {
		parts := strings.SplitN(u, ":", 3)
		if _, err := backend.Register(parts[0], parts[1], parts[2]); err != nil {
			return fmt.Errorf("seed user %s: %w", parts[1], err)
		}
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{Handler: backend.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	fmt.Fprintf(stdout, "mock backend listening on http://%s\n", ln.Addr())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
