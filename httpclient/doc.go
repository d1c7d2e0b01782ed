// Package httpclient is the resilient request client used to talk to the
// Influencore backend.
//
// Every request is frozen into an immutable descriptor when it is issued and
// then driven through a small state machine:
//
//	Created -> Dispatching -> Succeeded
//	                       -> RetryScheduled -> Dispatching
//	                       -> FailedTerminal
//	Created -> QueuedOffline -> Dispatching (on reconnect)
//
// Each attempt is bound by a timeout (30s by default). Timeouts, transport
// failures and 429 responses are retried with exponential backoff
// (1s, 2s, 4s, capped at 5s) while the network monitor reports online.
// Requests issued while offline wait in a FIFO queue and are dispatched one
// at a time once the monitor flips back online.
//
// # Basic Usage
//
//	monitor := netstate.NewMonitor(true)
//	client, err := httpclient.New(httpclient.DefaultConfig("https://api.influencore.io"),
//	    httpclient.WithMonitor(monitor),
//	    httpclient.WithSessionStore(store),
//	)
//
//	resp, err := client.Execute(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/api/auth/login",
//	    Body:   map[string]string{"email": email, "password": password},
//	})
//
// Typed helpers decode the body directly:
//
//	videos, err := httpclient.Get[[]Video](client, ctx, "/api/videos")
//
// Errors are *Error values carrying a Kind; use KindOf or the Is helpers:
//
//	if httpclient.IsUnauthorized(err) {
//	    _ = store.Clear(ctx)
//	}
package httpclient
