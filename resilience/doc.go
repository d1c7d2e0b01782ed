// Package resilience implements the retry policy used by the request client.
//
// A RetryConfig describes how many extra attempts an operation gets and how
// long to wait before each one. The wait before retry n (1-indexed) is
//
//	min(InitialBackoff * BackoffFactor^(n-1), MaxBackoff)
//
// which with the defaults gives 1s, 2s, 4s and then 5s for any later retry.
// Retry runs the attempts as a recursive function carrying the attempt
// number, so the cap and the backoff formula can be tested on their own:
//
//	resp, err := resilience.Retry(ctx, cfg, func(ctx context.Context, attempt int) (*Response, error) {
//	    return send(ctx, req)
//	})
package resilience
