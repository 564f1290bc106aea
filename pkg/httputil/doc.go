// Package httputil provides the transport-level retry policy used by the
// Steam Web API client.
//
// # Retry
//
// [Retry] re-runs an operation when it fails with a [RetryableError]:
//
//   - Network errors (connection refused, timeouts)
//   - 5xx server errors
//   - 429 rate limit responses
//
// Any other error is returned immediately. The delay doubles after each
// failed attempt:
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy, func() error {
//	    return client.do(ctx, req)
//	})
//
// Retries live here, below the workshop fetcher. The fetcher itself never
// retries a failed chunk; a request that still fails after the transport
// gave up is reported to the user, who may repeat the action.
//
// # Configuration
//
// [DefaultPolicy] makes 3 attempts with a 1 second initial delay.
package httputil
