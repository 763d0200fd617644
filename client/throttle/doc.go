// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound calls to the tax service using the token bucket from
// [golang.org/x/time/rate].
//
// A request that finds the bucket empty waits for its token. When the
// wait would outlive the request's deadline it fails immediately with
// [ErrWaitingFailed] instead of blocking until the deadline passes.
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
package throttle
