// Package retry provides retry logic with exponential backoff and jitter,
// tuned for contended embedded-database operations.
//
// Key Features:
//   - Multiple jitter strategies (None, Equal, Decorrelated)
//   - Configurable time and attempt limits
//   - SQLITE_BUSY / locked-database error detection
//   - Observability hooks (OnRetry callback)
//   - Full testability support (time abstraction)
//   - Detailed error reporting
//
// Basic Usage:
//
//	err := retry.Retry(ctx, func(ctx context.Context) error {
//	    return db.Run(ctx, "INSERT ...")
//	})
//
// Advanced Configuration:
//
//	config := retry.Config{
//	    MaxAttempts:    5,
//	    InitialDelay:   10 * time.Millisecond,
//	    MaxDelay:       500 * time.Millisecond,
//	    JitterStrategy: retry.JitterDecorrelated,
//	    OnRetry: func(attempt int, err error, delay time.Duration) {
//	        log.Printf("retry %d after %v: %v", attempt, delay, err)
//	    },
//	}
//	err := retry.Do(ctx, config, fn)
package retry
