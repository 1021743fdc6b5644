package consumer

import "time"

// SetRetryBackoff shortens the retry delay and returns a func restoring it.
func SetRetryBackoff(d time.Duration) func() {
	prev, prevMax := retryBackoff, maxRetryBackoff
	retryBackoff, maxRetryBackoff = d, d
	return func() {
		retryBackoff, maxRetryBackoff = prev, prevMax
	}
}
