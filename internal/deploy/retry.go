// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package deploy

import "time"

// retrySleep is swapped out in tests to avoid real delays.
var retrySleep = time.Sleep

// withRetry runs fn until it succeeds, up to exactly attempts times, with a
// fixed delay between tries. It returns the number of attempts made and the
// last error (nil on success). The delay is only slept when another attempt
// follows; a final failure returns immediately.
func withRetry(attempts int, delay time.Duration, fn func() error) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return i, nil
		}
		if i < attempts && delay > 0 {
			retrySleep(delay)
		}
	}
	return attempts, err
}
