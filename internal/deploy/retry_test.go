// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package deploy

import (
	"errors"
	"testing"
	"time"
)

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	slept := 0
	origSleep := retrySleep
	retrySleep = func(time.Duration) { slept++ }
	defer func() { retrySleep = origSleep }()

	calls := 0
	attempts, err := withRetry(3, time.Second, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 each", attempts, calls)
	}
	if slept != 0 {
		t.Errorf("slept %d times, want 0", slept)
	}
}

func TestWithRetryRecoversAfterFailures(t *testing.T) {
	var delays []time.Duration
	origSleep := retrySleep
	retrySleep = func(d time.Duration) { delays = append(delays, d) }
	defer func() { retrySleep = origSleep }()

	calls := 0
	attempts, err := withRetry(3, 2*time.Second, func() error {
		calls++
		if calls < 3 {
			return errors.New("sftp: connection lost")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(delays) != 2 {
		t.Fatalf("slept %d times, want 2", len(delays))
	}
	for _, d := range delays {
		if d != 2*time.Second {
			t.Errorf("delay = %v, want 2s", d)
		}
	}
}

func TestWithRetryExhaustsExactly(t *testing.T) {
	slept := 0
	origSleep := retrySleep
	retrySleep = func(time.Duration) { slept++ }
	defer func() { retrySleep = origSleep }()

	calls := 0
	wantErr := errors.New("host unreachable")
	attempts, err := withRetry(4, time.Second, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if calls != 4 || attempts != 4 {
		t.Errorf("calls = %d, attempts = %d, want exactly 4", calls, attempts)
	}
	// No sleep after the final failure.
	if slept != 3 {
		t.Errorf("slept %d times, want 3", slept)
	}
}

func TestWithRetryClampsAttempts(t *testing.T) {
	calls := 0
	attempts, _ := withRetry(0, 0, func() error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 || attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1 each", calls, attempts)
	}
}
