// Package testutil provides testing utilities shared across packages.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks should be deferred at the start of tests that spawn goroutines.
// It verifies that no goroutines were leaked during the test.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, opts...)
}

// LeakCheck snapshots the goroutines running now and returns a check that
// fails t if any goroutine started after the snapshot is still alive.
// It suits tests that run beside long-lived goroutines, such as a Fyne
// test app, which VerifyNoLeaks would report.
//
//	defer testutil.LeakCheck(t)()
func LeakCheck(t *testing.T, opts ...goleak.Option) func() {
	t.Helper()
	opts = append(opts, goleak.IgnoreCurrent())
	return func() {
		t.Helper()
		goleak.VerifyNone(t, opts...)
	}
}
