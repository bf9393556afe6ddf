// Package testutil provides shared skip helpers for tests that need real
// vocabulary data.
//
// Each helper calls t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyEncoding(t *testing.T) {
//	    enc := testutil.RequireEncodingData(t, tiktoken.MODEL_CL100K_BASE)
//	    ...
//	}
package testutil

import (
	"testing"

	"github.com/pkoukk/tiktoken-go"

	"github.com/example/go-tiktoken-bridge/internal/encoding"
)

// RequireEncodingData constructs the named encoding from the offline
// vocabulary assets and skips the test if the data is unavailable.
func RequireEncodingData(tb testing.TB, name string) *tiktoken.Tiktoken {
	tb.Helper()

	r, err := encoding.NewResolver(encoding.Options{Offline: true})
	if err != nil {
		tb.Fatalf("construct offline resolver: %v", err)
	}

	enc, err := r.Construct(name)
	if err != nil {
		tb.Skipf("vocabulary data for %q not available: %v", name, err)
	}
	return enc
}
