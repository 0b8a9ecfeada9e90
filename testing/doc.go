// Package testing provides test utilities for the reflow library.
//
// It follows Go's convention of providing testing utilities in a
// dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream, auto-cleanup
//   - NewTestLogger: Logger writing to testing.T
//   - NewFakeTransport: Scripted in-memory Transport for deterministic
//     flow-lifecycle tests
//
// Example usage:
//
//	import (
//	    "testing"
//	    reflowtest "github.com/arloliu/reflow/testing"
//	)
//
//	func TestMyConsumer(t *testing.T) {
//	    _, nc := reflowtest.StartEmbeddedNATS(t)
//	    // ...
//	}
package testing
