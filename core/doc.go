// Package core contains the client runtime contracts and the request
// orchestration engine: the invocation state machine, interceptor
// dispatch, and the retry loop. Transport, retry policy, and endpoint
// adapters depend on this package; core must not depend on them.
package core
