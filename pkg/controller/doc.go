// Package controller contains HTTP middlewares and helper handlers used by the web form server.
//
// Provided middlewares:
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//     The wrapped writer unwraps to the underlying one, so streamed responses can still be flushed.
//
// Provided helpers:
//   - PprofMux: Returns a ServeMux exposing net/http/pprof handlers under PprofPrefix.
package controller
