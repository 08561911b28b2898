// Package domain contains the core types of an extraction run: the request a
// caller submits, the addresses found, the per-file reports, and the
// progress and result values handed to presentation layers.
package domain
