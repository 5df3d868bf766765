// Package emu runs the external computation engine against a synthesized
// program and exposes its stdout as a typed event stream.
//
// The engine is an opaque executable consumed purely through its I/O
// contract: it takes a program artifact path as its sole argument and writes
// human-readable progress lines to stdout. Nothing in this package interprets
// those lines; parsing lives in internal/parse.
//
// Lifecycle per run:
//
//  1. serialize the program to a uniquely named temp artifact
//  2. launch the engine in its own process group
//  3. stream stdout lines as Line events from a dedicated reader goroutine
//  4. on exit (or timeout / context cancellation, which force-terminate the
//     process group) emit one terminal Exited event, remove the artifact and
//     close the stream
//
// The artifact is removed on every exit path. Consumers must drain the event
// channel until it closes; the terminal Exited event carries the
// classification (timeout, missing engine, non-zero exit).
package emu
