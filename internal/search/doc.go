// Package search orchestrates the distributed divisor search.
//
// The candidate interval [0, ceil(sqrt(N))) is partitioned into disjoint,
// chunk-aligned blocks, one per worker. Each worker independently composes a
// block program, runs the engine against it, parses the output stream and
// verifies every extracted candidate. The first verified factor wins: a
// single-assignment result slot accepts exactly one (factor, cofactor) pair
// and cancels the pool, which force-terminates sibling engine processes.
//
// ARCHITECTURE:
//
// Bounded parallel fan-out, not an event loop. Workers are goroutines
// (errgroup with a concurrency limit), each owning one external engine
// process at a time. The partition invariant - no two blocks share a chunk -
// is what makes concurrent engine executions safe: workers never address the
// same chunk, so no locking exists below the result slot.
//
// Failure isolation: a worker that times out, crashes or produces no
// recognizable output converts the failure into its own terminal report and
// never aborts siblings. Only a verified success cancels the pool. A run in
// which every worker exhausts its block is a NotFound outcome, not an error:
// the underlying search is a best-effort amplitude heuristic and an
// undersized iteration budget is expected to miss.
package search
