// Package engine provides the single-writer dispatch loop that serializes
// every trigger firing and session mutation onto one logical execution
// context, and the clock abstraction that makes time-based triggers and
// cooldowns testable.
//
// All shared state in the feedback engine is mutated only from the dispatch
// loop goroutine. External callers (host signal adapters, the public API)
// submit work with Enqueue or Call; code already running on the loop invokes
// engine internals directly, so a check-then-set, such as a detector's fired
// latch, is a single synchronous step.
package engine
