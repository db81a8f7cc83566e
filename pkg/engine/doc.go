// Package engine evaluates compliance rules against data sources.
//
// The evaluator at the core is pure: given an expression tree and a row it
// produces a boolean or a typed error, nothing else. Around it the engine
// orchestrates a full run: it resolves each rule's data source, scans rows
// in order, applies the optional filter, and records a violation for every
// considered row whose condition does not hold.
//
// Rules are isolated from one another. A rule whose source cannot be
// resolved, or that exceeds its timeout, fails alone; the rest of the run
// proceeds. Within a rule evaluation is fail-closed: a row whose condition
// errors counts as a violation with the error recorded as cause, never as
// a silent pass.
//
// Rules run in parallel across a bounded worker pool but rows within a
// rule are scanned sequentially, so row indices in findings are stable
// across runs.
package engine
