// Package export renders stored run history as CSV or JSON for handoff
// to auditors and external tooling.
package export
