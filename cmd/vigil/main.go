// Vigil is a compliance rule evaluation engine for tabular data.
//
// It loads declarative rules (a condition expression, an optional
// filter, and a data source reference), evaluates them against CSV,
// JSON, SQLite or Postgres data, and reports the rows that violate
// each rule.
//
// Usage:
//
//	# Run all configured rules once
//	vigil run
//
//	# Run a specific rule directory against a data directory
//	vigil run --rules ./rules --data-dir ./data
//
//	# Validate rule files
//	vigil lint --dir rules/
//
//	# Execute inline rule tests
//	vigil test --rules ./rules
//
//	# Run on a schedule with the admin server
//	vigil schedule
//
//	# Inspect past runs
//	vigil history list
//
// Exit codes for vigil run: 0 when every rule passed, 1 when
// violations were found, 2 when rules failed to evaluate, 3 when both
// occurred.
package main

func main() {
	Execute()
}
