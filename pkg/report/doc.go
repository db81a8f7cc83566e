// Package report renders run results for people: a colored console
// summary, JSON for tooling, CSV of violations for spreadsheets, and a
// self-contained HTML page. Renderers only read the result; the engine's
// output is the single source of truth for every format.
package report
