// Package rules defines the compliance rule model and the YAML loader
// behind it.
//
// A rule pairs an expression-language condition with a data source
// reference; an optional filter narrows which rows the condition applies
// to. Expressions are parsed once at load time. A rule whose condition or
// filter fails to parse still loads, carrying LoadErr, so a run can
// report it as that rule's failure while every other rule proceeds.
//
// Rule files are YAML and accept three shapes: a mapping with a `rules:`
// list (optionally with file-level `tests:`), a bare list of rules, or a
// single rule mapping. The loader reads one file or walks a directory of
// .yaml/.yml files.
package rules
