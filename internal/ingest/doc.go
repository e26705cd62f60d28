// Package ingest reads alert and report definition files into raw records.
//
// A definition file is either TOML, one table per definition, or YAML, one
// top-level mapping per definition. Every value becomes a list of strings:
// scalars become one-element lists, arrays keep their elements, and string
// values containing ", " are split the way the legacy INI files were.
package ingest
