// Package output formats securestore-cli results.
//
// Three formats are supported: table (the default, aligned with
// text/tabwriter), json and yaml. Struct fields are named after their json
// tag; a `table:"-"` tag hides a field from table output.
package output
