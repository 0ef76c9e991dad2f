// Package csvio parses and writes the tabular files exchanged by catalog
// import and export.
//
// Parsing happens in two steps:
//  1. The whole input is read and split into records, so a malformed file
//     fails before any row is acted on.
//  2. The header is checked against the caller's required columns. Missing
//     columns are reported together in a SchemaError.
//
// Header names are matched case-insensitively after trimming; cell values
// are returned trimmed. Type coercion is left to callers through the Float
// and Int helpers.
package csvio
