// Package extract classifies tender service XML documents and pulls typed
// records out of them.
//
// Every field is resolved through Lookup.First: an ordered list of XPath
// candidates evaluated against the namespaces declared anywhere in the
// document, where the first non-empty trimmed text wins. Field candidate
// lists live in declarative tables (fields.go); adding a field means adding
// a row, not code.
//
// Unprefixed name tests only match elements without a prefix. Candidates
// whose prefix is not declared in the document are skipped.
package extract
