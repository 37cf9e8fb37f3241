// Package tender defines the domain types, errors and ports shared by the
// acquisition pipeline: fetcher, archive decoder, XML extractor, query service
// and the orchestrator that drives them.
package tender
