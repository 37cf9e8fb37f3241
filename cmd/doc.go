// Package cmd defines the CLI commands of the tender-acquirer executable.
//
// Architecture overview:
//   - search resolves a region/date (or registry number) into archive URLs via
//     the SOAP document service, downloads each archive, decodes gzip/zip
//     containers and extracts tender records from the XML documents inside.
//   - resume runs the same traversal but halts at the first blocked archive,
//     saving a checkpoint that the next resume picks up without re-fetching
//     finished archives.
//   - serve exposes the same searches over HTTP (internal/api) with health,
//     readiness and Prometheus endpoints.
//
// Accepted records are fanned out to the configured sinks (blob store,
// Postgres, Pub/Sub). Progress events are batched to a zap log sink and
// Prometheus collectors.
//
// Configuration comes from a config file and TENDER_* environment variables,
// e.g. TENDER_AUTH_TOKEN, TENDER_FETCHER_AUTO_WAIT, TENDER_SINK_POSTGRES_DSN.
package cmd
