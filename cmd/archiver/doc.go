// Package main hosts the archiver entrypoint.
//
// Architecture overview:
//   - ingest: lists a season's shows from the archive site, skips the ones
//     already stored, then fetches, parses and upserts each remaining show in
//     ascending id order. Pages go through a politeness-limited, cached fetcher
//     (colly transport; local, memory or GCS cache). Shows persist to SQLite
//     (default) or Postgres in one transaction each. A Pub/Sub notice is
//     published per stored show when a topic is configured.
//   - serve: exposes boards and answer grading over HTTP (chi), with health,
//     readiness and Prometheus endpoints.
//
// Operational notes:
//   - Ingestion is sequential; the fetcher waits at least fetch.min_interval
//     before every network request, retries included.
//   - Runs resume cleanly after interruption: cached pages are reused, commits
//     are per show, and stored shows are skipped.
//   - A configured db.schema_file that cannot be read stops the process.
//
// Quick checklist:
//   - Configure with a YAML file (--config) or ARCHIVER_* env vars, e.g.
//     ARCHIVER_DB_DRIVER=postgres ARCHIVER_DB_DSN=postgres://...
//   - Ingest: archiver ingest --season 21 --season 22 --limit 5
//   - Refresh one show: archiver ingest --show 7001
//   - Serve: archiver serve
package main
