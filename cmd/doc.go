// Package cmd defines the CLI for the aviation news crawler.
//
//   - ingest: load the site list, run the worker pool over it once, and log a
//     run summary. SIGINT/SIGTERM stop new sites from starting; sites already
//     in progress finish their current article.
//   - serve: expose the stored articles and images over HTTP until signaled.
//   - latest: print the newest stored articles as a table.
//
// Configuration comes from --config (YAML/JSON/TOML) plus NEWSCRAWLER_*
// environment overrides, e.g. NEWSCRAWLER_PIPELINE_CONCURRENCY=4 or
// NEWSCRAWLER_STORE_DRIVER=postgres with NEWSCRAWLER_STORE_DSN.
package cmd
