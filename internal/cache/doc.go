// Package cache stores scrape results in SQLite so repeated analyses of the
// same URL within a TTL skip the browser rendering round trip.
//
// Only fetcher output (HTML and screenshot) is cached. Analysis reports are
// never stored.
//
// The store uses modernc.org/sqlite, a CGO-free driver, with WAL enabled.
package cache
