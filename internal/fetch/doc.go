// Package fetch retrieves the page HTML and an optional screenshot for a URL.
//
// Two implementations of Fetcher are provided:
//   - FirecrawlFetcher calls a Firecrawl-compatible scrape API that renders the
//     page in a browser and captures a screenshot.
//   - DirectFetcher performs a plain HTTP GET and never returns a screenshot.
//
// Both normalize whatever the remote side returns into a model.ScrapeResult,
// so callers never inspect provider-specific response shapes.
package fetch
