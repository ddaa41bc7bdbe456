// Package main provides the entry point for the accessdoc CLI.
//
// accessdoc scores a web page on five accessibility categories and writes a
// prioritized remediation plan. It scrapes the page, asks a language model
// to critique the markup and the screenshot, and normalizes the synthesized
// report.
//
// Usage:
//
//	accessdoc analyze https://example.com
//	accessdoc serve
//
// See --help for all available options.
package main

// main is the entry point for accessdoc.
func main() {
	Execute()
}
