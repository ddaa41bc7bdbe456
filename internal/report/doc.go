// Package report renders analysis reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text, the same layout as the downloadable report
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with a score table and a grade chart
//   - PrettyWriter: Markdown rendered for the terminal
//
// Writers implement the Writer interface and can be combined with MultiWriter.
package report
