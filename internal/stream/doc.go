// Package stream delivers an analysis as a lazy sequence of progress events.
package stream
