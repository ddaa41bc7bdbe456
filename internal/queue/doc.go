// Package queue runs analyses requested through an SQS queue.
//
// A request is a JSON message {"url": "..."}. Every received message is
// deleted after one attempt, whatever the outcome. When a result queue is
// configured, one Result message per request is published to it.
package queue
