package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/nao1215/accessdoc/internal/model"
	"github.com/nao1215/accessdoc/internal/pipeline"
)

// maxReceive is the SQS limit on messages per receive call.
const maxReceive = 10

// Job is the body of a request message.
type Job struct {
	URL string `json:"url"`
}

// Result is the body of a result message.
type Result struct {
	URL    string                `json:"url"`
	Report *model.AnalysisReport `json:"report,omitempty"`
	Error  string                `json:"error,omitempty"`
	Kind   model.ErrorKind       `json:"kind,omitempty"`
}

// Worker long-polls a queue and analyzes each requested URL once.
type Worker struct {
	api            API
	queueURL       string
	resultQueueURL string
	runner         pipeline.Runner
	concurrency    int
	waitSeconds    int32
	retryDelay     time.Duration
	logger         *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithResultQueue publishes a Result for every request to queueURL.
func WithResultQueue(queueURL string) Option {
	return func(w *Worker) {
		w.resultQueueURL = queueURL
	}
}

// WithConcurrency sets how many analyses run at once. It also bounds how
// many messages are received per poll.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithWaitTime sets the long-poll wait, at most 20 seconds.
func WithWaitTime(d time.Duration) Option {
	return func(w *Worker) {
		secs := int32(d / time.Second)
		if secs >= 0 && secs <= 20 {
			w.waitSeconds = secs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a Worker reading requests from queueURL.
func NewWorker(api API, queueURL string, runner pipeline.Runner, opts ...Option) *Worker {
	w := &Worker{
		api:         api,
		queueURL:    queueURL,
		runner:      runner,
		concurrency: 1,
		waitSeconds: 20,
		retryDelay:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Run polls until ctx is cancelled. Receive failures are logged and retried
// after a short delay.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("queue worker started",
		"queue", w.queueURL,
		"result_queue", w.resultQueueURL,
		"concurrency", w.concurrency,
	)
	for {
		if ctx.Err() != nil {
			w.logger.Info("queue worker stopped")
			return nil
		}
		if _, err := w.ProcessOnce(ctx); err != nil {
			if ctx.Err() != nil {
				w.logger.Info("queue worker stopped")
				return nil
			}
			w.logger.Warn("failed to receive messages", "error", err)
			select {
			case <-ctx.Done():
				w.logger.Info("queue worker stopped")
				return nil
			case <-time.After(w.retryDelay):
			}
		}
	}
}

// ProcessOnce performs one receive and handles every message received.
// It returns the number of messages handled.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	out, err := w.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(w.queueURL),
		MaxNumberOfMessages: int32(min(w.concurrency, maxReceive)),
		WaitTimeSeconds:     w.waitSeconds,
	})
	if err != nil {
		return 0, err
	}
	if len(out.Messages) == 0 {
		return 0, nil
	}

	jobs := make([]types.Message, 0, len(out.Messages))
	urls := make([]string, 0, len(out.Messages))
	for _, msg := range out.Messages {
		job, err := decodeJob(msg)
		if err != nil {
			w.logger.Warn("discarding invalid message", "message_id", aws.ToString(msg.MessageId), "error", err)
			w.publish(ctx, Result{Error: err.Error(), Kind: model.KindUnexpected})
			w.delete(ctx, msg)
			continue
		}
		jobs = append(jobs, msg)
		urls = append(urls, job.URL)
	}

	bp := pipeline.NewBatchProcessor(w.runner,
		pipeline.WithConcurrency(w.concurrency),
		pipeline.WithBatchLogger(w.logger),
	)
	err = bp.ProcessBatchWithCallback(ctx, urls, func(r pipeline.BatchResult, i int) {
		w.publish(ctx, resultOf(r))
		w.delete(ctx, jobs[i])
	})
	return len(out.Messages), err
}

func decodeJob(msg types.Message) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &job); err != nil {
		return Job{}, fmt.Errorf("invalid message body: %w", err)
	}
	if job.URL == "" {
		return Job{}, errors.New("invalid message body: missing url")
	}
	return job, nil
}

func resultOf(r pipeline.BatchResult) Result {
	if r.Err != nil {
		return Result{URL: r.URL, Error: model.ErrorDetail(r.Err), Kind: model.Kind(r.Err)}
	}
	return Result{URL: r.URL, Report: r.Report}
}

func (w *Worker) publish(ctx context.Context, result Result) {
	if w.resultQueueURL == "" {
		return
	}
	body, err := json.Marshal(result)
	if err != nil {
		w.logger.Error("failed to encode result", "url", result.URL, "error", err)
		return
	}
	_, err = w.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(w.resultQueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		w.logger.Error("failed to publish result", "url", result.URL, "error", err)
	}
}

func (w *Worker) delete(ctx context.Context, msg types.Message) {
	_, err := w.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		w.logger.Error("failed to delete message", "message_id", aws.ToString(msg.MessageId), "error", err)
	}
}
