package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oksasatya/go-recipe-api/pkg/mailer/templates"
)

// ErrInvalidJob marks a job that can never be delivered; the worker drops it
// instead of requeueing.
var ErrInvalidJob = errors.New("invalid email job")

// Deliver renders job (when it names a template) and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrInvalidJob)
	}
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = templates.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", ErrInvalidJob)
	}
	return s.Send(ctx, job.To, subject, text, html)
}

// Action is what the worker tells the broker after handling a message.
type Action int

const (
	Ack Action = iota
	// Drop rejects without requeue: the message can never succeed.
	Drop
	Requeue
)

// Handle decodes one queued message, delivers it and picks the broker action.
// The returned error is for logging only.
func Handle(ctx context.Context, s Sender, body []byte) (Action, EmailJob, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return Drop, job, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	err := Deliver(ctx, s, job)
	switch {
	case errors.Is(err, ErrInvalidJob):
		return Drop, job, err
	case err != nil:
		return Requeue, job, err
	}
	return Ack, job, nil
}

// MaxAttempts bounds how often one job is tried before it is parked.
const MaxAttempts = 6

const (
	baseRetryDelay = 10 * time.Second
	maxRetryDelay  = 10 * time.Minute
)

// RetryDelay returns the wait before the next try of a job that has failed
// attempt times, doubling from baseRetryDelay. ok is false once MaxAttempts
// tries have been made.
func RetryDelay(attempt int) (delay time.Duration, ok bool) {
	if attempt < 1 {
		attempt = 1
	}
	if attempt >= MaxAttempts {
		return 0, false
	}
	delay = baseRetryDelay << (attempt - 1)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay, true
}
