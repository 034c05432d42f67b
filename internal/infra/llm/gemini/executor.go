package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"gopkg.in/cenkalti/backoff.v1"
)

// Transport performs a single HTTP round trip. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryPolicy bounds the executor. The attempt count is the only bound;
// delays double from InitialDelay without jitter or cap.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultRetryPolicy is three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second}
}

// Call is an outbound request. Body is replayed on every attempt.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// State is a step of the retry state machine.
type State int

const (
	StateAttempting State = iota
	StateBackoff
	StateSucceeded
	StateTerminal
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateTerminal:
		return "terminal"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeTerminal
	outcomeNetwork
)

// classify maps one round trip to an outcome. err is only set when no
// response was received.
func classify(status int, err error) outcome {
	switch {
	case err != nil:
		return outcomeNetwork
	case status >= 200 && status < 300:
		return outcomeSuccess
	case status == http.StatusTooManyRequests || status >= 500:
		return outcomeRetryable
	default:
		return outcomeTerminal
	}
}

const errorBodyLimit = 4 << 10

// Executor moves request bytes to the endpoint and classifies transport
// outcomes. It never looks at payload semantics.
type Executor struct {
	transport Transport
	policy    RetryPolicy
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
}

// NewExecutor builds an executor. A non-positive MaxAttempts means one attempt.
func NewExecutor(transport Transport, policy RetryPolicy, logger *slog.Logger) *Executor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &Executor{
		transport: transport,
		policy:    policy,
		sleep:     sleepContext,
		logger:    logger.With("component", "gemini.executor"),
	}
}

type run struct {
	state    State
	attempt  int
	schedule backoff.BackOff
	status   int
	resp     RawResponse
	failure  *RequestError
}

// Execute drives the state machine until it reaches Succeeded, Terminal or
// Exhausted.
func (e *Executor) Execute(ctx context.Context, call Call) (RawResponse, error) {
	r := &run{state: StateAttempting, schedule: e.newSchedule()}
	for {
		switch r.state {
		case StateAttempting:
			e.attempt(ctx, r, call)
		case StateBackoff:
			e.wait(ctx, r)
		case StateSucceeded:
			return r.resp, nil
		case StateTerminal, StateExhausted:
			return RawResponse{StatusCode: r.status, Attempts: r.attempt}, r.failure
		default:
			return RawResponse{}, fmt.Errorf("executor reached unknown %s", r.state)
		}
	}
}

func (e *Executor) attempt(ctx context.Context, r *run, call Call) {
	r.attempt++
	status, body, err := e.roundTrip(ctx, call)
	r.status = status

	switch classify(status, err) {
	case outcomeSuccess:
		r.resp = RawResponse{StatusCode: status, Body: body, Attempts: r.attempt}
		r.state = StateSucceeded
	case outcomeTerminal:
		e.logger.Error("gemini request rejected", "status", status, "attempt", r.attempt, "body", string(body))
		r.fail(StateTerminal, KindTerminal, fmt.Errorf("status=%d body=%s", status, string(body)))
	case outcomeRetryable:
		if r.attempt >= e.policy.MaxAttempts {
			e.logger.Error("gemini retries exhausted", "status", status, "attempts", r.attempt)
			r.fail(StateExhausted, KindExhausted, fmt.Errorf("status=%d body=%s", status, string(body)))
			return
		}
		r.state = StateBackoff
	case outcomeNetwork:
		if ctx.Err() != nil {
			r.fail(StateTerminal, KindCanceled, ctx.Err())
			return
		}
		if r.attempt >= e.policy.MaxAttempts {
			e.logger.Error("gemini network failure on final attempt", "attempts", r.attempt, "error", err)
			r.fail(StateExhausted, KindNetworkExhausted, err)
			return
		}
		e.logger.Warn("gemini network failure", "attempt", r.attempt, "error", err)
		r.state = StateBackoff
	}
}

func (e *Executor) wait(ctx context.Context, r *run) {
	delay := r.schedule.NextBackOff()
	if delay == backoff.Stop {
		r.fail(StateExhausted, KindExhausted, errors.New("backoff schedule stopped"))
		return
	}
	e.logger.Warn("gemini request failed, retrying", "status", r.status, "attempt", r.attempt, "delay_ms", delay.Milliseconds())
	if err := e.sleep(ctx, delay); err != nil {
		r.fail(StateTerminal, KindCanceled, err)
		return
	}
	r.state = StateAttempting
}

func (r *run) fail(state State, kind FailureKind, err error) {
	r.state = state
	r.failure = &RequestError{Kind: kind, StatusCode: r.status, Attempts: r.attempt, Err: err}
}

// roundTrip returns a zero status and a non-nil error only when no response
// was received (or a 2xx body could not be read).
func (e *Executor) roundTrip(ctx context.Context, call Call) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, bytes.NewReader(call.Body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	for k, values := range call.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := e.transport.Do(req)
	if err != nil {
		return 0, nil, scrubURL(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return resp.StatusCode, payload, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (e *Executor) newSchedule() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.InitialDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = time.Duration(math.MaxInt64)
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
