package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Report is one error report forwarded to the configured endpoint.
type Report struct {
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	Time    time.Time `json:"time"`
}

// SendFunc delivers a report to an endpoint.
type SendFunc func(endpoint string, report Report) error

// Reporter forwards uncaught errors to an external endpoint on a
// dedicated channel. It is fire-and-forget: a failing or panicking sender
// is logged and swallowed, and a full channel drops the report rather
// than block the caller.
type Reporter struct {
	endpoint string
	send     SendFunc
	logger   zerolog.Logger
	ch       chan Report
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func newReporter(endpoint string, send SendFunc, logger zerolog.Logger) *Reporter {
	if send == nil {
		send = httpSend
	}
	r := &Reporter{
		endpoint: endpoint,
		send:     send,
		logger:   logger.With().Str("component", "error-reporter").Logger(),
		ch:       make(chan Report, 32),
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Report enqueues an error report. It never blocks and never panics,
// even after Close.
func (r *Reporter) Report(err error, path string) {
	if err == nil {
		return
	}
	report := Report{Message: err.Error(), Path: path, Time: time.Now()}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Debug().Str("path", path).Msg("report dropped, reporter closed")
		return
	}
	select {
	case r.ch <- report:
	default:
		r.logger.Warn().Msg("report dropped, channel full")
	}
}

// Close stops the reporter after draining queued reports.
func (r *Reporter) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Reporter) loop() {
	defer r.wg.Done()
	for report := range r.ch {
		r.deliver(report)
	}
}

func (r *Reporter) deliver(report Report) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Msg("sender panicked")
		}
	}()

	if err := r.send(r.endpoint, report); err != nil {
		r.logger.Warn().Err(err).Msg("report delivery failed")
	}
}

func httpSend(endpoint string, report Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
