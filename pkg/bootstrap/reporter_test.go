package bootstrap

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestReporter_DeliversOverHTTP(t *testing.T) {
	received := make(chan Report, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var report Report
		if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
			t.Errorf("decode report: %v", err)
		}
		received <- report
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reporter := newReporter(srv.URL, nil, zerolog.Nop())
	defer reporter.Close()

	reporter.Report(stderrors.New("player crashed"), "/replay/page")

	select {
	case report := <-received:
		if report.Message != "player crashed" {
			t.Fatalf("message = %q", report.Message)
		}
		if report.Path != "/replay/page" {
			t.Fatalf("path = %q", report.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("report never reached the endpoint")
	}
}

func TestReporter_SendFailureSwallowed(t *testing.T) {
	reporter := newReporter("http://example.invalid", func(endpoint string, report Report) error {
		return stderrors.New("connection refused")
	}, zerolog.Nop())

	reporter.Report(stderrors.New("boom"), "/")
	reporter.Close()
}

func TestReporter_SenderPanicSwallowed(t *testing.T) {
	reporter := newReporter("http://example.invalid", func(endpoint string, report Report) error {
		panic("sender bug")
	}, zerolog.Nop())

	reporter.Report(stderrors.New("boom"), "/")
	reporter.Close()
}

func TestReporter_NilErrorIgnored(t *testing.T) {
	calls := 0
	reporter := newReporter("http://example.invalid", func(endpoint string, report Report) error {
		calls++
		return nil
	}, zerolog.Nop())

	reporter.Report(nil, "/")
	reporter.Close()

	if calls != 0 {
		t.Fatalf("nil error produced %d sends", calls)
	}
}

func TestReporter_ReportAfterClose(t *testing.T) {
	reporter := newReporter("http://example.invalid", func(endpoint string, report Report) error {
		return nil
	}, zerolog.Nop())

	reporter.Close()
	reporter.Report(stderrors.New("boom"), "/")
	reporter.Close()
}

func TestReporter_CloseDrains(t *testing.T) {
	delivered := 0
	reporter := newReporter("http://example.invalid", func(endpoint string, report Report) error {
		delivered++
		return nil
	}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		reporter.Report(stderrors.New("boom"), "/")
	}
	reporter.Close()

	if delivered != 5 {
		t.Fatalf("delivered = %d, want 5", delivered)
	}
}
