package pollclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"prepost-poll/internal/domain"
	"prepost-poll/internal/metrics"
)

const schemaJSON = `{
	"title": "Climate Poll",
	"questions": [
		{"id": "q1", "type": "rating", "question": "Crisis?", "required": true, "min": 1, "max": 4,
		 "labels": ["Strongly Disagree", "Strongly Agree"]},
		{"id": "q5", "type": "text", "question": "Ideas?", "required": false}
	]
}`

func newTestClient(t *testing.T, h http.Handler) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := metrics.New()
	return New(srv.URL+"/", time.Second, zap.NewNop(), m), m
}

// expectBackendCount scrapes the exposition for one backend request counter.
func expectBackendCount(t *testing.T, m *metrics.Metrics, endpoint, outcome string, want int) {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	line := fmt.Sprintf("poll_backend_requests_total{endpoint=%q,outcome=%q} %d", endpoint, outcome, want)
	if !strings.Contains(rec.Body.String(), line) {
		t.Fatalf("expected %s in exposition:\n%s", line, rec.Body.String())
	}
}

func TestFetchSchema(t *testing.T) {
	client, m := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/poll" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(schemaJSON))
	}))
	schema, err := client.FetchSchema(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if schema.Title != "Climate Poll" || len(schema.Questions) != 2 {
		t.Fatalf("unexpected schema %+v", schema)
	}
	if _, ok := schema.Questions[0].(domain.RatingQuestion); !ok {
		t.Fatalf("expected rating question first, got %T", schema.Questions[0])
	}
	expectBackendCount(t, m, "poll", metrics.OutcomeOK, 1)
}

func TestSubmitSendsVariantAndAnswers(t *testing.T) {
	var got submission
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/poll" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	err := client.Submit(context.Background(), domain.VariantPost, domain.AnswerSet{"q1": "3", "q4": "A, C"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.PollType != domain.VariantPost || got.Answers["q4"] != "A, C" {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestSubmitSurfacesServerDetail(t *testing.T) {
	client, m := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Missing required question: q1"}`))
	}))
	err := client.Submit(context.Background(), domain.VariantPre, nil)
	var serverErr *domain.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Status != http.StatusBadRequest || err.Error() != "Missing required question: q1" {
		t.Fatalf("unexpected error %+v", serverErr)
	}
	expectBackendCount(t, m, "submit", metrics.OutcomeServer, 1)
}

func TestFetchAnalyticsParseError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	_, err := client.FetchAnalytics(context.Background())
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, time.Second, nil, nil)
	_, err := client.FetchSchema(context.Background())
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestGuardSupersedesInFlightCall(t *testing.T) {
	release := make(chan struct{})
	firstArrived := make(chan struct{})
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			close(firstArrived)
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write([]byte(`{"summary": {"pre_poll_count": 1, "post_poll_count": 2, "total_responses": 3}, "questions": {}}`))
	}))
	defer close(release)

	guard := &Guard{}
	first := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), guard, client.FetchAnalytics)
		first <- err
	}()
	<-firstArrived

	payload, err := Run(context.Background(), guard, client.FetchAnalytics)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if payload.Summary.TotalResponses != 3 {
		t.Fatalf("unexpected payload %+v", payload.Summary)
	}

	select {
	case err := <-first:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected first call superseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first call never returned")
	}
}

func TestGuardCancel(t *testing.T) {
	guard := &Guard{}
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), guard, func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})
		done <- err
	}()
	<-started
	guard.Cancel()
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded after cancel, got %v", err)
	}
}
