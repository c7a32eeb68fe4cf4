package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/poll":
			_, _ = w.Write([]byte(`{"title": "Climate Poll", "questions": [
				{"id": "q1", "type": "text", "question": "Ideas?", "required": true}]}`))
		case "/analytics":
			_, _ = w.Write([]byte(`{"summary": {"pre_poll_count": 1, "post_poll_count": 0, "total_responses": 1},
				"questions": {"q1": {"question_text": "Ideas?", "question_type": "number"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRootCommandPrintsSchema(t *testing.T) {
	backend := newBackend(t)
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"schema", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--backend", backend.URL})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `id="pre-poll-form"`) || !strings.Contains(out.String(), `id="pre-q1"`) {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestSchemaJSON(t *testing.T) {
	backend := newBackend(t)
	var out bytes.Buffer
	if err := printSchema(context.Background(), &out, filepath.Join(t.TempDir(), "none.yaml"), backend.URL, true); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out.String(), `"title": "Climate Poll"`) {
		t.Fatalf("unexpected json %s", out.String())
	}
}

func TestPrintAnalytics(t *testing.T) {
	backend := newBackend(t)
	var out bytes.Buffer
	if err := printAnalytics(context.Background(), &out, filepath.Join(t.TempDir(), "none.yaml"), backend.URL); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out.String(), "analytics-summary") {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestSchemaBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	var out bytes.Buffer
	err := printSchema(context.Background(), &out, filepath.Join(t.TempDir(), "none.yaml"), url, false)
	if err == nil || !strings.HasPrefix(err.Error(), "error loading questions") {
		t.Fatalf("expected load error, got %v", err)
	}
}
