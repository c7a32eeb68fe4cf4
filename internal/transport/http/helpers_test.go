package http

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"prepost-poll/internal/app"
	"prepost-poll/internal/domain"
	"prepost-poll/internal/infra/memory"
	"prepost-poll/internal/metrics"
	"prepost-poll/internal/render"
)

type stubBackend struct {
	mu        sync.Mutex
	submitted map[domain.PollVariant][]domain.AnswerSet
	submitErr error
	analytics string
}

func (b *stubBackend) Submit(_ context.Context, variant domain.PollVariant, answers domain.AnswerSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return b.submitErr
	}
	if b.submitted == nil {
		b.submitted = make(map[domain.PollVariant][]domain.AnswerSet)
	}
	b.submitted[variant] = append(b.submitted[variant], answers)
	return nil
}

func (b *stubBackend) FetchAnalytics(context.Context) (domain.AnalyticsPayload, error) {
	var payload domain.AnalyticsPayload
	err := payload.UnmarshalJSON([]byte(b.analytics))
	return payload, err
}

const stubAnalytics = `{
	"summary": {"pre_poll_count": 3, "post_poll_count": 2, "total_responses": 5},
	"questions": {
		"q1": {"question_text": "Ideas?", "question_type": "text",
			"pre_poll": {"count": 3, "response_rate": 100, "average_length": 20, "keywords": [{"text": "trees", "value": 3}]},
			"post_poll": {"count": 2, "response_rate": 100, "average_length": 14, "keywords": []}},
		"q5": {"question_text": "Causes?", "question_type": "checkbox",
			"pre_poll": {"count": 3, "top_selections": {"A": 2}},
			"post_poll": {"count": 2, "top_selections": {"C": 2}},
			"differential": {"selection_changes": {"A": -2, "C": 2}}}
	}
}`

func testSchema() domain.Schema {
	return domain.Schema{
		Title: "Climate Poll",
		Questions: []domain.Question{
			domain.TextQuestion{QuestionBase: domain.QuestionBase{ID: "q1", Prompt: "Ideas?"}},
			domain.CheckboxQuestion{
				QuestionBase: domain.QuestionBase{ID: "q5", Prompt: "Causes?", Required: true},
				Options:      []string{"A", "B", "C", "D", "E"},
			},
		},
	}
}

type testEnv struct {
	server  *httptest.Server
	client  *http.Client
	backend *stubBackend
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := &stubBackend{analytics: stubAnalytics}
	sessions := memory.NewSessionStore(time.Minute)
	schemas := memory.NewSchemaRepository(memory.NewStaticSchemaLoader(testSchema()), time.Minute)
	service := app.NewPageService(sessions, schemas, backend, "presenter2023", nil)
	m := metrics.New()

	server := httptest.NewServer(NewRouter(service, nil, m))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testEnv{
		server:  server,
		client:  &http.Client{Jar: jar},
		backend: backend,
		metrics: m,
	}
}

func (e *testEnv) get(t *testing.T, path string) *html.Node {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return parsePage(t, resp)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *html.Node {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return parsePage(t, resp)
}

func (e *testEnv) cookie(t *testing.T, name string) string {
	t.Helper()
	u, _ := url.Parse(e.server.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func parsePage(t *testing.T, resp *http.Response) *html.Node {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

func attrOf(doc *html.Node, id, key string) (string, bool) {
	n := render.Find(doc, render.ByID(id))
	if n == nil {
		return "", false
	}
	return render.Attr(n, key)
}
