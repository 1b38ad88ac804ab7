package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"tutorials_api/internal/app"
	"tutorials_api/internal/domain/tutorial"
	idb "tutorials_api/internal/infra/database"
	"tutorials_api/internal/infra/metrics"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	status int
}

type recordingRecorder struct {
	mu   sync.Mutex
	seen []observation
}

func (r *recordingRecorder) ObserveRequest(method string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observation{method, status})
}

type fixture struct {
	handler  http.Handler
	repo     *idb.MemoryTutorialRepository
	recorder *recordingRecorder
	hook     *test.Hook
}

func newFixture(t *testing.T, service TutorialService) *fixture {
	t.Helper()
	repo := idb.NewMemoryTutorialRepository()
	if service == nil {
		service = app.NewTutorialService(repo)
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	entry := logrus.NewEntry(logger)
	recorder := &recordingRecorder{}

	h := NewRouter(RouterConfig{
		BasePath:       "/api",
		CORSOrigin:     "*",
		Tutorials:      NewTutorialHandlers(service, recorder, entry),
		MetricsHandler: metrics.New().Handler(nil),
		Recorder:       recorder,
		Logger:         entry,
	})
	return &fixture{handler: h, repo: repo, recorder: recorder, hook: hook}
}

// do sends one request and checks the status/log/metric consistency of its outcome.
func (f *fixture) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	f.hook.Reset()
	f.recorder.seen = nil

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	entries := f.hook.AllEntries()
	require.Len(t, entries, 1, "exactly one log entry per request")
	assert.Equal(t, rec.Code, entries[0].Data["status"])
	require.Len(t, f.recorder.seen, 1, "exactly one counter increment per request")
	assert.Equal(t, observation{method, rec.Code}, f.recorder.seen[0])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestTutorialLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/tutorials", "application/json", `{"title":"Learn X"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[tutorial.Tutorial](t, rec)
	assert.NotZero(t, created.ID)
	assert.False(t, created.Published)
	path := "/api/tutorials/" + jsonID(created.ID)

	rec = f.do(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[tutorial.Tutorial](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Learn X", got.Title)

	rec = f.do(t, http.MethodPut, path, "application/json", `{"published":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tutorial was updated successfully.", decode[messageResponse](t, rec).Message)

	rec = f.do(t, http.MethodGet, "/api/tutorials/published", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	published := decode[[]tutorial.Tutorial](t, rec)
	require.Len(t, published, 1)
	assert.Equal(t, created.ID, published[0].ID)

	rec = f.do(t, http.MethodDelete, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tutorial was deleted successfully!", decode[messageResponse](t, rec).Message)

	rec = f.do(t, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cannot find Tutorial with id="+jsonID(created.ID)+".", decode[messageResponse](t, rec).Message)
}

func TestCreateWithoutTitleIsRejected(t *testing.T) {
	f := newFixture(t, nil)

	for _, body := range []string{`{}`, `{"title":""}`, ``} {
		rec := f.do(t, http.MethodPost, "/api/tutorials", "application/json", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Content can not be empty!", decode[messageResponse](t, rec).Message)
		assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
	}

	n, err := f.repo.Count(context.Background(), tutorial.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/tutorials", "application/json", `{"title":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[messageResponse](t, rec).Message, "invalid request payload")
}

func TestCreateFromForm(t *testing.T) {
	f := newFixture(t, nil)
	form := url.Values{"title": {"Form tutorial"}, "description": {"posted"}, "published": {"true"}}

	rec := f.do(t, http.MethodPost, "/api/tutorials", "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[tutorial.Tutorial](t, rec)
	assert.Equal(t, "Form tutorial", created.Title)
	require.NotNil(t, created.Description)
	assert.Equal(t, "posted", *created.Description)
	assert.True(t, created.Published)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, nil)
	for _, body := range []string{
		`{"title":"Go basics","published":true}`,
		`{"title":"Go drafts"}`,
		`{"title":"Rust basics","published":true}`,
	} {
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/tutorials", "application/json", body).Code)
	}

	all := decode[[]tutorial.Tutorial](t, f.do(t, http.MethodGet, "/api/tutorials", "", ""))
	assert.Len(t, all, 3)

	goOnly := decode[[]tutorial.Tutorial](t, f.do(t, http.MethodGet, "/api/tutorials?title=Go", "", ""))
	assert.Len(t, goOnly, 2)

	published := decode[[]tutorial.Tutorial](t, f.do(t, http.MethodGet, "/api/tutorials/published?title=Go", "", ""))
	assert.Len(t, published, 2, "title is ignored for published listing")

	rec := f.do(t, http.MethodGet, "/api/tutorials?title=Python", "", "")
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetRejectsMalformedID(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/tutorials/abc", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid tutorial id=abc", decode[messageResponse](t, rec).Message)
}

func TestUpdateNotFoundOrEmpty(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPut, "/api/tutorials/41", "application/json", `{"published":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cannot update Tutorial with id=41. Maybe Tutorial was not found or req.body is empty!", decode[messageResponse](t, rec).Message)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/tutorials", "application/json", `{"title":"x"}`).Code)
	rec = f.do(t, http.MethodPut, "/api/tutorials/1", "application/json", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/tutorials/1", "application/json", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteNotFound(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodDelete, "/api/tutorials/3", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cannot delete Tutorial with id=3. Maybe Tutorial was not found!", decode[messageResponse](t, rec).Message)
}

func TestDeleteAllReportsCount(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		f.do(t, http.MethodPost, "/api/tutorials", "application/json", `{"title":"t"}`)
	}

	rec := f.do(t, http.MethodDelete, "/api/tutorials", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[deleteAllResponse](t, rec)
	assert.Equal(t, int64(3), got.Count)
	assert.Equal(t, "3 Tutorials were deleted successfully!", got.Message)

	assert.Equal(t, "[]", strings.TrimSpace(f.do(t, http.MethodGet, "/api/tutorials", "", "").Body.String()))
}

// brokenService fails every operation with err.
type brokenService struct{ err error }

func (b brokenService) Create(context.Context, app.CreateTutorialInput) (*tutorial.Tutorial, error) {
	return nil, b.err
}

func (b brokenService) List(context.Context, string) ([]*tutorial.Tutorial, error) {
	return nil, b.err
}

func (b brokenService) ListPublished(context.Context) ([]*tutorial.Tutorial, error) {
	return nil, b.err
}

func (b brokenService) Get(context.Context, uint) (*tutorial.Tutorial, error) {
	return nil, b.err
}

func (b brokenService) Update(context.Context, uint, tutorial.Patch) error {
	return b.err
}

func (b brokenService) Delete(context.Context, uint) error {
	return b.err
}

func (b brokenService) DeleteAll(context.Context) (int64, error) {
	return 0, b.err
}

func TestBackendFailuresMapTo500(t *testing.T) {
	f := newFixture(t, brokenService{err: errors.New("pq: connection refused")})

	cases := []struct {
		method, target, body, message string
	}{
		{http.MethodPost, "/api/tutorials", `{"title":"x"}`, "pq: connection refused"},
		{http.MethodGet, "/api/tutorials", "", "pq: connection refused"},
		{http.MethodGet, "/api/tutorials/published", "", "pq: connection refused"},
		{http.MethodGet, "/api/tutorials/8", "", "Error retrieving Tutorial with id=8"},
		{http.MethodPut, "/api/tutorials/8", `{"published":true}`, "Error updating Tutorial with id=8"},
		{http.MethodDelete, "/api/tutorials/8", "", "Could not delete Tutorial with id=8"},
		{http.MethodDelete, "/api/tutorials", "", "pq: connection refused"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.target, "application/json", tc.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tc.message, decode[messageResponse](t, rec).Message)
			assert.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)
		})
	}
}

func TestTranslateErrorFallsBackForEmptyBackendText(t *testing.T) {
	status, msg := translateError(errors.New(""), failureMessages{Backend: "fallback", ExposeBackend: true})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "fallback", msg)
}

func TestWelcomeAndRequestID(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the tutorials application.", decode[messageResponse](t, rec).Message)
	id := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, f.hook.LastEntry().Data["request_id"])
}

func TestUnknownRouteIsCounted(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/nowhere", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tutorials_stored")
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
