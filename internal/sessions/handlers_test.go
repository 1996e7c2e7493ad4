package sessions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(t *testing.T, cfg StoreConfig) (http.Handler, *Store) {
	t.Helper()

	oldLogger := observability.Logger
	observability.Logger = zap.NewNop()
	t.Cleanup(func() { observability.Logger = oldLogger })

	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing session metrics: %v", err)
	}

	store := NewStore(cfg, nil)
	h := NewHandler(store, calculator.NewFormatter(language.AmericanEnglish))

	r := chi.NewRouter()
	r.Use(observability.RequestIDMiddleware)
	h.RegisterRoutes(r)

	return r, store
}

func createSession(t *testing.T, router http.Handler) SessionResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/calculator/sessions", nil)
	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	return resp
}

func pressKeys(t *testing.T, router http.Handler, id string, keys ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions/"+id+"/keys", KeysRequest{Keys: keys})
	return testutil.ExecuteRequest(req, router)
}

func TestCreateSessionReturnsInitialView(t *testing.T) {
	router, store := newTestRouter(t, StoreConfig{})

	resp := createSession(t, router)

	if resp.SessionID == "" {
		t.Fatal("expected session id")
	}
	want := calculator.View{Display: "0", Entry: "0", Phase: "idle", ClearLabel: "AC"}
	if diff := cmp.Diff(want, resp.View); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored session, got %d", store.Len())
	}
}

func TestPressKeysAppliesInOrder(t *testing.T) {
	router, _ := newTestRouter(t, StoreConfig{})
	id := createSession(t, router).SessionID

	w := pressKeys(t, router, id, "1", "2", "0", "0", "+", "3", "4")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.View.Display != "34" || resp.View.Operator != "+" || resp.View.Phase != "entering_second" {
		t.Fatalf("unexpected view %+v", resp.View)
	}

	w = pressKeys(t, router, id, "=")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.View.Display != "1,234" {
		t.Fatalf("expected display %q, got %q", "1,234", resp.View.Display)
	}

	get := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/calculator/sessions/"+id, nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, get.Code)
	testutil.DecodeJSONBody(t, get.Body, &resp)
	if resp.View.Entry != "1234" {
		t.Fatalf("expected stored entry %q, got %q", "1234", resp.View.Entry)
	}
}

func TestPressKeysDivisionByZeroIsInBand(t *testing.T) {
	router, _ := newTestRouter(t, StoreConfig{})
	id := createSession(t, router).SessionID

	w := pressKeys(t, router, id, "6", "÷", "0", "=")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp SessionResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.View.Display != "Error" || resp.View.Error != "division_by_zero" {
		t.Fatalf("expected in-band division error, got %+v", resp.View)
	}
}

func TestPressKeysRejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t, StoreConfig{})
	id := createSession(t, router).SessionID

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"keys":`},
		{name: "empty keys", body: `{"keys":[]}`},
		{name: "unknown key", body: `{"keys":["1","M+"]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/calculator/sessions/"+id+"/keys", strings.NewReader(tc.body))
			w := testutil.ExecuteRequest(req, router)
			testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)
			if body["error"] != "invalid request body" {
				t.Fatalf("expected error %q, got %q", "invalid request body", body["error"])
			}
		})
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	router, _ := newTestRouter(t, StoreConfig{})

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/calculator/sessions/missing", nil),
		httptest.NewRequest(http.MethodDelete, "/calculator/sessions/missing", nil),
		testutil.NewJSONRequest(t, http.MethodPost, "/calculator/sessions/missing/keys", KeysRequest{Keys: []string{"1"}}),
		httptest.NewRequest(http.MethodGet, "/calculator/keypad?session_id=missing", nil),
	}

	for _, req := range requests {
		w := testutil.ExecuteRequest(req, router)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected status %d, got %d", req.Method, req.URL, http.StatusNotFound, w.Code)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	router, store := newTestRouter(t, StoreConfig{})
	id := createSession(t, router).SessionID

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/calculator/sessions/"+id, nil), router)
	testutil.CheckResponseCode(t, http.StatusNoContent, w.Code)

	if store.Len() != 0 {
		t.Fatalf("expected no stored sessions, got %d", store.Len())
	}
}

func TestCreateSessionWhenFull(t *testing.T) {
	router, _ := newTestRouter(t, StoreConfig{MaxSessions: 1})
	createSession(t, router)

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodPost, "/calculator/sessions", nil), router)
	testutil.CheckResponseCode(t, http.StatusServiceUnavailable, w.Code)

	if w.Result().Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header on error response")
	}
}

func TestEvaluateReturnsEveryStep(t *testing.T) {
	router, store := newTestRouter(t, StoreConfig{})

	req := testutil.NewJSONRequest(t, http.MethodPost, "/calculator/evaluate", KeysRequest{Keys: []string{"5", "+", "3", "×"}})
	w := testutil.ExecuteRequest(req, router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp EvaluateResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)

	if len(resp.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(resp.Steps))
	}

	displays := make([]string, 0, len(resp.Steps))
	for _, step := range resp.Steps {
		displays = append(displays, step.View.Display)
	}
	if diff := cmp.Diff([]string{"5", "5", "3", "8"}, displays); diff != "" {
		t.Fatalf("display sequence mismatch (-want +got):\n%s", diff)
	}
	if resp.View.Operator != "×" || resp.View.Phase != "pending_operator" {
		t.Fatalf("unexpected final view %+v", resp.View)
	}
	if store.Len() != 0 {
		t.Fatalf("expected evaluate not to create sessions, got %d", store.Len())
	}
}

func TestKeypadFollowsSessionState(t *testing.T) {
	router, _ := newTestRouter(t, StoreConfig{})

	w := testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/calculator/keypad", nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp KeypadResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Columns != 4 || len(resp.Buttons) != 19 {
		t.Fatalf("unexpected keypad shape: %d columns, %d buttons", resp.Columns, len(resp.Buttons))
	}
	if resp.Buttons[0].Label != "AC" {
		t.Fatalf("expected clear label %q, got %q", "AC", resp.Buttons[0].Label)
	}

	id := createSession(t, router).SessionID
	pressKeys(t, router, id, "9")

	w = testutil.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/calculator/keypad?session_id="+id, nil), router)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Buttons[0].Label != "C" {
		t.Fatalf("expected clear label %q, got %q", "C", resp.Buttons[0].Label)
	}
}

func TestPressKeysLogsResolutionAndFailure(t *testing.T) {
	router, _ := newTestRouter(t, StoreConfig{})
	id := createSession(t, router).SessionID

	core, logs := observer.New(zap.InfoLevel)
	observability.Logger = zap.New(core)

	pressKeys(t, router, id, "2", "+", "3", "=", "÷", "0", "=")

	if n := logs.FilterMessage("calculation resolved").Len(); n != 1 {
		t.Fatalf("expected 1 resolution log, got %d", n)
	}

	failures := logs.FilterMessage("calculation failed").All()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure log, got %d", len(failures))
	}
	if got := failures[0].ContextMap()["label"]; got != "=" {
		t.Fatalf("expected failing label %q, got %#v", "=", got)
	}

	applied := logs.FilterMessage("calculator keys applied").All()
	if len(applied) != 1 {
		t.Fatalf("expected 1 applied log, got %d", len(applied))
	}
	if got := applied[0].ContextMap()["session_id"]; got != id {
		t.Fatalf("expected session_id %q, got %#v", id, got)
	}
}

func TestKeyTelemetryIsRecordedOutsideStoreLock(t *testing.T) {
	router, store := newTestRouter(t, StoreConfig{})
	id := createSession(t, router).SessionID

	var logged, underLock int
	core, _ := observer.New(zap.InfoLevel)
	observability.Logger = zap.New(core, zap.Hooks(func(e zapcore.Entry) error {
		if e.Message != "calculation resolved" && e.Message != "calculation failed" {
			return nil
		}
		logged++
		if store.mu.TryLock() {
			store.mu.Unlock()
		} else {
			underLock++
		}
		return nil
	}))

	w := pressKeys(t, router, id, "2", "+", "3", "=", "÷", "0", "=")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	if logged != 2 {
		t.Fatalf("expected 2 calculation logs, got %d", logged)
	}
	if underLock != 0 {
		t.Fatalf("expected no key telemetry under the store lock, got %d", underLock)
	}
}

func TestApplyKeysMatchesApplyAll(t *testing.T) {
	events, err := calculator.ParseKeys([]string{"5", "+", "3", "×", "2", "="})
	if err != nil {
		t.Fatalf("parsing keys: %v", err)
	}

	final, steps := applyKeys(calculator.New(), events)

	if want := calculator.ApplyAll(calculator.New(), events...); final != want {
		t.Fatalf("expected final entry %q, got %q", want.Entry(), final.Entry())
	}
	if len(steps) != len(events) {
		t.Fatalf("expected %d steps, got %d", len(events), len(steps))
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].before != steps[i-1].after {
			t.Fatalf("step %d does not start where step %d ended", i, i-1)
		}
	}
	if got := steps[len(steps)-1].after.Entry(); got != "16" {
		t.Fatalf("expected 16, got %q", got)
	}
}
