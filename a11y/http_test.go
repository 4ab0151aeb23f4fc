package a11y

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/a11y/compliance"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestHTTPHealthz(t *testing.T) {
	s := newTestService(t)
	w := do(t, s.Handler(), "GET", "/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("headers = %v", w.Header())
	}
}

func TestHTTPCheck(t *testing.T) {
	s := newTestService(t)
	w := do(t, s.Handler(), "POST", "/v1/check", jsonBody(t, map[string]any{"html": brokenPage}))
	if w.Code != 200 {
		t.Fatalf("status = %d body %s", w.Code, w.Body)
	}
	var res CheckResult
	decodeInto(t, w, &res)
	if len(res.Errors) == 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestHTTPCheckReminders(t *testing.T) {
	s := newTestService(t)
	w := do(t, s.Handler(), "POST", "/v1/check", jsonBody(t, map[string]any{"html": cleanPage, "include_reminders": true}))
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"color-contrast-check"`) {
		t.Fatalf("status = %d body %s", w.Code, w.Body)
	}
}

func TestHTTPCheckValidation(t *testing.T) {
	s := newTestService(t)
	h := s.Handler()

	w := do(t, h, "POST", "/v1/check", `{}`)
	if w.Code != 400 || !strings.Contains(w.Body.String(), "html") {
		t.Fatalf("empty html: %d %s", w.Code, w.Body)
	}

	w = do(t, h, "POST", "/v1/check", `{"html":`)
	if w.Code != 400 {
		t.Fatalf("bad json: %d", w.Code)
	}
}

func TestHTTPContrast(t *testing.T) {
	s := newTestService(t)
	h := s.Handler()

	w := do(t, h, "POST", "/v1/contrast", `{"foreground":"#777777","background":"#ffffff"}`)
	if w.Code != 200 {
		t.Fatalf("status = %d body %s", w.Code, w.Body)
	}
	var res struct {
		Ratio float64 `json:"contrast_ratio"`
	}
	decodeInto(t, w, &res)
	if res.Ratio < 4 || res.Ratio > 5 {
		t.Fatalf("ratio = %v", res.Ratio)
	}

	w = do(t, h, "POST", "/v1/contrast", `{"foreground":"nocolor","background":"#ffffff"}`)
	if w.Code != 400 {
		t.Fatalf("bad color: %d %s", w.Code, w.Body)
	}
}

func TestHTTPCriteria(t *testing.T) {
	s := newTestService(t)
	h := s.Handler()

	w := do(t, h, "GET", "/v1/criteria/1.1.1", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"level":"A"`) {
		t.Fatalf("lookup: %d %s", w.Code, w.Body)
	}

	if w = do(t, h, "GET", "/v1/criteria/9.9.9", ""); w.Code != 404 {
		t.Fatalf("missing: %d", w.Code)
	}
	if w = do(t, h, "GET", "/v1/criteria/abc", ""); w.Code != 400 {
		t.Fatalf("malformed: %d", w.Code)
	}

	w = do(t, h, "GET", "/v1/criteria?level=AAA&principle=robust", "")
	if w.Code != 200 {
		t.Fatalf("list: %d %s", w.Code, w.Body)
	}
	var list ListResult
	decodeInto(t, w, &list)
	if list.TotalCriteria != len(list.Criteria) {
		t.Fatalf("list = %+v", list)
	}

	w = do(t, h, "GET", "/v1/criteria/search?q=keyboard", "")
	var sr SearchResult
	decodeInto(t, w, &sr)
	if w.Code != 200 || sr.TotalResults == 0 {
		t.Fatalf("search: %d %+v", w.Code, sr)
	}

	if w = do(t, h, "GET", "/v1/criteria/search", ""); w.Code != 400 {
		t.Fatalf("empty search: %d", w.Code)
	}
}

func TestHTTPGuidance(t *testing.T) {
	s := newTestService(t)
	h := s.Handler()
	if w := do(t, h, "GET", "/v1/guidance/forms", ""); w.Code != 200 {
		t.Fatalf("forms: %d", w.Code)
	}
	if w := do(t, h, "GET", "/v1/guidance/teleport", ""); w.Code != 400 {
		t.Fatalf("unknown: %d", w.Code)
	}
}

func TestHTTPComplianceAndReports(t *testing.T) {
	s := newStoredService(t)
	h := s.Handler()

	w := do(t, h, "POST", "/v1/compliance", jsonBody(t, map[string]any{
		"html":         brokenPage,
		"target_level": "AA",
		"source":       "unit",
	}))
	if w.Code != 200 {
		t.Fatalf("compliance: %d %s", w.Code, w.Body)
	}
	var rep compliance.Report
	decodeInto(t, w, &rep)
	if rep.ID == "" || rep.Passed() {
		t.Fatalf("report = %+v", rep)
	}

	w = do(t, h, "GET", "/v1/reports/"+rep.ID, "")
	if w.Code != 200 {
		t.Fatalf("get: %d", w.Code)
	}

	w = do(t, h, "GET", "/v1/reports/"+rep.ID+"?format=html", "")
	if w.Code != 200 || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("html: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "1.1.1") {
		t.Fatal("html report lacks violated criterion")
	}

	w = do(t, h, "GET", "/v1/reports/"+rep.ID+"?format=md", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), "1.1.1") {
		t.Fatalf("md: %d %s", w.Code, w.Body)
	}

	if w = do(t, h, "GET", "/v1/reports/"+rep.ID+"?format=pdf", ""); w.Code != 400 {
		t.Fatalf("pdf: %d", w.Code)
	}

	w = do(t, h, "GET", "/v1/reports?limit=5", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), rep.ID) {
		t.Fatalf("list: %d %s", w.Code, w.Body)
	}
	if w = do(t, h, "GET", "/v1/reports?limit=9999", ""); w.Code != 400 {
		t.Fatalf("limit: %d", w.Code)
	}

	w = do(t, h, "GET", "/v1/stats/violations", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"1.1.1"`) {
		t.Fatalf("stats: %d %s", w.Code, w.Body)
	}

	if w = do(t, h, "DELETE", "/v1/reports/"+rep.ID, ""); w.Code != 200 {
		t.Fatalf("delete: %d %s", w.Code, w.Body)
	}
	if w = do(t, h, "GET", "/v1/reports/"+rep.ID, ""); w.Code != 404 {
		t.Fatalf("after delete: %d", w.Code)
	}
}

func TestHTTPReportsWithoutStore(t *testing.T) {
	s := newTestService(t)
	if w := do(t, s.Handler(), "GET", "/v1/reports", ""); w.Code != 503 {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHTTPAsyncAudit(t *testing.T) {
	s := newStoredService(t)
	h := s.Handler()

	w := do(t, h, "POST", "/v1/audit", `{"url":"https://example.com/","async":true}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body %s", w.Code, w.Body)
	}
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeInto(t, w, &job)
	if !strings.HasPrefix(job.ID, "aud_") || job.Status != "queued" {
		t.Fatalf("job = %+v", job)
	}

	if w = do(t, h, "GET", "/v1/audits/"+job.ID, ""); w.Code != 200 {
		t.Fatalf("get audit: %d", w.Code)
	}

	if w = do(t, h, "POST", "/v1/audit", `{"url":"ftp://example.com/"}`); w.Code != 400 {
		t.Fatalf("ftp: %d", w.Code)
	}
}

func TestHTTPAuditRateLimit(t *testing.T) {
	cfg := Config{}
	cfg.AuditRate.MaxRequests = 1
	s, err := New(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	h := s.Handler()
	do(t, h, "POST", "/v1/audit", `{"url":"ftp://x"}`)
	w := do(t, h, "POST", "/v1/audit", `{"url":"ftp://x"}`)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHTTPBodyLimit(t *testing.T) {
	s, err := New(Config{MaxBody: 64}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	body := jsonBody(t, map[string]any{"html": strings.Repeat("<p>x</p>", 100)})
	if w := do(t, s.Handler(), "POST", "/v1/check", body); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHTTPAriaAndForms(t *testing.T) {
	s := newTestService(t)
	h := s.Handler()

	w := do(t, h, "POST", "/v1/aria", `{"element_type":"modal"}`)
	if w.Code != 200 || !strings.Contains(w.Body.String(), "aria-modal") {
		t.Fatalf("aria: %d %s", w.Code, w.Body)
	}

	w = do(t, h, "POST", "/v1/forms", `{"fields":[{"name":"Email","type":"email","required":true}]}`)
	if w.Code != 200 || !strings.Contains(w.Body.String(), `for=\"email\"`) {
		t.Fatalf("form: %d %s", w.Code, w.Body)
	}

	if w = do(t, h, "POST", "/v1/forms", `{"fields":[]}`); w.Code != 400 {
		t.Fatalf("no fields: %d", w.Code)
	}
}

func TestHTTPMetrics(t *testing.T) {
	s := newTestService(t)
	h := s.Handler()
	do(t, h, "GET", "/v1/criteria/1.4.3", "")
	w := do(t, h, "GET", "/metrics", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `a11y_calls_total{op="get_criterion",status="ok"} 1`) {
		t.Fatalf("metrics: %d %s", w.Code, w.Body)
	}
}
