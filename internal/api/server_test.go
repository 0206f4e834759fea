package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nugget/promptdesk/internal/config"
	"github.com/nugget/promptdesk/internal/opstate"
	"github.com/nugget/promptdesk/internal/prompts"
	"github.com/nugget/promptdesk/internal/settings"
)

// flakyKV wraps a real namespace and fails reads or writes on demand.
type flakyKV struct {
	prompts.KV
	failReads  bool
	failWrites bool
}

func (f *flakyKV) Get(key string) (string, error) {
	if f.failReads {
		return "", errors.New("database is locked")
	}
	return f.KV.Get(key)
}

func (f *flakyKV) Set(key, value string) error {
	if f.failWrites {
		return errors.New("quota exceeded")
	}
	return f.KV.Set(key, value)
}

func (f *flakyKV) Delete(key string) error {
	if f.failWrites {
		return errors.New("quota exceeded")
	}
	return f.KV.Delete(key)
}

func newTestServer(t *testing.T) (*Server, *flakyKV) {
	t.Helper()
	return newTestServerWithDefaults(t, prompts.Options{
		WorkingDirectory:    "/proj",
		AllowedHTMLElements: []string{"b", "i"},
	})
}

func newTestServerWithDefaults(t *testing.T, defaults prompts.Options) (*Server, *flakyKV) {
	t.Helper()
	store, err := opstate.NewStore(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	kv := &flakyKV{KV: store.Namespace("bolt")}
	overrides := prompts.NewOverrides(kv)
	library := prompts.NewLibrary(overrides)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := NewServer(Config{
		AllowedOrigins: []string{"http://localhost:*"},
		Library:        library,
		Overrides:      overrides,
		Settings:       settings.NewService(kv, library, logger),
		Defaults:       defaults,
		Logger:         logger,
	})
	return srv, kv
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), "GET", "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestListPrompts(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), "GET", "/v1/prompts", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[struct {
		Prompts []prompts.Entry `json:"prompts"`
	}](t, rec)
	if len(got.Prompts) != 3 || got.Prompts[0].ID != prompts.Default || got.Prompts[2].ID != prompts.Custom {
		t.Errorf("prompts = %+v", got.Prompts)
	}
}

func TestExamples(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), "GET", "/v1/prompts/examples", "")

	got := decode[struct {
		Examples []prompts.Example `json:"examples"`
	}](t, rec)
	if len(got.Examples) == 0 {
		t.Error("expected example prompts")
	}
}

func TestRender_Unknown(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), "POST", "/v1/prompts/does-not-exist/render", "")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"prompt"`) {
		t.Errorf("unknown id produced output: %s", rec.Body.String())
	}
}

func TestRender_UsesDefaultsAndOverrides(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, "POST", "/v1/prompts/custom/render", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[RenderResponse](t, rec)
	if !strings.Contains(got.Prompt, "Current working directory: /proj") {
		t.Errorf("fallback should use configured cwd, got %q", got.Prompt)
	}
	if !strings.HasPrefix(got.ID, "prompt-") || got.PromptID != prompts.Custom {
		t.Errorf("response metadata = %+v", got)
	}

	rec = do(t, h, "POST", "/v1/prompts/optimized/render", `{"cwd": "/other", "allowed_html_elements": []}`)
	got = decode[RenderResponse](t, rec)
	if !strings.Contains(got.Prompt, "Working directory: /other") {
		t.Errorf("request cwd should win over defaults, got %q", got.Prompt)
	}
}

func TestRender_HTMLPreview(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	do(t, h, "PUT", "/v1/prompts/custom", `{"prompt": "# Rules\n\nWork in ${cwd}"}`)
	rec := do(t, h, "POST", "/v1/prompts/custom/render?format=html", "")

	got := decode[RenderResponse](t, rec)
	if got.Prompt != "# Rules\n\nWork in /proj" {
		t.Errorf("prompt = %q", got.Prompt)
	}
	if !strings.Contains(got.HTML, "<h1>Rules</h1>") {
		t.Errorf("html = %q", got.HTML)
	}
}

func TestRender_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), "POST", "/v1/prompts/default/render", "{")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCustomPrompt_SaveRenderReset(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, "PUT", "/v1/prompts/custom", `{"prompt": "${allowedHtmlElements}"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	saved := decode[CustomPromptResponse](t, rec)
	if saved.Prompt != "${allowedHtmlElements}" || saved.Notice == nil || saved.Notice.Level != prompts.NoticeSuccess {
		t.Errorf("save response = %+v", saved)
	}

	rec = do(t, h, "POST", "/v1/prompts/custom/render", "")
	if got := decode[RenderResponse](t, rec); got.Prompt != "b, i" {
		t.Errorf("render after save = %q, want %q", got.Prompt, "b, i")
	}

	rec = do(t, h, "DELETE", "/v1/prompts/custom", "")
	reset := decode[CustomPromptResponse](t, rec)
	if rec.Code != http.StatusOK || reset.Prompt != "" {
		t.Errorf("reset = %d %+v, want 200 with empty prompt", rec.Code, reset)
	}

	rec = do(t, h, "GET", "/v1/prompts/custom", "")
	if got := decode[CustomPromptResponse](t, rec); got.Prompt != "" {
		t.Errorf("GET after reset = %q, want empty", got.Prompt)
	}
}

func TestCustomPrompt_FailedSaveKeepsPrevious(t *testing.T) {
	srv, kv := newTestServer(t)
	h := srv.Handler()

	do(t, h, "PUT", "/v1/prompts/custom", `{"prompt": "first"}`)
	kv.failWrites = true

	rec := do(t, h, "PUT", "/v1/prompts/custom", `{"prompt": "second"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	got := decode[CustomPromptResponse](t, rec)
	if got.Prompt != "first" {
		t.Errorf("failed save reported prompt %q, want previous %q", got.Prompt, "first")
	}
	if got.Notice == nil || got.Notice.Level != prompts.NoticeError {
		t.Errorf("notice = %+v, want error notice", got.Notice)
	}

	kv.failWrites = false
	rec = do(t, h, "GET", "/v1/prompts/custom", "")
	if cur := decode[CustomPromptResponse](t, rec); cur.Prompt != "first" {
		t.Errorf("stored prompt = %q after failed save", cur.Prompt)
	}
}

func TestSelectedPromptAndSystemPrompt(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, "GET", "/v1/settings/prompt", "")
	if got := decode[prompts.Entry](t, rec); got.ID != prompts.Default {
		t.Errorf("initial selection = %q", got.ID)
	}

	rec = do(t, h, "PUT", "/v1/settings/prompt", `{"prompt_id": "nope"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown selection status = %d, want 404", rec.Code)
	}

	do(t, h, "PUT", "/v1/prompts/custom", `{"prompt": "Hello ${cwd}"}`)
	rec = do(t, h, "PUT", "/v1/settings/prompt", `{"prompt_id": "custom"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("select status = %d", rec.Code)
	}

	rec = do(t, h, "GET", "/v1/system-prompt", "")
	if got := decode[RenderResponse](t, rec); got.Prompt != "Hello /proj" {
		t.Errorf("system prompt = %q, want %q", got.Prompt, "Hello /proj")
	}
}

func TestDatabaseSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, "GET", "/v1/settings/database", "")
	if got := decode[settings.DatabaseSettings](t, rec); got != settings.DefaultDatabaseSettings() {
		t.Errorf("defaults = %+v", got)
	}

	body := `{"host":"db","port":3307,"user":"app","password":"pw","database":"chat","enabled":true}`
	rec = do(t, h, "PUT", "/v1/settings/database", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[settings.DatabaseSettings](t, rec); got.Password != settings.RedactedPassword {
		t.Errorf("password echoed back: %q", got.Password)
	}

	// Sending the redacted value back keeps the stored password.
	rec = do(t, h, "PUT", "/v1/settings/database",
		`{"host":"db2","port":3307,"user":"app","password":"********","database":"chat","enabled":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("resave status = %d", rec.Code)
	}
	stored, err := srv.settings.Database()
	if err != nil {
		t.Fatalf("Database: %v", err)
	}
	if stored.Password != "pw" || stored.Host != "db2" {
		t.Errorf("stored = %+v", stored)
	}

	rec = do(t, h, "PUT", "/v1/settings/database", `{"host":"db","port":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid settings status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/v1/prompts/custom", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestSystemPrompt_ConfiguredEmptyElementList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("prompt:\n  allowed_html_elements: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	srv, _ := newTestServerWithDefaults(t, cfg.Prompt.Options())
	h := srv.Handler()
	do(t, h, "PUT", "/v1/prompts/custom", `{"prompt": "tags=[${allowedHtmlElements}]"}`)
	do(t, h, "PUT", "/v1/settings/prompt", `{"prompt_id": "custom"}`)

	rec := do(t, h, "GET", "/v1/system-prompt", "")
	if got := decode[RenderResponse](t, rec); got.Prompt != "tags=[]" {
		t.Errorf("system prompt = %q, want %q", got.Prompt, "tags=[]")
	}
}

func TestCustomPrompt_UnreadableStoreReportsNotice(t *testing.T) {
	srv, kv := newTestServer(t)
	h := srv.Handler()
	kv.failReads = true

	for _, tt := range []struct {
		method, body, message string
	}{
		{"PUT", `{"prompt": "x"}`, "Failed to save custom prompt"},
		{"DELETE", "", "Failed to reset custom prompt"},
	} {
		rec := do(t, h, tt.method, "/v1/prompts/custom", tt.body)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", tt.method, rec.Code)
		}
		got := decode[CustomPromptResponse](t, rec)
		if got.Notice == nil || got.Notice.Level != prompts.NoticeError || got.Notice.Message != tt.message {
			t.Errorf("%s notice = %+v, want error %q", tt.method, got.Notice, tt.message)
		}
	}
}

func TestDatabaseSettings_PartialUpdateMerges(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	do(t, h, "PUT", "/v1/settings/database",
		`{"host":"db","port":3307,"user":"app","password":"pw","database":"chat","enabled":true}`)

	rec := do(t, h, "PUT", "/v1/settings/database", `{"host":"db3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("partial update status = %d: %s", rec.Code, rec.Body.String())
	}

	stored, err := srv.settings.Database()
	if err != nil {
		t.Fatalf("Database: %v", err)
	}
	want := settings.DatabaseSettings{Host: "db3", Port: 3307, User: "app", Password: "pw", Database: "chat", Enabled: true}
	if stored != want {
		t.Errorf("stored = %+v, want %+v", stored, want)
	}
}
