package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/yuqie6/LifeRPG/internal/bootstrap"
	"github.com/yuqie6/LifeRPG/internal/pkg/config"
	"github.com/yuqie6/LifeRPG/internal/schema"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Engine = "json"
	cfg.Storage.JSONPath = filepath.Join(dir, "data")
	cfg.App.LogPath = filepath.Join(dir, "liferpg.log")
	cfg.Engine.Seed = 3

	core, err := bootstrap.NewCoreWithConfig(cfg)
	if err != nil {
		t.Fatalf("core: %v", err)
	}
	t.Cleanup(func() { core.Close() })

	srv := httptest.NewServer(NewHandler(core))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndStatus(t *testing.T) {
	srv := newTestServer(t)
	var health map[string]any
	if code := doJSON(t, http.MethodGet, srv.URL+"/health", nil, &health); code != http.StatusOK || health["ok"] != true {
		t.Fatalf("health = %d %v", code, health)
	}
	var status map[string]any
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/status", nil, &status); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
}

func TestLogAndDeleteEntry(t *testing.T) {
	srv := newTestServer(t)

	var res struct {
		OK     bool         `json:"ok"`
		Result schema.Entry `json:"result"`
	}
	code := doJSON(t, http.MethodPost, srv.URL+"/api/entries", map[string]any{"name": "Practice", "exp": 50}, &res)
	if code != http.StatusOK || !res.OK || res.Result.GainedExp != 50 {
		t.Fatalf("log = %d %+v", code, res)
	}

	var bad map[string]any
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/entries", map[string]any{"name": "", "exp": 50}, &bad); code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid log code = %d", code)
	}
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/entries", map[string]any{"nope": 1}, &bad); code != http.StatusBadRequest {
		t.Fatalf("unknown field code = %d", code)
	}

	var del map[string]any
	if code := doJSON(t, http.MethodDelete, srv.URL+"/api/entries/"+res.Result.ID, nil, &del); code != http.StatusOK {
		t.Fatalf("delete code = %d", code)
	}

	var st schema.State
	doJSON(t, http.MethodGet, srv.URL+"/api/state", nil, &st)
	if st.TotalXP != 0 || len(st.Entries) != 0 {
		t.Fatalf("state after delete = xp %d entries %d", st.TotalXP, len(st.Entries))
	}
}

func TestTickAndQuests(t *testing.T) {
	srv := newTestServer(t)
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/tick", nil, nil); code != http.StatusOK {
		t.Fatalf("tick code = %d", code)
	}

	var quests []schema.Quest
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/quests?period=daily", nil, &quests); code != http.StatusOK || len(quests) == 0 {
		t.Fatalf("quests = %d %d", code, len(quests))
	}
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/quests?period=yearly", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid period code = %d", code)
	}

	var done map[string]any
	code := doJSON(t, http.MethodPost, srv.URL+"/api/quests/"+quests[0].ID+"/complete", map[string]any{"quality": 3}, &done)
	if code != http.StatusOK || done["ok"] != true {
		t.Fatalf("complete = %d %v", code, done)
	}
	code = doJSON(t, http.MethodPost, srv.URL+"/api/quests/"+quests[0].ID+"/skip", nil, &done)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("skip done quest code = %d", code)
	}
}

func TestSanitizeSSEName(t *testing.T) {
	if got := sanitizeSSEName(" level_up\n"); got != "level_up" {
		t.Fatalf("got %q", got)
	}
	if got := sanitizeSSEName(""); got != "message" {
		t.Fatalf("got %q", got)
	}
}
