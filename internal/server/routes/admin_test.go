package routes

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestHealthRoute(t *testing.T) {
	ta := newTestApp(t)

	resp, body := doRequest(t, ta.app, http.MethodGet, "/-/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body: %s", resp.StatusCode, body)
	}
	var payload struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Status != "ok" || payload.Version == "" {
		t.Fatalf("unexpected health payload: %+v", payload)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ta := newTestApp(t)

	first, _ := doRequest(t, ta.app, http.MethodGet, "/-/health")
	second, _ := doRequest(t, ta.app, http.MethodGet, "/-/health")

	a := first.Header.Get("X-Request-ID")
	b := second.Header.Get("X-Request-ID")
	if a == "" || b == "" {
		t.Fatal("X-Request-ID header missing")
	}
	if a == b {
		t.Fatalf("request ids must be unique, both %q", a)
	}
}

func TestAdminVerboseToggle(t *testing.T) {
	ta := newTestApp(t)

	resp, _ := doRequest(t, ta.app, http.MethodPost, "/-/admin/verbose?enabled=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !ta.cache.VerboseEnabled() {
		t.Fatal("verbose flag not applied to the stores")
	}

	resp, _ = doRequest(t, ta.app, http.MethodPost, "/-/admin/verbose?enabled=false")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ta.cache.VerboseEnabled() {
		t.Fatal("verbose flag not cleared")
	}

	resp, body := doRequest(t, ta.app, http.MethodPost, "/-/admin/verbose?enabled=maybe")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body: %s", resp.StatusCode, body)
	}
}

func TestAdminBackupThenRecover(t *testing.T) {
	ta := newTestApp(t)

	resp, body := doRequest(t, ta.app, http.MethodPost, "/-/admin/backup/primary")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("backup status = %d, body: %s", resp.StatusCode, body)
	}
	var payload struct {
		Snapshot string `json:"snapshot"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(payload.Snapshot, "_backup_") {
		t.Fatalf("unexpected snapshot path: %q", payload.Snapshot)
	}

	resp, body = doRequest(t, ta.app, http.MethodPost, "/-/admin/recover/primary")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recover status = %d, body: %s", resp.StatusCode, body)
	}
}

func TestAdminRecoverWithoutSnapshotConflicts(t *testing.T) {
	ta := newTestApp(t)

	resp, body := doRequest(t, ta.app, http.MethodPost, "/-/admin/recover/extra")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, body: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "no_snapshot") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestAdminRefreshTargets(t *testing.T) {
	ta := newTestApp(t)

	for _, target := range []string{"primary", "extra", "lists"} {
		resp, body := doRequest(t, ta.app, http.MethodPost, "/-/admin/refresh/"+target)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("refresh %s status = %d, body: %s", target, resp.StatusCode, body)
		}
	}

	resp, body := doRequest(t, ta.app, http.MethodPost, "/-/admin/refresh/everything")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "unknown_target") {
		t.Fatalf("unexpected body: %s", body)
	}
}
