package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sparedge/sparedge/internal/ledger"
	"github.com/sparedge/sparedge/internal/node"
	"github.com/sparedge/sparedge/internal/routing"
	"github.com/sparedge/sparedge/internal/scheduling"
)

func newTestHandlers(t *testing.T, capacity node.Capacity) *Handlers {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	tracker := node.NewCapacityTracker(l, capacity)
	table := routing.NewTable(30*time.Second, 60*time.Second)
	identity := node.Identity{ID: "local", Endpoint: "127.0.0.1:8085"}
	engine := scheduling.NewEngine(identity, l, tracker, table, nil, nil,
		routing.LargestMarginPolicy{}, scheduling.Config{Kernel: "linux", MaxHops: 10})
	return &Handlers{Identity: identity, Engine: engine, Ledger: l, Tracker: tracker, Table: table}
}

func TestInvokeNotServable(t *testing.T) {
	h := newTestHandlers(t, node.Capacity{MaxVcpus: 0, MaxMemoryMB: 0})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoke",
		strings.NewReader(`{"function":"f","image":"img","vcpus":1,"memory":128}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.InvokeFunction(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("a request the node can neither serve nor place must get 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not servable") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestInvokeBadRequest(t *testing.T) {
	h := newTestHandlers(t, node.Capacity{MaxVcpus: 4, MaxMemoryMB: 4096})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{not json`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.InvokeFunction(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on malformed body, got %d", rec.Code)
	}
}

func TestGetResources(t *testing.T) {
	h := newTestHandlers(t, node.Capacity{MaxVcpus: 4, MaxMemoryMB: 4096})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/resources", nil)
	rec := httptest.NewRecorder()

	if err := h.GetResources(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"vcpus":4`) || !strings.Contains(body, `"memory":4096`) {
		t.Errorf("unexpected resources body %q", body)
	}
}

func TestGetStatus(t *testing.T) {
	h := newTestHandlers(t, node.Capacity{MaxVcpus: 4, MaxMemoryMB: 4096})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	if err := h.GetStatus(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"local"`) {
		t.Errorf("unexpected status body %q", rec.Body.String())
	}
}
