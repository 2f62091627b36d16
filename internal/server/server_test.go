package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/muurk/lifx-exporter/internal/device"
	"github.com/muurk/lifx-exporter/internal/metrics"
)

func newTestServer(t *testing.T) (*Server, *device.Registry, *metrics.Prometheus) {
	t.Helper()

	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(reg)
	if err != nil {
		t.Fatalf("NewPrometheus() error = %v", err)
	}

	devices := device.NewRegistry()
	srv := New(Config{Addr: "127.0.0.1:0"}, Deps{
		Registry: devices,
		Gatherer: reg,
		Hub:      NewHub(),
	})
	return srv, devices, prom
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestHandler_Metrics(t *testing.T) {
	srv, devices, prom := newTestServer(t)

	d := device.Device{ID: "d0:73:d5:00:00:01", Label: "Kitchen", Location: "Home", Group: "Downstairs", Product: 27}
	devices.Register(d)
	prom.Publish(metrics.Project(d, &device.State{Hue: 100, Saturation: 0, Brightness: 65535, Kelvin: 2700, Power: 65535}))
	prom.SetDeviceCount(devices.Len())

	rec := get(t, srv.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	wants := []string{
		`lifx_bulb_on{group="Downstairs",location="Home",name="Kitchen",type="LIFX A19"} 1`,
		`lifx_bulb_kelvin{group="Downstairs",location="Home",name="Kitchen",type="LIFX A19"} 2700`,
		`lifx_exporter_devices 1`,
	}
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q\n%s", want, body)
		}
	}
}

func TestHandler_Devices(t *testing.T) {
	srv, devices, _ := newTestServer(t)

	devices.Register(device.Device{ID: "d0:73:d5:00:00:02", Label: "Porch", Product: 0})
	devices.Register(device.Device{ID: "d0:73:d5:00:00:01"})

	rec := get(t, srv.Handler(), "/api/devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ProductName string `json:"product_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d devices, want 2", len(got))
	}
	// Unlabelled bulb is named by its ID, which sorts after "Porch"
	if got[0].Name != "Porch" || got[1].Name != "d0:73:d5:00:00:01" {
		t.Errorf("order = %s, %s", got[0].Name, got[1].Name)
	}
	if got[0].ProductName != device.UnknownProduct {
		t.Errorf("ProductName = %q, want %q", got[0].ProductName, device.UnknownProduct)
	}
}

func TestHandler_DevicesEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/api/devices")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rec.Body.String())
	}
}

func TestHandler_Index(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/metrics"`) {
		t.Error("index should link to /metrics")
	}
}

func TestHandler_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if rec := get(t, srv.Handler(), "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := get(t, h, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	var captured *statusWriter
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		captured = w.(*statusWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	get(t, h, "/")
	if captured.status != http.StatusTeapot || captured.bytes != len("short and stout") {
		t.Errorf("status = %d bytes = %d", captured.status, captured.bytes)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := srv.Start(); err == nil {
		t.Error("second Start() should fail")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("body = %q", body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if _, err := http.Get("http://" + srv.Addr() + "/healthz"); err == nil {
		t.Error("server should not accept requests after Shutdown")
	}
}

func TestServer_BindError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	srv := New(Config{Addr: l.Addr().String()}, Deps{})
	err = srv.Start()

	var bindErr *BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Start() error = %v, want *BindError", err)
	}
	if bindErr.Addr != l.Addr().String() {
		t.Errorf("BindError.Addr = %s", bindErr.Addr)
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, Deps{})
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() before Start error = %v", err)
	}
}
