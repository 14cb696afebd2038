package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/vidshrink/internal/api/models"
	"github.com/smazurov/vidshrink/internal/ffmpeg"
	"github.com/smazurov/vidshrink/internal/planner"
)

const scenarioSource = `{
	"container": {"duration": 120, "start": 0},
	"video": {"codec": "h264", "color": "yuv420p", "width": 1920, "height": 1080, "bitrate": 4000, "fps": 30},
	"audio": {"codec": "aac", "sample_rate": 48000, "channel_setup": "stereo", "bitrate": 192}
}`

const probeOutput = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mov':
  Duration: 00:02:00.00, start: 0.000000, bitrate: 4197 kb/s
    Stream #0:0[0x1](und): Video: h264 (High) (avc1 / 0x31637661), yuv420p(tv, bt709, progressive), 1920x1080 [SAR 1:1 DAR 16:9], 4000 kb/s, 30 fps, 30 tbr, 15360 tbn (default)
    Stream #0:1[0x2](und): Audio: aac (LC) (mp4a / 0x6134706D), 48000 Hz, stereo, fltp, 192 kb/s (default)
At least one output file must be specified
`

func newTestServer(t *testing.T, opts *Options) http.Handler {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	return NewServer(opts).GetMux()
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		r.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	if got := decode[models.HealthData](t, w); got.Status != "ok" {
		t.Errorf("health = %+v", got)
	}

	w = do(t, h, http.MethodGet, "/api/version", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("version status = %d", w.Code)
	}
	if got := decode[models.VersionData](t, w); got.Version == "" || got.GoVersion == "" {
		t.Errorf("version = %+v", got)
	}
}

func TestPlan(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"parsed source", `{"source": ` + scenarioSource + `}`},
		{"probe output", mustJSON(t, map[string]string{"probe_output": probeOutput})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/plan", tt.body, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body)
			}
			plan := decode[planner.Plan](t, w)
			if len(plan.Size) != len(planner.Budgets) || len(plan.Quality) != 3 || len(plan.Audio) != 3 {
				t.Fatalf("plan has %d/%d/%d options", len(plan.Size), len(plan.Quality), len(plan.Audio))
			}
			if small := plan.Size[0]; small.Implausible || small.Height != 360 {
				t.Errorf("size_8mb = %+v", small)
			}
		})
	}
}

func TestPlanRejectsUnusableSource(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"probe without video", mustJSON(t, map[string]string{"probe_output": "clip.mov: Invalid data found when processing input"})},
		{"zero duration", `{"source": {"container": {"duration": 0}, "video": {"codec": "h264", "color": "yuv420p", "width": 10, "height": 10, "fps": 30}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/plan", tt.body, nil)
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422: %s", w.Code, w.Body)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	h := newTestServer(t, &Options{Transcode: ffmpeg.TranscodeOptions{Preset: "veryfast"}})

	body := `{"source": ` + scenarioSource + `, "input": "clip.mov", "video_preset": "size_8mb", "audio_preset": "bitrate_high"}`
	w := do(t, h, http.MethodPost, "/api/args", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	got := decode[models.ArgsData](t, w)
	if got.Output != "output clip.mov" || got.Args[len(got.Args)-1] != "output clip.mov" {
		t.Errorf("output = %q, args = %q", got.Output, got.Args)
	}
	for _, pair := range [][2]string{{"-preset", "veryfast"}, {"-c:a", "copy"}, {"-s", "640x360"}} {
		i := slices.Index(got.Args, pair[0])
		if i < 0 || got.Args[i+1] != pair[1] {
			t.Errorf("missing %q in %q", pair, got.Args)
		}
	}
	if got.Target.Video.Preset != "size_8mb" {
		t.Errorf("target = %+v", got.Target.Video)
	}
}

func TestArgsUnknownPreset(t *testing.T) {
	h := newTestServer(t, nil)
	body := `{"source": ` + scenarioSource + `, "input": "clip.mov", "video_preset": "size_1gb"}`
	w := do(t, h, http.MethodPost, "/api/args", body, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "size_1gb") {
		t.Errorf("error does not name the preset: %s", w.Body)
	}
}

func TestProgress(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name    string
		line    string
		matched bool
		percent float64
	}{
		{"status line", "frame=  240 fps=120 q=28.0 size=1024kB time=00:00:30.00 bitrate=1048.6kbits/s", true, 25},
		{"other output", "Press [q] to stop", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := mustJSON(t, map[string]any{"line": tt.line, "duration": 120})
			w := do(t, h, http.MethodPost, "/api/progress", body, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body)
			}
			got := decode[models.ProgressData](t, w)
			if got.Matched != tt.matched || got.Percent != tt.percent {
				t.Errorf("progress = %+v", got)
			}
		})
	}
}

func TestBasicAuth(t *testing.T) {
	h := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})
	basic := func(creds string) http.Header {
		return http.Header{"Authorization": {"Basic " + base64.StdEncoding.EncodeToString([]byte(creds))}}
	}
	body := mustJSON(t, map[string]any{"line": "time=00:00:01.00", "duration": 10})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		header http.Header
		want   int
	}{
		{"health is open", http.MethodGet, "/api/health", "", nil, http.StatusOK},
		{"missing credentials", http.MethodPost, "/api/progress", body, nil, http.StatusUnauthorized},
		{"wrong password", http.MethodPost, "/api/progress", body, basic("admin:nope"), http.StatusUnauthorized},
		{"bearer rejected", http.MethodPost, "/api/progress", body, http.Header{"Authorization": {"Bearer x"}}, http.StatusUnauthorized},
		{"valid credentials", http.MethodPost, "/api/progress", body, basic("admin:secret"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body, tt.header)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMetricsHandlerMounted(t *testing.T) {
	called := false
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	h := newTestServer(t, &Options{PrometheusHandler: metrics})
	if w := do(t, h, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusOK || !called {
		t.Errorf("metrics status = %d, called = %v", w.Code, called)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		method string
		path   string
		status int
		want   string
	}{
		{"preflight any origin", "", http.MethodOptions, "/api/plan", http.StatusNoContent, "*"},
		{"preflight configured", "https://tools.example", http.MethodOptions, "/api/args", http.StatusNoContent, "https://tools.example"},
		{"response header", "https://tools.example", http.MethodGet, "/api/health", http.StatusOK, "https://tools.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &Options{CORSOrigin: tt.origin})
			w := do(t, h, tt.method, tt.path, "", nil)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("allow origin = %q, want %q", got, tt.want)
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
				t.Errorf("allow methods = %q", got)
			}
		})
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		want   string
	}{
		{http.MethodGet, "/api/health", 200, "DEBUG"},
		{http.MethodOptions, "/api/plan", 204, "DEBUG"},
		{http.MethodPost, "/api/plan", 200, "INFO"},
		{http.MethodPost, "/api/plan", 422, "WARN"},
		{http.MethodGet, "/api/health", 500, "ERROR"},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.path, tt.status).String(); got != tt.want {
			t.Errorf("requestLevel(%s %s %d) = %s, want %s", tt.method, tt.path, tt.status, got, tt.want)
		}
	}
}

func TestStartNotifiesListening(t *testing.T) {
	listening := make(chan struct{})
	srv := NewServer(&Options{OnListening: func() { close(listening) }})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start("127.0.0.1:0") }()

	select {
	case <-listening:
	case err := <-errc:
		t.Fatalf("Start: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("OnListening not called")
	}
	if err := srv.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Start returned %v", err)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}
