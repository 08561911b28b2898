package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"extractor/internal/api"
	"extractor/internal/api/handler/v1handler"
	"extractor/internal/config"
	"extractor/internal/extract"
	"extractor/internal/output"
	"extractor/internal/scanner"
	"extractor/pkg/domain"
	"extractor/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	mp, err := metrics.NewPrometheusProvider(reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	rec, err := metrics.NewRecorder(mp)
	require.NoError(t, err)

	s := scanner.New(extract.NewRegistry(), scanner.Options{Recorder: rec})
	srv := api.NewServer(api.Deps{Deps: v1handler.Deps{Scanner: s}, Gatherer: reg}, api.Options{MetricsPath: "/metrics"})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res.StatusCode, string(body)
}

func TestNewOptions(t *testing.T) {
	var cfg config.Config
	cfg.HTTP.Addr = ":9000"
	cfg.HTTP.MetricsPath = "/m"
	cfg.HTTP.MaxHeaderBytes = 1024

	opts := api.NewOptions(&cfg)
	require.Equal(t, ":9000", opts.Addr)
	require.Equal(t, "/m", opts.MetricsPath)
	require.Equal(t, 1024, opts.MaxHeaderBytes)
}

func TestServer_Form(t *testing.T) {
	ts := newServer(t)

	status, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `<form id="run">`)
	require.Contains(t, body, "/v1/runs")

	status, _ = get(t, ts.URL+"/nope")
	require.Equal(t, http.StatusNotFound, status)
}

func TestServer_RunAndMetrics(t *testing.T) {
	ts := newServer(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x jane@acme.com y"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.csv"), []byte("bob@other.org,jane@acme.com"), 0o600))
	out := filepath.Join(t.TempDir(), "emails.txt")

	body := `{"mode":"directory","root":"` + root + `","output":"` + out + `","domains":"acme.com"}`
	res, err := http.Post(ts.URL+"/v1/runs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	stream, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, res.StatusCode)
	lines := strings.Split(strings.TrimSpace(string(stream)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], `"percent":100`)
	require.Contains(t, lines[2], `"type":"result"`)
	require.Contains(t, lines[2], "Found 1 unique email addresses.")

	emails, err := output.Read(out)
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"jane@acme.com"}, emails)

	status, text := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, text, "extractor_files_scanned")
}

func TestServer_InvalidMode(t *testing.T) {
	ts := newServer(t)

	body := `{"mode":"option","root":"` + t.TempDir() + `","output":"out.txt"}`
	res, err := http.Post(ts.URL+"/v1/runs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestServer_CrossSiteRunLeavesFilesAlone(t *testing.T) {
	ts := newServer(t)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("jane@acme.com"), 0o600))
	victim := filepath.Join(t.TempDir(), ".bashrc")
	require.NoError(t, os.WriteFile(victim, []byte("export PATH=$PATH:~/bin\n"), 0o600))

	body := `{"root":"` + root + `","output":"` + victim + `"}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/runs", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Origin", "http://attacker.example")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))

	raw, err := os.ReadFile(victim)
	require.NoError(t, err)
	require.Equal(t, "export PATH=$PATH:~/bin\n", string(raw))
}

func TestServer_NoCORS(t *testing.T) {
	ts := newServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/runs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://attacker.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	require.Empty(t, res.Header.Get("Access-Control-Allow-Methods"))
}
