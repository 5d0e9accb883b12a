package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EXA_API_KEY", "")

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.HTTP.RespectRobots = false
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.Store.Path = filepath.Join(t.TempDir(), "factly.db")
	return cfg
}

func TestNew_MissingKeysFailEveryCheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Enabled = false

	p, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	assert.Nil(t, p.Store())

	res := p.FactCheck(context.Background(), model.Claim{Text: "The Eiffel Tower is in Paris."})
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "OPENAI_API_KEY")
	assert.Contains(t, res.Error, "EXA_API_KEY")
}

func TestNew_RecordsHistory(t *testing.T) {
	cfg := testConfig(t)

	p, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()
	require.NotNil(t, p.Store())

	res := p.FactCheck(context.Background(), model.Claim{Text: "Water boils at 100 degrees Celsius at sea level."})

	saved, err := p.Store().Get(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, res.Claim.Text, saved.Claim.Text)
	assert.Equal(t, model.StatusFailed, saved.Status)
}

func TestNew_BadStorePath(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Store.Path = filepath.Join(blocker, "factly.db")

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestScanURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<html><head><title>Almanac</title></head><body>
<p>The Great Wall of China is more than 21,000 kilometres long according to a 2012 survey.</p>
<p>Is this the longest wall ever built?</p>
<p>Mount Everest was first summited in 1953 by Edmund Hillary and Tenzing Norgay.</p>
</body></html>`)
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Store.Enabled = false

	p, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	scan, err := p.ScanURL(context.Background(), server.URL, 5)
	require.NoError(t, err)

	assert.Equal(t, "Almanac", scan.Title)
	require.Len(t, scan.Claims, 2)
	require.Len(t, scan.Results, 2)
	for i, res := range scan.Results {
		assert.Equal(t, scan.Claims[i].Text, res.Claim.Text)
		assert.Equal(t, model.StatusFailed, res.Status)
	}
}

func TestScanURL_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.Store.Enabled = false

	p, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ScanURL(context.Background(), server.URL, 5)
	assert.Error(t, err)
}
