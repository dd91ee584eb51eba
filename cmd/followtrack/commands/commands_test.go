package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FranksOps/followtrack/internal/config"
	"github.com/FranksOps/followtrack/internal/storage/jsonbackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nitterServer(t *testing.T, followers map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, ok := followers[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body><ul class="profile-statlist">
<li class="followers"><span class="profile-stat-header">Followers</span><span class="profile-stat-num">%s</span></li>
</ul></body></html>`, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, nitterURL string, handles ...string) *config.Config {
	t.Helper()
	return &config.Config{
		Handles:         handles,
		HistoryBackend:  config.BackendJSON,
		HistoryPath:     filepath.Join(t.TempDir(), "follower_data.json"),
		Publisher:       "stdout",
		NitterInstances: []string{nitterURL},
		Fingerprint:     "go",
		MetricsTextfile: filepath.Join(t.TempDir(), "followtrack.prom"),
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

func TestTrack_StdoutPublisher(t *testing.T) {
	srv := nitterServer(t, map[string]string{"jack": "6,512,345"})
	c := testConfig(t, srv.URL, "jack")
	require.NoError(t, c.Validate())

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, track(context.Background(), c, logger, &out))

	assert.Contains(t, out.String(), "@jack")
	assert.Contains(t, out.String(), "6,512,345")
	assert.Contains(t, out.String(), "(First tracking)")

	b, err := jsonbackend.New(c.HistoryPath)
	require.NoError(t, err)
	doc, err := b.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, doc["jack"], 1)
	assert.Equal(t, int64(6_512_345), doc["jack"][0].FollowersCount)

	prom, err := os.ReadFile(c.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `followtrack_followers{handle="jack"} 6.512345e+06`)
}

func TestTrack_FailedHandleFailsRun(t *testing.T) {
	srv := nitterServer(t, map[string]string{"jack": "6,512,345"})
	c := testConfig(t, srv.URL, "jack", "ghost")

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := track(context.Background(), c, logger, &out)
	assert.True(t, errors.Is(err, errRunFailed), "got %v", err)
	assert.Contains(t, out.String(), "@jack", "healthy handles are still published")
}

func TestTrack_MissingCredentialsStillSavesHistory(t *testing.T) {
	srv := nitterServer(t, map[string]string{"jack": "150,000"})
	c := testConfig(t, srv.URL, "jack")
	c.Publisher = "x"
	c.XAPIURL = "https://api.x.com"

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := track(context.Background(), c, logger, &out)
	require.ErrorIs(t, err, errRunFailed)
	assert.Contains(t, out.String(), "Post to publish:", "non-stdout publishers get a preview")

	_, statErr := os.Stat(c.HistoryPath)
	assert.NoError(t, statErr, "history must be saved even though publishing failed")
}

func TestTrack_UnopenableHistoryStillPublishes(t *testing.T) {
	srv := nitterServer(t, map[string]string{"jack": "6,512,345"})
	c := testConfig(t, srv.URL, "jack")
	c.HistoryBackend = config.BackendSQLite
	c.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(c.HistoryPath, bytes.Repeat([]byte("not a database "), 600), 0o644))

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, track(context.Background(), c, logger, &out), "a failed save only costs durability")

	assert.Contains(t, out.String(), "@jack")
	assert.Contains(t, out.String(), "(First tracking)")
}

func TestParseCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"parse", "1.5M"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil); rootCmd.SetErr(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "1500000 (1,500,000)")
	assert.Contains(t, out.String(), "structural range: plausible")
	assert.Contains(t, out.String(), "generic range:    plausible")
}

func TestHistoryCommand(t *testing.T) {
	srv := nitterServer(t, map[string]string{"jack": "6,512,345"})
	c := testConfig(t, srv.URL, "jack")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, track(context.Background(), c, logger, io.Discard))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"history", "--history", c.HistoryPath, "--format", "csv", "@jack"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil); rootCmd.SetErr(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "jack,1,"), lines[1])
}
