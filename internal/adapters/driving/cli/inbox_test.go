package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driving/inbox"
)

func TestInboxWatchCmd_Flags(t *testing.T) {
	for _, name := range []string{"rate", "once", "metrics-addr"} {
		assert.NotNil(t, inboxWatchCmd.Flags().Lookup(name), "%s flag should exist", name)
	}
}

func TestInboxWatchCmd_NoDirectory(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "", "inbox", "watch", "--once")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no inbox directory")
}

func TestInboxWatchCmd_Once(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := addRepo(t, "https://example.org/repo")
	dir := filepath.Join(env.dir, "inbox")
	require.NoError(t, os.MkdirAll(dir, 0700))
	writeFile(t, dir, fmt.Sprintf("%d-full-7.json", id), testIndex)

	_, err := execute(t, "", "inbox", "watch", "--once", "--rate", "0", dir)

	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, inbox.DoneDir, fmt.Sprintf("%d-full-7.json", id)))
	assert.NoError(t, statErr)
	app, err := catalogService.GetApp(context.Background(), chess)
	require.NoError(t, err)
	assert.NotNil(t, app)
}

func TestServeMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr := "127.0.0.1:39417"

	stop := serveMetrics(ctx, addr)
	defer stop()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics") //nolint:noctx // test
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		body = string(data)
		return err == nil && resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, "go_goroutines")
}
