package cmds

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStructured(t *testing.T) {
	cmd := &cobra.Command{}
	addOutputFlag(cmd)
	v := map[string]int{"a": 1}

	var buf bytes.Buffer
	ok, err := writeStructured(cmd, &buf, v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, buf.String())

	require.NoError(t, cmd.Flags().Set("output", "yaml"))
	ok, err = writeStructured(cmd, &buf, v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a: 1\n", buf.String())

	buf.Reset()
	require.NoError(t, cmd.Flags().Set("output", "json"))
	_, err = writeStructured(cmd, &buf, v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, buf.String())

	require.NoError(t, cmd.Flags().Set("output", "xml"))
	ok, err = writeStructured(cmd, &buf, v)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestNotifiers(t *testing.T) {
	var buf bytes.Buffer
	p := newPrintNotifier(&buf)
	assert.Equal(t, uint64(1), p.ShowError("Failed to load sessions: boom"))
	assert.Equal(t, uint64(2), p.ShowInfo("hello"))
	assert.Contains(t, buf.String(), "Failed to load sessions: boom")

	buf.Reset()
	q := quietNotifier{p}
	q.ShowSuccess("Sessions loaded successfully")
	q.ShowInfo("hi")
	assert.Empty(t, buf.String())
	q.ShowError("bad")
	assert.Contains(t, buf.String(), "bad")
}

func TestTypeOut(t *testing.T) {
	var buf bytes.Buffer
	typeOut(context.Background(), &buf, "héllo", time.Millisecond)
	assert.Equal(t, "héllo\n", buf.String())
}

func TestPrintReplyPlain(t *testing.T) {
	var buf strings.Builder
	printReply(&buf, "# not rendered off a terminal", false)
	assert.Equal(t, "# not rendered off a terminal\n", buf.String())
}

func TestSessionsDeleteGoesThroughEngine(t *testing.T) {
	var status atomic.Int32
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/sessions/s1", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	viper.Set("backend-url", srv.URL)
	viper.Set("probe-interval", 0)
	defer viper.Reset()

	run := func() error {
		cmd := newSessionsDeleteCommand()
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		cmd.SetArgs([]string{"s1", "--yes"})
		return cmd.ExecuteContext(context.Background())
	}

	status.Store(http.StatusNoContent)
	require.NoError(t, run())

	// a session the backend no longer knows counts as deleted
	status.Store(http.StatusNotFound)
	require.NoError(t, run())

	status.Store(http.StatusUnauthorized)
	require.Error(t, run())
	assert.Equal(t, int32(3), calls.Load())
}
