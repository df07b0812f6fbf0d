package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mjpegview/pkg/secret"
)

const payload = "\xff\xd8frame\xff\xd9"

func newCamera(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newCamera(t)

	t.Run("authorized", func(t *testing.T) {
		p, err := New(srv.URL, "admin", secret.New("hunter2"))
		require.NoError(t, err)
		stream, err := p.OpenStream(ctx)
		require.NoError(t, err)
		defer stream.Close()
		b, err := io.ReadAll(stream)
		require.NoError(t, err)
		assert.Equal(t, payload, string(b))
	})

	t.Run("unauthorized", func(t *testing.T) {
		p := &HTTP{URL: srv.URL, Username: "admin", Password: secret.New("wrong")}
		_, err := p.OpenStream(ctx)
		var statusErr ErrUnexpectedStatus
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	})

	t.Run("no credentials", func(t *testing.T) {
		p := &HTTP{URL: srv.URL}
		_, err := p.OpenStream(ctx)
		require.Error(t, err)
	})
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "capture.mjpeg")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	for _, addr := range []string{path, "file://" + path} {
		p, err := New(addr, "", secret.String{})
		require.NoError(t, err)
		require.IsType(t, File{}, p)
		stream, err := p.OpenStream(ctx)
		require.NoError(t, err)
		b, err := io.ReadAll(stream)
		require.NoError(t, err)
		require.NoError(t, stream.Close())
		assert.Equal(t, payload, string(b))
	}

	_, err := File{Path: filepath.Join(t.TempDir(), "missing")}.OpenStream(ctx)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewUnsupportedScheme(t *testing.T) {
	_, err := New("rtsp://camera/stream", "", secret.String{})
	require.Error(t, err)
}
