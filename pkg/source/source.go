// Package source opens the byte streams a player reads frames from.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mjpegview/pkg/secret"
	"github.com/xaionaro-go/mjpegview/pkg/streamplayer"
)

// HTTP is a camera that serves a multipart stream over HTTP, optionally
// behind basic authentication.
type HTTP struct {
	URL      string
	Username string
	Password secret.String
	Client   *http.Client
}

var _ streamplayer.Producer = (*HTTP)(nil)

func (s *HTTP) OpenStream(ctx context.Context) (_ret io.ReadCloser, _err error) {
	logger.Debugf(ctx, "OpenStream: %s", s.URL)
	defer func() { logger.Debugf(ctx, "/OpenStream: %s: %v", s.URL, _err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build a request to '%s': %w", s.URL, err)
	}
	if s.Username != "" || !s.Password.IsZero() {
		req.SetBasicAuth(s.Username, s.Password.Get())
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to request '%s': %w", s.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, ErrUnexpectedStatus{StatusCode: resp.StatusCode}
	}
	logger.Debugf(ctx, "content type: '%s'", resp.Header.Get("Content-Type"))
	return resp.Body, nil
}

type ErrUnexpectedStatus struct {
	StatusCode int
}

func (e ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// File replays a stream captured to a file.
type File struct {
	Path string
}

var _ streamplayer.Producer = File{}

func (s File) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	logger.Debugf(ctx, "OpenStream: %s", s.Path)
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open '%s': %w", s.Path, err)
	}
	return f, nil
}

// New chooses the producer by the scheme of the address: http(s) URLs are
// cameras, anything else is a file path.
func New(
	addr string,
	username string,
	password secret.String,
) (streamplayer.Producer, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse '%s': %w", addr, err)
	}
	switch u.Scheme {
	case "http", "https":
		return &HTTP{
			URL:      addr,
			Username: username,
			Password: password,
		}, nil
	case "file":
		return File{Path: u.Path}, nil
	case "":
		return File{Path: addr}, nil
	default:
		return nil, fmt.Errorf("unsupported scheme '%s'", u.Scheme)
	}
}
