package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

// Listener serves one connection at a time, one request per connection.
type Listener struct {
	Handler     http.Handler
	ReadTimeout time.Duration
	Logger      *log.Logger
}

// Serve accepts connections until stop is closed or ctx is cancelled, then closes ln.
//
// It returns nil after stop and ctx.Err() after cancellation.
func (l *Listener) Serve(ctx context.Context, ln net.Listener, stop <-chan struct{}) error {
	logger := l.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	finished := make(chan struct{})
	defer close(finished)
	defer ln.Close()

	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		case <-finished:
		}
		ln.Close()
	}()

	for {
		if done, err := stopped(ctx, stop); done {
			return err
		}

		conn, err := ln.Accept()
		if err != nil {
			if done, stopErr := stopped(ctx, stop); done {
				return stopErr
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Warn("accept timeout", "error", err)
				continue
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		l.handle(ctx, conn, logger)
	}
}

func stopped(ctx context.Context, stop <-chan struct{}) (bool, error) {
	select {
	case <-stop:
		return true, nil
	case <-ctx.Done():
		return true, ctx.Err()
	default:
		return false, nil
	}
}

// handle reads one request from conn, answers it and closes conn.
func (l *Listener) handle(ctx context.Context, conn net.Conn, logger *log.Logger) {
	defer conn.Close()

	if l.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(l.ReadTimeout))
	}

	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		logger.Debug("malformed request", "remote", conn.RemoteAddr(), "error", err)
		writeStatus(conn, http.StatusBadRequest)
		return
	}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			logger.Debug("failed to read request body", "remote", conn.RemoteAddr(), "error", err)
			writeStatus(conn, http.StatusBadRequest)
			return
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	req.RemoteAddr = conn.RemoteAddr().String()
	req = req.WithContext(ctx)

	rw := newResponseBuffer()
	if err := serveRecovered(l.Handler, rw, req); err != nil {
		logger.Error("handler panic", "path", req.URL.Path, "error", err)
		rw = newResponseBuffer()
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	if err := rw.response(req).Write(conn); err != nil {
		logger.Debug("failed to write response", "remote", conn.RemoteAddr(), "error", err)
	}
}

func serveRecovered(h http.Handler, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%v", v)
		}
	}()
	h.ServeHTTP(w, r)
	return nil
}

func writeStatus(w io.Writer, code int) {
	rw := newResponseBuffer()
	http.Error(rw, http.StatusText(code), code)
	rw.response(nil).Write(w)
}

// responseBuffer is an [http.ResponseWriter] that holds the whole response in memory.
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header)}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// response builds an HTTP/1.0 response that closes the connection.
func (b *responseBuffer) response(req *http.Request) *http.Response {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}

	header := b.header.Clone()
	header.Set("Connection", "close")
	header.Set("Content-Length", strconv.Itoa(b.body.Len()))
	if header.Get("Content-Type") == "" && b.body.Len() > 0 {
		header.Set("Content-Type", http.DetectContentType(b.body.Bytes()))
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.0",
		ProtoMajor:    1,
		ProtoMinor:    0,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(b.body.Bytes())),
		ContentLength: int64(b.body.Len()),
		Close:         true,
		Request:       req,
	}
}
