package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/spotpair/internal/shared"
)

type routesHandler struct {
	routes []string
}

func (h *routesHandler) Routes() []string { return h.routes }

func (h *routesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("handled " + r.URL.Path))
}

func TestBasicRouter(t *testing.T) {
	t.Run("Unknown Path", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(&routesHandler{routes: []string{"/only"}})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewRouter(&routesHandler{routes: []string{"/"}}, mw("first"), mw("second"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("unexpected middleware order %v", order)
		}
		if rec.Body.String() != "handled /x" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

		out := buf.String()
		for _, want := range []string{"request", "GET", "/favicon.ico", "404"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in log output %q", want, out)
			}
		}
	})

	t.Run("RequestLogger Implicit OK", func(t *testing.T) {
		var buf bytes.Buffer
		h := RequestLogger(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if !strings.Contains(buf.String(), "200") {
			t.Errorf("expected 200 in log output %q", buf.String())
		}
	})

	t.Run("Recoverer", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recoverer(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("exploded")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "exploded") {
			t.Errorf("expected panic value in logs, got %q", buf.String())
		}
	})
}
