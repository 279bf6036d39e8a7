package dispatchhandlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/hermod/dispatch"
)

func newTestRouter(t testing.TB, mw dispatch.Middleware, handler http.HandlerFunc) *dispatch.CompiledRouter {
	t.Helper()

	r := dispatch.NewRouter()
	r.Use(mw)
	r.Get("/test", handler)

	cr, err := r.Compile()
	require.NoError(t, err)
	return cr
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers panic and returns 500", func(t *testing.T) {
		cr := newTestRouter(t, RecoveryMiddleware(RecoveryConfig{}),
			func(_ http.ResponseWriter, _ *http.Request) {
				panic("boom")
			})

		w := httptest.NewRecorder()
		cr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), http.StatusText(http.StatusInternalServerError))
	})

	t.Run("invokes LogFunc with the recovered value", func(t *testing.T) {
		var gotErr any
		var gotPath string

		cr := newTestRouter(t, RecoveryMiddleware(RecoveryConfig{
			LogFunc: func(r *http.Request, err any) {
				gotErr = err
				gotPath = r.URL.Path
			},
		}), func(_ http.ResponseWriter, _ *http.Request) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		cr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "boom", gotErr)
		assert.Equal(t, "/test", gotPath)
	})

	t.Run("recovers a non-string panic value", func(t *testing.T) {
		var gotErr any

		cr := newTestRouter(t, RecoveryMiddleware(RecoveryConfig{
			LogFunc: func(_ *http.Request, err any) { gotErr = err },
		}), func(_ http.ResponseWriter, _ *http.Request) {
			panic(fmt.Errorf("kaput"))
		})

		w := httptest.NewRecorder()
		cr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		require.IsType(t, fmt.Errorf(""), gotErr)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("passes normal requests through", func(t *testing.T) {
		called := false

		cr := newTestRouter(t, RecoveryMiddleware(RecoveryConfig{
			LogFunc: func(_ *http.Request, _ any) { called = true },
		}), func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		w := httptest.NewRecorder()
		cr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, called)
	})

	t.Run("re-raises http.ErrAbortHandler", func(t *testing.T) {
		cr := newTestRouter(t, RecoveryMiddleware(RecoveryConfig{}),
			func(_ http.ResponseWriter, _ *http.Request) {
				panic(http.ErrAbortHandler)
			})

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			cr.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
		})
	})
}
