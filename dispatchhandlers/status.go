package dispatchhandlers

import (
	"net/http"

	"github.com/vitalvas/hermod/dispatch"
)

// unmatchedRoute labels requests the router resolved to no route. Using a
// fixed label keeps metric and trace cardinality bounded by the route table.
const unmatchedRoute = "unmatched"

// routePattern returns the matched route template, or unmatchedRoute for
// requests served by the fallback.
func routePattern(r *http.Request) string {
	pattern, err := dispatch.MatchedPath(r)
	if err != nil {
		return unmatchedRoute
	}
	return pattern
}

// statusResponseWriter wraps http.ResponseWriter to record the status code
// and body size of the response.
type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusResponseWriter) WriteHeader(statusCode int) {
	if !sw.wroteHeader {
		sw.status = statusCode
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *statusResponseWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += int64(n)
	return n, err
}
