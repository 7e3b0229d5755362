package rpc

import (
	"errors"
	"net/http"
)

// CookieSetter is optionally implemented by response types to set cookies.
type CookieSetter interface {
	Cookies() []*http.Cookie
}

// HeaderSetter is optionally implemented by response types to set response headers.
type HeaderSetter interface {
	SetHeaders(h http.Header)
}

// writeResponse encodes resp as JSON through the observer. Cookies and
// headers are applied before the status; a StatusCoder response overrides
// the default status.
func writeResponse(res *Response, resp any, defaultStatus int) {
	if cs, ok := resp.(CookieSetter); ok {
		for _, c := range cs.Cookies() {
			http.SetCookie(res, c)
		}
	}
	if hs, ok := resp.(HeaderSetter); ok {
		hs.SetHeaders(res.Header())
	}

	status := defaultStatus
	if sc, ok := resp.(StatusCoder); ok {
		status = sc.StatusCode()
	}

	//nolint:errcheck,gosec // best-effort after WriteHeader
	res.Status(status).JSON(resp)
}

// writeErrorResponse writes an error as an RFC 9457 problem details response.
func writeErrorResponse(w http.ResponseWriter, err error) {
	res := Observe(w)
	res.ContentType("application/problem+json")

	var pd *ProblemDetail
	if errors.As(err, &pd) {
		//nolint:errcheck,gosec // best-effort after WriteHeader
		res.Status(pd.Status).JSON(pd)
		return
	}

	status := ErrorStatus(err)
	problem := &ProblemDetail{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: err.Error(),
	}
	//nolint:errcheck,gosec // best-effort after WriteHeader
	res.Status(status).JSON(problem)
}
