package echogw

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/olympia/services/api"
)

// skippedResponseHeaders are set by the gateway itself, not relayed from the backend.
var skippedResponseHeaders = map[string]bool{
	"Connection":                             true,
	"Content-Length":                         true,
	"Content-Type":                           true,
	"Date":                                   true,
	"Keep-Alive":                             true,
	"Transfer-Encoding":                      true,
	"X-Request-Id":                           true,
	echo.HeaderAccessControlAllowOrigin:      true,
	echo.HeaderAccessControlAllowCredentials: true,
	echo.HeaderAccessControlExposeHeaders:    true,
}

// proxy relays `/api/*` to the backend, camelCasing JSON both ways.
func (s *Server) proxy(ctx echo.Context) error {
	req := ctx.Request()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}

	header := req.Header.Clone()
	if header.Get(echo.HeaderXRequestID) == "" {
		header.Set(echo.HeaderXRequestID, ctx.Response().Header().Get(echo.HeaderXRequestID))
	}

	res, err := s.deps.Client.Forward(req.Context(), req.Method, ctx.Param("*"), req.URL.Query(), header, body)
	if err != nil {
		if _, ok := api.AsError(err); ok {
			return err
		}
		s.deps.Logger.Error(fmt.Sprintf("forwarding %s %s: %v", req.Method, req.URL.Path, err), err, requestPerson(ctx))
		return echo.NewHTTPError(http.StatusBadGateway, "backend unavailable").SetInternal(err)
	}

	for key, vals := range res.Header {
		if skippedResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range vals {
			ctx.Response().Header().Add(key, v)
		}
	}
	if len(res.Body) == 0 {
		return ctx.NoContent(res.Status)
	}
	contentType := res.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return ctx.Blob(res.Status, contentType, res.Body)
}
