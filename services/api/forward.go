package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/trezcool/olympia/core/keycase"
)

// forwardedHeaders are the request headers relayed to the backend by Forward.
var forwardedHeaders = []string{
	"Accept",
	"Accept-Language",
	"Authorization",
	"Content-Type",
	"Cookie",
	RequestIDHeader,
}

// Response is a backend response relayed as is, except for JSON bodies which are camelCased.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Forward relays a request on behalf of another client: its credentials come from header, not
// from the client's token store. JSON bodies are snake_cased on the way in and camelCased on the
// way out; any other body (multipart forms, files) passes untouched. Query parameter names are
// snake_cased. Backend error statuses are returned in the Response, not as errors.
func (c *Client) Forward(ctx context.Context, method, path string, query url.Values, header http.Header, body []byte) (*Response, error) {
	headers := make(map[string]string, len(forwardedHeaders))
	for _, key := range forwardedHeaders {
		if v := header.Get(key); v != "" {
			headers[key] = v
		}
	}

	// unlike responses, request bodies are JSON only when labelled so
	if ct := header.Get("Content-Type"); len(body) > 0 && ct != "" && isJSON(ct) {
		converted, err := keycase.SnakeJSON(body)
		if err != nil {
			return nil, &Error{Status: http.StatusBadRequest, Message: "invalid JSON body"}
		}
		body = converted
	} else if len(body) > 0 && ct == "" {
		headers["Content-Type"] = "application/octet-stream" // the transport would label it JSON
	}

	res, err := c.send(ctx, method, path, snakeQuery(query), headers, body)
	if err != nil {
		return nil, err
	}

	out := &Response{Status: res.StatusCode, Header: http.Header(res.Headers), Body: []byte(res.Body)}
	if len(out.Body) > 0 && isJSON(out.Header.Get("Content-Type")) {
		converted, err := keycase.CamelJSON(out.Body)
		if err != nil {
			c.logger.Warn(fmt.Sprintf("%s %s: relaying malformed JSON response: %v", method, path, err))
		} else {
			out.Body = converted
		}
	}
	return out, nil
}

// snakeQuery renames query parameters to snake_case; values are kept.
func snakeQuery(query url.Values) url.Values {
	if len(query) == 0 {
		return nil
	}
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	snaked := make(url.Values, len(query))
	for _, key := range keys {
		sKey := keycase.ToSnakeKey(key)
		snaked[sKey] = append(snaked[sKey], query[key]...)
	}
	return snaked
}
