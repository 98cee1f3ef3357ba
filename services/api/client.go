// Package api is the typed HTTP client of the Olympia backend.
//
// Application code works with camelCase payloads; the backend speaks snake_case. Every JSON
// request body goes through keycase.SnakeJSON right before it is sent and every JSON response
// body through keycase.CamelJSON right after it is received. Binary bodies (byte slices,
// readers, multipart forms) bypass the conversion.
//
// A Client is built once, from the shared configuration, and handed to whoever issues requests.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/olympia/core"
	"github.com/trezcool/olympia/core/candidate"
	"github.com/trezcool/olympia/core/content"
	"github.com/trezcool/olympia/core/keycase"
)

const RequestIDHeader = "X-Request-ID"

type Client struct {
	baseURL       string
	headers       map[string]string
	credentials   string
	refreshWindow time.Duration
	httpClient    *http.Client
	rest          *rest.Client
	tokens        *TokenStore
	refreshMu     sync.Mutex
	logger        core.Logger
	validate      *validator.Validate
	translator    ut.Translator

	nowFunc      func() time.Time
	newRequestID func() string
}

type Option func(c *Client)

// WithHTTPClient replaces the HTTP client; the credential mode is then up to hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCredentials overrides the configured credential mode (core.CredentialsInclude or core.CredentialsOmit).
func WithCredentials(mode string) Option {
	return func(c *Client) { c.credentials = mode }
}

// WithTokenStore shares a token store between clients.
func WithTokenStore(ts *TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

func withNowFunc(now func() time.Time) Option {
	return func(c *Client) { c.nowFunc = now }
}

func NewClient(conf *core.Config, logger core.Logger, opts ...Option) *Client {
	headers := make(map[string]string, len(conf.Client.DefaultHeaders))
	for k, v := range conf.Client.DefaultHeaders {
		headers[k] = v
	}

	validate, translator := core.NewValidator()
	candidate.InitValidators(validate, translator)
	content.InitValidators(validate, translator)

	c := &Client{
		baseURL:       strings.TrimRight(conf.Client.BaseURL, "/"),
		headers:       headers,
		credentials:   conf.Client.Credentials,
		refreshWindow: conf.Client.RefreshWindow,
		tokens:        NewTokenStore(),
		logger:        logger,
		validate:      validate,
		translator:    translator,
		nowFunc:       time.Now,
		newRequestID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: conf.Client.Timeout}
		if c.credentials == core.CredentialsInclude {
			jar, _ := cookiejar.New(nil) // never fails without options
			c.httpClient.Jar = jar
		}
	}
	c.rest = &rest.Client{HTTPClient: c.httpClient}
	return c
}

// Tokens returns the store holding the client's access token.
func (c *Client) Tokens() *TokenStore { return c.tokens }

// Validator returns the validator the client checks payloads with before sending them.
func (c *Client) Validator() (*validator.Validate, ut.Translator) {
	return c.validate, c.translator
}

// Do sends a request to path (relative to the base URL) and decodes the response into out.
//
// in may be nil, a []byte, json.RawMessage or io.Reader (sent as is), a *Multipart, or any
// value json.Marshal accepts (sent as snake_case JSON). out may be nil, a *[]byte (raw body)
// or any value json.Unmarshal accepts (filled from the camelCase JSON body).
// Non-2xx responses return an *Error, or a *core.ValidationError for field errors.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	return c.do(ctx, method, path, query, in, out, authAuto)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Upload posts a multipart form; its field names are sent unconverted.
func (c *Client) Upload(ctx context.Context, path string, form *Multipart, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, form, out)
}

type authMode int

const (
	authAuto    authMode = iota // bearer token, refreshed when about to expire
	authCurrent                 // bearer token as is
	authNone
)

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}, auth authMode) error {
	body, contentType, err := encodeBody(in)
	if err != nil {
		return err
	}

	headers := make(map[string]string, 2)
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	switch auth {
	case authAuto:
		c.refreshIfExpiring(ctx)
		fallthrough
	case authCurrent:
		if token := c.tokens.Token(); token != "" {
			headers["Authorization"] = "Bearer " + token
		}
	}

	res, err := c.send(ctx, method, path, query, headers, body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return newError(res)
	}
	return decodeBody(res, out)
}

// send performs the request; only transport failures are returned as errors.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, headers map[string]string, body []byte) (*rest.Response, error) {
	reqHeaders := make(map[string]string, len(c.headers)+len(headers)+1)
	for k, v := range c.headers {
		reqHeaders[k] = v
	}
	for k, v := range headers {
		reqHeaders[k] = v
	}
	if reqHeaders[RequestIDHeader] == "" {
		reqHeaders[RequestIDHeader] = c.newRequestID()
	}

	req := rest.Request{
		Method:  rest.Method(method),
		BaseURL: c.url(path, query),
		Headers: reqHeaders,
		Body:    body,
	}
	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "%s %s", method, path)
		}
		c.logger.Error(fmt.Sprintf("%s %s: %v", method, path, err), err, c.person(), requestExtras(req))
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	if res.StatusCode >= http.StatusInternalServerError {
		c.logger.Error(fmt.Sprintf("%s %s - status: %d - body: %s", method, path, res.StatusCode, res.Body), c.person(), requestExtras(req))
	}
	return res, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) person() core.Person {
	if claims, ok := c.tokens.Claims(); ok {
		return claims.Person()
	}
	return core.Person{}
}

func requestExtras(req rest.Request) map[string]interface{} {
	return map[string]interface{}{
		"method":    string(req.Method),
		"url":       req.BaseURL,
		"requestId": req.Headers[RequestIDHeader],
	}
}

// encodeBody returns the wire body of `in` and its content type ("" leaves the default).
func encodeBody(in interface{}) ([]byte, string, error) {
	switch v := in.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "", nil
	case json.RawMessage:
		return v, "", nil
	case *Multipart:
		return v.Encode()
	case io.Reader:
		body, err := io.ReadAll(v)
		return body, "", errors.Wrap(err, "reading request body")
	}

	data, err := json.Marshal(in)
	if err != nil {
		return nil, "", errors.Wrap(err, "encoding request body")
	}
	data, err = keycase.SnakeJSON(data)
	if err != nil {
		return nil, "", errors.Wrap(err, "converting request keys")
	}
	return data, "application/json", nil
}

func decodeBody(res *rest.Response, out interface{}) error {
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = []byte(res.Body)
		return nil
	}
	if strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if ct := http.Header(res.Headers).Get("Content-Type"); !isJSON(ct) {
		return errors.Errorf("unexpected response content type %q", ct)
	}

	data, err := keycase.CamelJSON([]byte(res.Body))
	if err != nil {
		return errors.Wrap(err, "converting response keys")
	}
	return errors.Wrap(json.Unmarshal(data, out), "decoding response body")
}

// isJSON reports whether contentType is JSON; a missing content type is assumed to be.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
