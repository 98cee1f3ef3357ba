package echogw

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/olympia/core"
	"github.com/trezcool/olympia/services/api"
	"github.com/trezcool/olympia/tests"
)

func setup(t *testing.T, backend http.HandlerFunc) (*Server, *testutil.Logger) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return newTestServer(srv.URL + "/api")
}

func newTestServer(baseURL string) (*Server, *testutil.Logger) {
	conf := testutil.NewConfig(baseURL)
	logger := new(testutil.Logger)
	client := api.NewClient(conf, logger, api.WithCredentials(core.CredentialsOmit))
	return NewServer(ServerDeps{Conf: conf, Logger: logger, Client: client}), logger
}

func serve(s *Server, method, path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for key, vals := range header {
		req.Header[key] = vals
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func jsonHeader() http.Header {
	return http.Header{"Content-Type": {"application/json"}}
}

func TestHomeAndHealth(t *testing.T) {
	s, _ := newTestServer("http://localhost:1/api")

	rec := serve(s, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Olympia gateway!", rec.Body.String())

	rec = serve(s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "build": "test"}`, rec.Body.String())
}

func TestProxy(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		backend     func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantCode    int
		wantBody    string
		wantRawBody string
	}{
		{
			name:   "camelCase both ways",
			method: http.MethodPost,
			path:   "/api/candidates?birthDate=2010",
			body:   `{"firstName": "Ada", "galleryImages": [{"imageUrl": "y.png", "order": 0}]}`,
			backend: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				data, _ := io.ReadAll(r.Body)
				assert.Equal(t, "/api/candidates", r.URL.Path)
				assert.Equal(t, "birth_date=2010", r.URL.RawQuery)
				assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
				assert.JSONEq(t, `{"first_name": "Ada", "gallery_images": [{"image_url": "y.png", "order": 0}]}`, string(data))

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Total-Count", "1")
				w.WriteHeader(http.StatusCreated)
				_, _ = io.WriteString(w, `{"id": "c1", "first_name": "Ada", "photo_url": null}`)
			},
			wantCode: http.StatusCreated,
			wantBody: `{"id": "c1", "firstName": "Ada", "photoUrl": null}`,
		},
		{
			name:   "field errors relayed",
			method: http.MethodPut,
			path:   "/api/articles/a1",
			body:   `{"title": ""}`,
			backend: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"gallery_images": [{"image_url": "this field is required"}]}`)
			},
			wantCode: http.StatusBadRequest,
			wantBody: `{"galleryImages": [{"imageUrl": "this field is required"}]}`,
		},
		{
			name:   "no content",
			method: http.MethodDelete,
			path:   "/api/articles/a1",
			backend: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			wantCode: http.StatusNoContent,
		},
		{
			name:   "non JSON passthrough",
			method: http.MethodGet,
			path:   "/api/candidates/c1/photo",
			backend: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				_, _ = w.Write([]byte("\x89PNG first_name"))
			},
			wantCode:    http.StatusOK,
			wantRawBody: "\x89PNG first_name",
		},
		{
			name:   "invalid JSON body",
			method: http.MethodPost,
			path:   "/api/candidates",
			body:   `{"firstName":`,
			backend: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				t.Error("backend should not be called")
			},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "invalid JSON body"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setup(t, func(w http.ResponseWriter, r *http.Request) { tt.backend(t, w, r) })

			rec := serve(s, tt.method, tt.path, []byte(tt.body), jsonHeader())
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			switch {
			case tt.wantBody != "":
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			case tt.wantRawBody != "":
				assert.Equal(t, tt.wantRawBody, rec.Body.String())
			default:
				assert.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestProxy_BodyWithoutContentType(t *testing.T) {
	photo := []byte{0x89, 'P', 'N', 'G', '{', '"'}
	s, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, photo, data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"photo_url": "/media/1.png"}`)
	})

	rec := serve(s, http.MethodPut, "/api/candidates/c1/photo", photo, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"photoUrl": "/media/1.png"}`, rec.Body.String())
}

func TestProxy_RelaysHeaders(t *testing.T) {
	s, _ := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "fr", r.Header.Get("Accept-Language"))
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "xyz"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	})

	header := jsonHeader()
	header.Set("Authorization", "Bearer abc")
	header.Set("Accept-Language", "fr")
	rec := serve(s, http.MethodGet, "/api/qcm/sessions", nil, header)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "sessionid=xyz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestProxy_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL + "/api"
	srv.Close()

	s, logger := newTestServer(baseURL)
	rec := serve(s, http.MethodGet, "/api/qcm/sessions", nil, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error": "backend unavailable"}`, rec.Body.String())
	assert.NotEmpty(t, logger.Entries())
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer("http://localhost:1/api")

	header := http.Header{
		"Origin":                        {"http://localhost:3000"},
		"Access-Control-Request-Method": {http.MethodPost},
	}
	rec := serve(s, http.MethodOptions, "/api/candidates", nil, header)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer("http://localhost:1/api")
	serve(s, http.MethodGet, "/health", nil, nil)

	rec := serve(s, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `olympia_gateway_requests_total{code="200",method="GET",route="/health"} 1`), body)
	assert.Contains(t, body, "olympia_gateway_request_duration_seconds")
}
