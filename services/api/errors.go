package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/olympia/core"
	"github.com/trezcool/olympia/core/keycase"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
	Body    string // raw response body
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// newError builds the error of a non-2xx response. The backend reports failures as
// `{"error": msg}` (or `{"detail": msg}`); bad requests may instead map fields to messages,
// which are returned as a *core.ValidationError with camelCase field names.
func newError(res *rest.Response) error {
	apiErr := &Error{Status: res.StatusCode, Body: res.Body}

	var payload map[string]interface{}
	if data, err := keycase.CamelJSON([]byte(res.Body)); err == nil {
		_ = json.Unmarshal(data, &payload)
	}
	for _, key := range []string{"error", "detail", "message"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			apiErr.Message = msg
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(res.StatusCode))
	}

	if res.StatusCode == http.StatusBadRequest {
		fldErrs := make(map[string]string)
		for key, val := range payload {
			switch key {
			case "error", "detail", "message":
				continue
			}
			flattenFieldErrors(key, val, fldErrs)
		}
		if len(fldErrs) > 0 {
			return core.NewValidationError(apiErr, core.FieldErrorsFromMap(fldErrs)...)
		}
	}
	return apiErr
}

// flattenFieldErrors collects messages of nested payloads, eg. `galleryImages[1].imageUrl`.
// A list of messages is joined.
func flattenFieldErrors(path string, v interface{}, fldErrs map[string]string) {
	switch val := v.(type) {
	case string:
		fldErrs[path] = val
	case []interface{}:
		var msgs []string
		for i, elem := range val {
			if msg, ok := elem.(string); ok {
				msgs = append(msgs, msg)
				continue
			}
			flattenFieldErrors(path+"["+strconv.Itoa(i)+"]", elem, fldErrs)
		}
		if len(msgs) > 0 {
			fldErrs[path] = strings.Join(msgs, " ")
		}
	case map[string]interface{}:
		for key, elem := range val {
			flattenFieldErrors(path+"."+key, elem, fldErrs)
		}
	}
}

// AsError returns the backend error behind err, if any. Both pkg/errors wrapping and
// fmt.Errorf("%w") chains are followed.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var valErr *core.ValidationError
	if errors.As(err, &valErr) {
		apiErr, ok := valErr.Err.(*Error)
		return apiErr, ok
	}
	return nil, false
}

// StatusCode returns the status of the backend response behind err, 0 if none.
func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool     { return StatusCode(err) == http.StatusNotFound }
func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return StatusCode(err) == http.StatusForbidden }
