package testutil

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/lineconnect/internal/shared/constants"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestRouter returns a bare engine; pass the page templates when the
// routes under test render HTML.
func NewTestRouter(templates *template.Template) *gin.Engine {
	r := gin.New()
	if templates != nil {
		r.SetHTMLTemplate(templates)
	}
	return r
}

// WithUser simulates OptionalAuth having accepted a session cookie.
func WithUser(userID uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// WithAnonymous simulates the anonymous session middleware.
func WithAnonymous(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyAnonymousID, id)
		c.Next()
	}
}

// Do performs a request without a body.
func Do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

// DoJSON performs a request with a JSON body.
func DoJSON(r http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	jsonBytes, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(jsonBytes))
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DoForm posts url-encoded form values.
func DoForm(r http.Handler, target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(constants.HeaderContentType, "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into the target struct.
func ParseResponse(w *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(w.Body.Bytes(), target)
}

// APIResponse mirrors utils.APIResponse for test assertions.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorInfo mirrors utils.ErrorInfo for test assertions.
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewMockLogger returns a no-op logger.Interface for tests.
func NewMockLogger() logger.Interface {
	return logger.NewNopLogger()
}
