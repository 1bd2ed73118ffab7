package ginserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/app/apperr"
	"locadz/internal/domain/user"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]user.Actor

func (s stubVerifier) Verify(raw string) (user.Actor, error) {
	actor, ok := s[raw]
	if !ok {
		return user.Actor{}, errors.New("unknown token")
	}
	return actor, nil
}

func TestStatusForKinds(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          apperr.Validation(errors.New("bad")),
		http.StatusConflict:            apperr.Conflict(errors.New("taken")),
		http.StatusUnauthorized:        apperr.Unauthorized(errors.New("who")),
		http.StatusForbidden:           apperr.Forbidden(errors.New("no")),
		http.StatusNotFound:            apperr.NotFound(errors.New("gone")),
		http.StatusServiceUnavailable:  errBusUnavailable,
		http.StatusInternalServerError: errors.New("boom"),
	}
	for status, err := range cases {
		assert.Equal(t, status, statusFor(err), err.Error())
	}
}

func TestRespondErrorHidesInternalFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, nil, errors.New("mongo: socket closed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "mongo")
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestRespondErrorExposesKind(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, nil, apperr.Conflict(errors.New("dates are not available")))

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "conflict", body["kind"])
	assert.Contains(t, body["error"], "dates are not available")
}

func TestAuthMiddlewareAttachesActor(t *testing.T) {
	verifier := stubVerifier{"good": {ID: "host-1", Role: user.RoleHost}}
	router := gin.New()
	router.Use(AuthMiddleware{Verifier: verifier}.Handle)
	router.GET("/whoami", func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": string(actor.ID), "role": string(actor.Role)})
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer good", status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK},
		{name: "unknown token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "anonymous", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":"host-1","role":"host"}`, rec.Body.String())
			}
		})
	}
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b,"))
	assert.Nil(t, splitCSV(""))
}

func TestParseIntWithDefault(t *testing.T) {
	assert.Equal(t, 20, parseIntWithDefault("", 20))
	assert.Equal(t, 20, parseIntWithDefault("-3", 20))
	assert.Equal(t, 5, parseIntWithDefault(" 5 ", 20))
}

func TestDocsAreServed(t *testing.T) {
	router := gin.New()
	registerDocs(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), openAPIPath)
	assert.NotContains(t, rec.Body.String(), "{{SPEC_URL}}")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, openAPIPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, json.Valid(rec.Body.Bytes()))
}
