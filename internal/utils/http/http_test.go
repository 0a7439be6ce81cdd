package http

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/udtalk/push-backend/internal/utils/errors"
)

/* ParseParams: */

func TestParseParamsForm(t *testing.T) {
	form := url.Values{}
	form.Set("userId", "u1")
	form.Set("talkId", "t1")
	form.Set("key", "tajny-klic")

	req, err := http.NewRequest("POST", "/registerDevice", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	params, parseErr := ParseParams(httptest.NewRecorder(), req)
	assert.NoError(t, parseErr)

	assert.Equal(t, "u1", params.Get("userId"))
	assert.Equal(t, "t1", params.Get("talkId"))
	assert.Equal(t, "tajny-klic", params.Get("key"))
}

func TestParseParamsJSON(t *testing.T) {
	body := bytes.NewBufferString(`{"userId": "u1", "talkId": "t1", "forcePublishing": "1", "badge": 3}`)

	req, err := http.NewRequest("POST", "/pushNewUtteranceNotification", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	params, parseErr := ParseParams(httptest.NewRecorder(), req)
	assert.NoError(t, parseErr)

	assert.Equal(t, "u1", params.Get("userId"))
	assert.Equal(t, "1", params.Get("forcePublishing"))
	assert.Equal(t, "3", params.Get("badge"))
	assert.Equal(t, "", params.Get("missing"))
}

func TestParseParamsBadJSON(t *testing.T) {
	body := bytes.NewBufferString(`{"userId": `)

	req, err := http.NewRequest("POST", "/registerDevice", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, parseErr := ParseParams(httptest.NewRecorder(), req)

	assert.Error(t, parseErr)
	assert.IsType(t, &errors.ValidationError{}, parseErr)
}

func TestParamsWithout(t *testing.T) {
	params := Params{"userId": "u1", "key": "tajny-klic", "model": "iPhone 8"}

	attrs := params.Without("key")

	assert.Equal(t, map[string]string{"userId": "u1", "model": "iPhone 8"}, attrs)
	// original params untouched
	assert.Equal(t, "tajny-klic", params.Get("key"))
}

func TestAPIKeyPrefersBodyOverHeader(t *testing.T) {
	req, err := http.NewRequest("POST", "/registerDevice", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Api-Key", "header-klic")

	assert.Equal(t, "body-klic", APIKey(Params{"key": "body-klic"}, req))
	assert.Equal(t, "header-klic", APIKey(Params{}, req))
}

/* Responses: */

func TestSendResult(t *testing.T) {
	req, err := http.NewRequest("POST", "/registerDevice", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	SendResult(rr, req)

	response := rr.Result()
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "application/json", response.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"result": true}`, rr.Body.String())
}

func TestSendErrorResponseValidation(t *testing.T) {
	req, err := http.NewRequest("POST", "/registerDevice", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	SendErrorResponse(rr, req, &errors.ValidationError{Msg: "userId and talkId are required"})

	assert.Equal(t, http.StatusBadRequest, rr.Result().StatusCode)
	assert.JSONEq(t, `{"traceId": "", "code": "request_error", "message": "userId and talkId are required"}`, rr.Body.String())
}

func TestSendErrorResponseAuth(t *testing.T) {
	req, err := http.NewRequest("POST", "/registerDevice", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	SendErrorResponse(rr, req, &errors.AuthError{Msg: "Invalid API key"})

	assert.Equal(t, http.StatusUnauthorized, rr.Result().StatusCode)
	assert.JSONEq(t, `{"traceId": "", "code": "invalid_api_key", "message": "Invalid API key"}`, rr.Body.String())
}

func TestSendErrorResponseTimeout(t *testing.T) {
	req, err := http.NewRequest("POST", "/pushNewUtteranceNotification", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	SendErrorResponse(rr, req, &errors.TimeoutError{Label: "apns_send", Timeout: 10 * time.Second})

	assert.Equal(t, http.StatusGatewayTimeout, rr.Result().StatusCode)
	assert.JSONEq(t, `{"traceId": "", "code": "operation_timeout", "message": "apns_send timed out after 10s"}`, rr.Body.String())
}

func TestSendErrorResponseHidesInternalDetail(t *testing.T) {
	req, err := http.NewRequest("POST", "/registerDevice", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	SendErrorResponse(rr, req, fmt.Errorf("firestore exploded: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rr.Result().StatusCode)
	assert.JSONEq(t, `{"traceId": "", "code": "server_error", "message": "Internal server error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "firestore exploded")
}

/* Middleware: */

func TestWithTraceID(t *testing.T) {
	var seenTraceID string

	handler := WithTraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTraceID = TraceID(r.Context())
		SendErrorResponse(w, r, &errors.ValidationError{Msg: "nope"})
	}))

	req, err := http.NewRequest("POST", "/registerDevice", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.NotEmpty(t, seenTraceID)
	assert.Equal(t, seenTraceID, rr.Header().Get("X-Trace-Id"))
	assert.Contains(t, rr.Body.String(), seenTraceID)
}

func TestWithRequestTimeoutCancelsContext(t *testing.T) {
	handler := WithRequestTimeout(20*time.Millisecond, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			t.Error("Request context was never cancelled")
		}
	}))

	req, err := http.NewRequest("POST", "/registerDevice", nil)
	if err != nil {
		t.Fatal(err)
	}

	handler.ServeHTTP(httptest.NewRecorder(), req)
}
