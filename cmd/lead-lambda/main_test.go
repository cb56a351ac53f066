package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/agency-leads/cmd/mainconfig"
	appconfig "github.com/wolfman30/agency-leads/internal/config"
	httpmiddleware "github.com/wolfman30/agency-leads/internal/http/middleware"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

type captured struct {
	method   string
	path     string
	query    string
	body     string
	clientIP string
	ct       string
}

func captureHandler(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*c = captured{
			method:   r.Method,
			path:     r.URL.Path,
			query:    r.URL.RawQuery,
			body:     string(b),
			clientIP: httpmiddleware.ClientIP(r),
			ct:       r.Header.Get("Content-Type"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Set-Cookie", "a=1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func apiEvent(method, path, body string) events.APIGatewayV2HTTPRequest {
	evt := events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{"content-type": "application/json"},
	}
	evt.RequestContext.HTTP.Method = method
	evt.RequestContext.HTTP.SourceIP = "203.0.113.9"
	return evt
}

func TestHandleReplaysEventThroughRouter(t *testing.T) {
	var got captured
	evt := apiEvent("post", "/api/lead", `{"fullName":"Al"}`)
	evt.RawQueryString = "utm_source=x"

	resp, err := handle(context.Background(), captureHandler(&got), evt)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/lead", got.path)
	assert.Equal(t, "utm_source=x", got.query)
	assert.Equal(t, `{"fullName":"Al"}`, got.body)
	assert.Equal(t, "application/json", got.ct)
	assert.Equal(t, "203.0.113.9", got.clientIP)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["content-type"])
	assert.Equal(t, []string{"a=1"}, resp.Cookies)
	assert.JSONEq(t, `{"ok":true}`, resp.Body)
}

func TestHandleDecodesBase64Body(t *testing.T) {
	var got captured
	evt := apiEvent(http.MethodPost, "/api/send", base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)))
	evt.IsBase64Encoded = true

	_, err := handle(context.Background(), captureHandler(&got), evt)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got.body)
}

func TestHandleRejectsBadBase64(t *testing.T) {
	var got captured
	evt := apiEvent(http.MethodPost, "/api/lead", "%%%")
	evt.IsBase64Encoded = true

	resp, err := handle(context.Background(), captureHandler(&got), evt)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, got.method)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestHandleForwardedHeadersWinOverSourceIP(t *testing.T) {
	var got captured
	evt := apiEvent(http.MethodPost, "/api/lead", "{}")
	evt.Headers["X-Forwarded-For"] = "198.51.100.7, 10.0.0.1"

	_, err := handle(context.Background(), captureHandler(&got), evt)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.7", got.clientIP)
}

func TestHandleFallsBackToContextPath(t *testing.T) {
	var got captured
	evt := apiEvent(http.MethodGet, "", "")
	evt.RequestContext.HTTP.Path = "/health"

	_, err := handle(context.Background(), captureHandler(&got), evt)
	require.NoError(t, err)
	assert.Equal(t, "/health", got.path)
}

func TestResponseBufferDefaultsToOK(t *testing.T) {
	rw := newResponseBuffer()
	_, _ = rw.Write([]byte("hi"))
	rw.WriteHeader(http.StatusTeapot)

	resp := rw.toEvent()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hi", resp.Body)

	assert.Equal(t, http.StatusOK, newResponseBuffer().toEvent().StatusCode)
}

func TestHeaderValueIsCaseInsensitive(t *testing.T) {
	headers := map[string]string{"Content-Type": "text/plain"}
	assert.Equal(t, "text/plain", headerValue(headers, "content-type"))
	assert.Empty(t, headerValue(headers, "x-missing"))
}

func TestHandleSubmitsLeadThroughApp(t *testing.T) {
	app, err := mainconfig.BuildApp(context.Background(), &appconfig.Config{
		RateLimitBackend:   "memory",
		LeadCooldown:       time.Minute,
		RequestRatePerSec:  100,
		RequestBurst:       100,
		EmailProvider:      "stub",
		AdminEmail:         "admin@example.com",
		LeadStoreBackend:   "webhook",
		SinkTimeout:        time.Second,
		CORSAllowedOrigins: []string{"*"},
	}, logging.New("error"))
	require.NoError(t, err)
	defer app.Close()

	body := `{"fullName":"Al","email":"a@b.com","company":"Co","stage":"ready","needs":["seo"],"formType":"analyze"}`
	first, err := handle(context.Background(), app.Handler, apiEvent(http.MethodPost, "/api/lead", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "*", first.Headers["access-control-allow-origin"])

	var resp struct {
		Success bool `json:"success"`
		Details struct {
			Email  bool `json:"email"`
			Sheets bool `json:"sheets"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal([]byte(first.Body), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Details.Email)
	assert.False(t, resp.Details.Sheets)

	second, err := handle(context.Background(), app.Handler, apiEvent(http.MethodPost, "/api/lead", body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
