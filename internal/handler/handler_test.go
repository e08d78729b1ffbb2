package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/pl974/dealchain/internal/middleware"
)

const (
	testSecret    = "handler-test-secret"
	testIssuer    = "dealchain"
	testAuthority = "merchant-authority"
	testUser      = "buyer-1"
)

// newAuthedApp returns an app whose routes sit behind Authenticate.
func newAuthedApp() (*fiber.App, fiber.Router) {
	app := fiber.New()
	api := app.Group("/api", middleware.Authenticate(testSecret, testIssuer))
	return app, api
}

func tokenFor(t *testing.T, subject, role string) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, testIssuer, subject, role, time.Hour)
	require.NoError(t, err)
	return token
}

type response struct {
	Status int
	Body   []byte
}

// decode unmarshals the response body into a map.
func (r response) decode(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &out))
	return out
}

func call(t *testing.T, app *fiber.App, method, path, subject, body string) response {
	t.Helper()
	return callWithRole(t, app, method, path, subject, "", body)
}

func callWithRole(t *testing.T, app *fiber.App, method, path, subject, role, body string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, subject, role))
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{Status: resp.StatusCode, Body: data}
}
