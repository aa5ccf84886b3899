package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorResponseBody(t *testing.T, status int, err error) map[string]interface{} {
	t.Helper()

	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		return ErrorResponse(c, status, "something went wrong", err)
	})

	resp, reqErr := app.Test(httptest.NewRequest("GET", "/t", nil))
	require.NoError(t, reqErr)
	require.Equal(t, status, resp.StatusCode)

	raw, reqErr := io.ReadAll(resp.Body)
	require.NoError(t, reqErr)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestErrorResponseEchoesClientErrorDetails(t *testing.T) {
	body := errorResponseBody(t, fiber.StatusBadRequest, errors.New("last_name is required"))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "something went wrong", body["error"])
	assert.Equal(t, "last_name is required", body["details"])
}

func TestErrorResponseHidesInternalDetails(t *testing.T) {
	body := errorResponseBody(t, fiber.StatusInternalServerError, errors.New("pq: connection refused"))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "something went wrong", body["error"])
	_, leaked := body["details"]
	assert.False(t, leaked, "internal error detail must not reach the client")
}
