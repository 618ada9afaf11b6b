package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorCode verifies a structured error response.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedStatus int, expectedCode string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedCode, body.Error.Code, "unexpected error code")
	assert.NotEmpty(t, body.Error.Message, "error message should be set")
}

// AssertPairingError checks err carries the given pairing code.
func AssertPairingError(t *testing.T, err error, expected *domain.PairingError) {
	t.Helper()

	require.Error(t, err)
	assert.ErrorIs(t, err, expected, "expected %s, got %v", expected.Code, err)
}

// AssertNoHandshakeState checks a couple row carries no entered keys.
func AssertNoHandshakeState(t *testing.T, couple *domain.Couple) {
	t.Helper()
	assert.Nil(t, couple.User1EnteredKey, "user1 entered key should be cleared on couple %d", couple.ID)
	assert.Nil(t, couple.User2EnteredKey, "user2 entered key should be cleared on couple %d", couple.ID)
}
