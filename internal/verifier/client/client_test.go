package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultflow/internal/platform/gateway"
	"vaultflow/internal/verifier/models"
	dErrors "vaultflow/pkg/domain-errors"
)

func sampleInput() models.VerifyInput {
	return models.VerifyInput{
		VerifiablePresentation: json.RawMessage(`{"verifiableCredential":[]}`),
		PresentationDefinition: json.RawMessage(`{"id":"webinarRegistrationVC","input_descriptors":[]}`),
		PresentationSubmission: json.RawMessage(`{"id":"s1","definition_id":"webinarRegistrationVC","descriptor_map":[]}`),
	}
}

func TestVerifyPresentation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, verifyPath, r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `{"verifiableCredential":[]}`, string(body["verifiablePresentation"]))
		assert.JSONEq(t, `{"id":"webinarRegistrationVC","input_descriptors":[]}`, string(body["presentationDefinition"]))
		assert.Contains(t, string(body["presentationSubmission"]), `"definition_id":"webinarRegistrationVC"`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isValid":false,"errors":["signature invalid","expired"]}`))
	}))
	defer server.Close()

	c := New(gateway.New("verifier", server.URL, time.Second))
	result, err := c.VerifyPresentation(context.Background(), sampleInput())

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"signature invalid", "expired"}, result.Errors)
}

func TestVerifyPresentationUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := New(gateway.New("verifier", server.URL, time.Second))
	_, err := c.VerifyPresentation(context.Background(), sampleInput())

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestDefinitionID(t *testing.T) {
	assert.Equal(t, "userProfile", definitionID(json.RawMessage(`{"id":"userProfile"}`)))
	assert.Empty(t, definitionID(json.RawMessage(`"not an object"`)))
	assert.Empty(t, definitionID(nil))
}
