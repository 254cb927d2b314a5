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

	"vaultflow/internal/issuance/models"
	"vaultflow/internal/platform/gateway"
	dErrors "vaultflow/pkg/domain-errors"
)

func TestStart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cis/v1/project-1/issuance/start", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TX_CODE", body["claimMode"])
		assert.Equal(t, "did:key:z6Mk", body["holderDid"])
		data := body["data"].([]any)
		require.Len(t, data, 1)
		entry := data[0].(map[string]any)
		assert.Equal(t, "WebinarRegistrationSchema", entry["credentialTypeId"])
		assert.Equal(t, map[string]any{"name": "Ada"}, entry["credentialData"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"credentialOfferUri":"https://issuer.example/offers/1","txCode":"1234","expiresIn":600,"issuanceId":"iss-1"}`))
	}))
	defer server.Close()

	c := New(gateway.New("issuance", server.URL, time.Second), "project-1")
	offer, err := c.Start(context.Background(), models.StartInput{
		CredentialTypeID: "WebinarRegistrationSchema",
		HolderDID:        "did:key:z6Mk",
		CredentialData:   map[string]any{"name": "Ada"},
	})

	require.NoError(t, err)
	assert.Equal(t, "https://issuer.example/offers/1", offer.CredentialOfferURI)
	assert.Equal(t, "1234", offer.TxCode)
	assert.Equal(t, 600, offer.ExpiresIn)
	assert.Equal(t, "iss-1", offer.IssuanceID)
	assert.Empty(t, offer.ClaimURL)
}

func TestStartRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"name":"InvalidParameterError","message":"Invalid parameter","details":[{"issue":"credentialData.email is required"}]}`))
	}))
	defer server.Close()

	c := New(gateway.New("issuance", server.URL, time.Second), "project-1")
	_, err := c.Start(context.Background(), models.StartInput{CredentialTypeID: "X", HolderDID: "did:key:z"})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	assert.Equal(t, "Invalid parameter: credentialData.email is required", err.Error())
}

func TestStartEmptyOffer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"issuanceId":"iss-1"}`))
	}))
	defer server.Close()

	c := New(gateway.New("issuance", server.URL, time.Second), "project-1")
	_, err := c.Start(context.Background(), models.StartInput{CredentialTypeID: "X", HolderDID: "did:key:z"})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
