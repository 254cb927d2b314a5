package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultflow/internal/presentation/cycle"
	id "vaultflow/pkg/domain"
	dErrors "vaultflow/pkg/domain-errors"
)

func TestSubjectUnmarshal(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    Subject
		wantErr bool
	}{
		{name: "object", raw: `{"a":"b"}`, want: Subject{"a": "b"}},
		{name: "array takes first", raw: `[{"a":"b"},{"c":"d"}]`, want: Subject{"a": "b"}},
		{name: "empty array", raw: `[]`, want: nil},
		{name: "null", raw: `null`, want: nil},
		{name: "string", raw: `"nope"`, wantErr: true},
		{name: "array of scalars", raw: `[1,2]`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s Subject
			err := json.Unmarshal([]byte(tc.raw), &s)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, s)
		})
	}
}

func TestCycleSnapshotFlags(t *testing.T) {
	now := time.Date(2024, 4, 25, 10, 0, 0, 0, time.UTC)
	c := &Cycle{
		SessionID:          id.NewSessionID(),
		DefinitionID:       "userProfile",
		State:              cycle.StateIdle,
		ExtensionInstalled: true,
	}

	snap := c.Snapshot()
	assert.False(t, snap.IsInitializing)
	assert.False(t, snap.IsLoading)
	assert.True(t, snap.IsExtensionInstalled)

	require.NoError(t, c.Apply(cycle.EventInitiate, now))
	assert.True(t, c.Snapshot().IsInitializing)
	assert.Equal(t, now, c.UpdatedAt)

	require.NoError(t, c.Apply(cycle.EventTokenReceived, now))
	snap = c.Snapshot()
	assert.False(t, snap.IsInitializing)
	assert.True(t, snap.IsLoading)
	assert.Equal(t, "awaiting_verification", snap.State)

	require.NoError(t, c.Fail(cycle.EventVerificationFailed, "invalid_vp_token", "signature mismatch", now))
	snap = c.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.Equal(t, "invalid_vp_token", snap.Error)
	assert.Equal(t, "signature mismatch", snap.ErrorDescription)
}

func TestCycleFailRejectsInvalidTransition(t *testing.T) {
	c := &Cycle{State: cycle.StateIdle}
	err := c.Fail(cycle.EventWalletFailed, "access_denied", "", time.Now())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	assert.Empty(t, c.Error)
	assert.Equal(t, cycle.StateIdle, c.State)
}
