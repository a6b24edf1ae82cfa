package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/models"
)

var testAllowedModels = []string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-2.5-pro"}

func newSettingsFlowFixture() (SettingsFlow, *fakeSettingsRepo, *fakeAuditRepo) {
	settings := newFakeSettingsRepo()
	audits := newFakeAuditRepo()
	flow := NewSettingsFlow(settings, audits, nil, testAllowedModels, "gemini-2.0-flash")
	return flow, settings, audits
}

func TestActiveModelDefault(t *testing.T) {
	flow, _, _ := newSettingsFlowFixture()
	assert.Equal(t, "gemini-2.0-flash", flow.ActiveModel(context.Background()))
}

func TestActiveModelFromStore(t *testing.T) {
	flow, settings, _ := newSettingsFlowFixture()
	require.NoError(t, settings.Upsert(context.Background(), models.SettingKeyActiveModel, "gemini-2.5-pro", nil))

	assert.Equal(t, "gemini-2.5-pro", flow.ActiveModel(context.Background()))
}

func TestGetModels(t *testing.T) {
	flow, _, _ := newSettingsFlowFixture()

	resp, err := flow.GetModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", resp.ActiveModel)
	assert.Equal(t, testAllowedModels, resp.AllowedModels)
}

func TestSetModel(t *testing.T) {
	flow, settings, audits := newSettingsFlowFixture()

	resp, err := flow.SetModel(context.Background(), &dto.SetModelRequest{
		ActorEmail: "admin@example.com",
		Model:      "gemini-2.5-flash",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", resp.ActiveModel)

	stored, err := settings.ByKey(context.Background(), models.SettingKeyActiveModel)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "gemini-2.5-flash", stored.Value)
	require.NotNil(t, stored.UpdatedBy)
	assert.Equal(t, "admin@example.com", *stored.UpdatedBy)

	assert.Equal(t, "gemini-2.5-flash", flow.ActiveModel(context.Background()))
	assert.Contains(t, audits.actions(), models.AuditActionModelChanged)
}

func TestSetModelNotAllowed(t *testing.T) {
	flow, settings, _ := newSettingsFlowFixture()

	for _, model := range []string{"gpt-4o", "", "gemini-9000"} {
		_, err := flow.SetModel(context.Background(), &dto.SetModelRequest{
			ActorEmail: "admin@example.com",
			Model:      model,
		}, nil)
		require.Error(t, err)
		assert.True(t, IsModelNotAllowed(err))
	}

	stored, err := settings.ByKey(context.Background(), models.SettingKeyActiveModel)
	require.NoError(t, err)
	assert.Nil(t, stored)
}
