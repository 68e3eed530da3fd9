package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/pkg/logger"
)

func TestSettingsDefaultsFromConfig(t *testing.T) {
	settings := NewSettingsService(newTestDB(t), newTestConfig())

	got, err := settings.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, &models.SyncSettings{
		EndpointURL:    "http://controller.local",
		Username:       "admin",
		Password:       "secret",
		FormID:         testFormID,
		AddressFieldID: testAddressField,
		RFIDFieldID:    testRFIDField,
		LogMode:        logger.ModeDebug,
	}, got)
	assert.Equal(t, logger.ModeDebug, settings.GetLogMode())
}

func TestSaveSettingsOverridesDefaults(t *testing.T) {
	settings := NewSettingsService(newTestDB(t), newTestConfig())

	require.NoError(t, settings.SaveSettings(&models.SyncSettings{
		EndpointURL:    " http://10.0.0.9 ",
		Username:       "operator",
		FormID:         12,
		AddressFieldID: "4",
		RFIDFieldID:    "5",
		LogMode:        "Disabled",
	}))

	got, err := settings.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.9", got.EndpointURL)
	assert.Equal(t, "operator", got.Username)
	assert.Equal(t, "secret", got.Password, "blank password keeps the previous one")
	assert.Equal(t, uint(12), got.FormID)
	assert.Equal(t, models.FieldMapping{FormID: 12, AddressFieldID: "4", RFIDFieldID: "5"}, got.Mapping())
	assert.Equal(t, logger.ModeDisabled, settings.GetLogMode())

	require.NoError(t, settings.SaveSettings(&models.SyncSettings{
		EndpointURL: "http://10.0.0.9",
		Username:    "operator",
		Password:    "n3w",
		FormID:      12,
	}))
	got, err = settings.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "n3w", got.Password)
	assert.Equal(t, logger.ModeSimple, got.LogMode)
	assert.Empty(t, got.AddressFieldID)
}

func TestSaveSettingsRejectsUnknownLogMode(t *testing.T) {
	settings := NewSettingsService(newTestDB(t), newTestConfig())

	err := settings.SaveSettings(&models.SyncSettings{LogMode: "verbose"})
	assert.ErrorIs(t, err, ErrInvalidLogMode)
	assert.Equal(t, logger.ModeDebug, settings.GetLogMode())
}

func TestGetSettingsReturnsCopy(t *testing.T) {
	settings := NewSettingsService(newTestDB(t), newTestConfig())

	first, err := settings.GetSettings()
	require.NoError(t, err)
	first.EndpointURL = "mutated"

	second, err := settings.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "http://controller.local", second.EndpointURL)
}
