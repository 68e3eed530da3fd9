package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/prima"
)

type syncFixture struct {
	entries  InterfaceEntryService
	client   *fakeControllerClient
	activity *recordingActivity
	engine   InterfaceResidentSyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	f := &syncFixture{
		entries:  NewEntryService(newTestDB(t), newTestConfig()),
		client:   newFakeControllerClient(),
		activity: &recordingActivity{},
	}
	f.engine = NewResidentSyncService(f.entries, f.client, f.activity)
	return f
}

func (f *syncFixture) record(t *testing.T, address string) *models.ResidentRecord {
	t.Helper()
	entry := createEntry(t, f.entries, testFormID, address)
	record, err := f.entries.LoadRecord(entry.ID, testMapping())
	require.NoError(t, err)
	return record
}

func (f *syncFixture) reload(t *testing.T, id uint) *models.ResidentRecord {
	t.Helper()
	record, err := f.entries.LoadRecord(id, testMapping())
	require.NoError(t, err)
	return record
}

var jane = prima.ResidentMatch{
	ControllerUserID: "17",
	FirstName:        "Jane",
	LastName:         "Doe",
	Address:          "12 Oak St",
	ExistingCards:    "0001",
}

func TestPerformLookupEmptyAddress(t *testing.T) {
	f := newSyncFixture(t)
	record := f.record(t, "")

	status, err := f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusUnsynced, status)
	assert.Zero(t, f.client.lookupCount())
	assert.True(t, f.activity.contains("skipped"))

	stored, err := f.entries.GetMeta(record.ID, models.MetaSyncStatus)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPerformLookupNotFoundThenFound(t *testing.T) {
	f := newSyncFixture(t)
	record := f.record(t, "12 Oak St")

	status, err := f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusNotFound, status)
	assert.Equal(t, models.SyncStatusNotFound, f.reload(t, record.ID).SyncStatus)

	f.client.addResident(jane)
	status, err = f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFound, status)

	stored := f.reload(t, record.ID)
	assert.Equal(t, models.SyncStatusFound, stored.SyncStatus)
	assert.Equal(t, "17", stored.ControllerUserID)
	assert.Equal(t, "Jane", stored.FirstName)
	assert.Equal(t, "Doe", stored.LastName)
	assert.Equal(t, "0001", stored.ExistingCards)
}

func TestPerformLookupIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	f.client.addResident(jane)
	record := f.record(t, "12 Oak St")

	first, err := f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)
	afterFirst := f.reload(t, record.ID)

	second, err := f.engine.PerformLookup(context.Background(), afterFirst)
	require.NoError(t, err)
	afterSecond := f.reload(t, record.ID)

	assert.Equal(t, first, second)
	afterFirst.CreatedAt = afterSecond.CreatedAt
	assert.Equal(t, afterFirst, afterSecond)
}

func TestPerformLookupMultipleMatchesPicksFirst(t *testing.T) {
	f := newSyncFixture(t)
	f.client.addResident(jane)
	f.client.addResident(prima.ResidentMatch{ControllerUserID: "18", FirstName: "John", LastName: "Doe", Address: "12 Oak St"})
	record := f.record(t, "12 Oak St")

	status, err := f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFound, status)
	assert.Equal(t, "17", f.reload(t, record.ID).ControllerUserID)
	assert.True(t, f.activity.contains("2 controller users share address"))
}

func TestPerformLookupErrorSetsStatusError(t *testing.T) {
	f := newSyncFixture(t)
	f.client.lookupErr = &prima.TransportError{Op: "ReadUsers", Err: errors.New("connection refused")}
	record := f.record(t, "12 Oak St")

	status, err := f.engine.PerformLookup(context.Background(), record)
	var transportErr *prima.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, models.SyncStatusError, status)
	assert.Equal(t, models.SyncStatusError, f.reload(t, record.ID).SyncStatus)

	// Error 不是终态
	f.client.lookupErr = nil
	f.client.addResident(jane)
	status, err = f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFound, status)
}

func TestPerformCardPushRequiresMapping(t *testing.T) {
	f := newSyncFixture(t)
	f.client.upsertErr = &prima.TransportError{Op: "AddOrUpdateUser", Err: errors.New("unreachable")}

	for _, status := range []models.SyncStatus{models.SyncStatusUnsynced, models.SyncStatusNotFound, models.SyncStatusError} {
		record := f.record(t, "12 Oak St")
		record.SyncStatus = status

		got, err := f.engine.PerformCardPush(context.Background(), record, "A1B2C3")
		var mappingErr *MissingMappingError
		require.True(t, errors.As(err, &mappingErr), "status %s", status)
		assert.Equal(t, "Missing Name mapping. Re-run Initial Setup Sync.", err.Error())
		assert.Equal(t, status, got)
	}
	assert.Empty(t, f.client.upserts)
}

func TestPerformCardPushSuccess(t *testing.T) {
	f := newSyncFixture(t)
	f.client.addResident(jane)
	record := f.record(t, "12 Oak St")
	_, err := f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)

	status, err := f.engine.PerformCardPush(context.Background(), record, "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, status)
	assert.Equal(t, []string{"Jane Doe:A1B2C3"}, f.client.upserts)

	entry, err := f.entries.GetEntry(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Synced", entry.Meta(models.MetaSyncStatus))
	require.Len(t, entry.Notes, 1)
	assert.Equal(t, "RFID A1B2C3 assigned to Jane Doe", entry.Notes[0].Note)

	// 已同步的记录可以再次推送
	status, err = f.engine.PerformCardPush(context.Background(), record, "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, status)
	assert.Len(t, f.client.upserts, 2)
}

func TestPerformCardPushFailureKeepsStatus(t *testing.T) {
	failures := []error{
		&prima.APIStatusError{Status: prima.StatusCardInUse, Message: prima.StatusMessage(prima.StatusCardInUse, "")},
		&prima.AuthError{Status: prima.StatusAuthFailed, Message: prima.StatusMessage(prima.StatusAuthFailed, "")},
		&prima.TransportError{Op: "AddOrUpdateUser", Err: errors.New("timeout")},
		&prima.ParseError{Err: errors.New("EOF")},
	}

	for _, startStatus := range []models.SyncStatus{models.SyncStatusFound, models.SyncStatusSynced} {
		for i, failure := range failures {
			t.Run(fmt.Sprintf("%s_%d", startStatus, i), func(t *testing.T) {
				f := newSyncFixture(t)
				f.client.addResident(jane)
				record := f.record(t, "12 Oak St")
				_, err := f.engine.PerformLookup(context.Background(), record)
				require.NoError(t, err)
				require.NoError(t, f.entries.SetMeta(record.ID, models.MetaSyncStatus, string(startStatus)))
				record.SyncStatus = startStatus

				f.client.upsertErr = failure
				status, err := f.engine.PerformCardPush(context.Background(), record, "A1B2C3")
				require.Error(t, err)
				assert.Equal(t, failure.Error(), err.Error())
				assert.Equal(t, startStatus, status)
				assert.Equal(t, startStatus, f.reload(t, record.ID).SyncStatus)

				entry, err := f.entries.GetEntry(record.ID)
				require.NoError(t, err)
				assert.Empty(t, entry.Notes)
			})
		}
	}
}

func TestPerformCardPushCardInUse(t *testing.T) {
	f := newSyncFixture(t)
	f.client.addResident(jane)
	record := f.record(t, "12 Oak St")
	_, err := f.engine.PerformLookup(context.Background(), record)
	require.NoError(t, err)

	f.client.upsertErr = &prima.APIStatusError{Status: 15, Message: prima.StatusMessage(15, "")}
	status, err := f.engine.PerformCardPush(context.Background(), record, "A1B2C3")
	require.Error(t, err)
	assert.Equal(t, "Error 15: RFID already in use elsewhere.", err.Error())
	assert.Equal(t, models.SyncStatusFound, status)
	assert.Equal(t, models.SyncStatusFound, f.reload(t, record.ID).SyncStatus)
}
