package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox/payloads"
)

func TestEmitWritesEnvelope(t *testing.T) {
	client := dbtest.New(t)
	repo := outbox.NewRepository(client.DB())
	svc := outbox.NewService(repo, logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard}))
	orderID := uuid.New()

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{AccountID: uuid.New(), Role: "retailer"},
			Data:          payloads.OrderCreatedEvent{OrderID: orderID, OrderNumber: "ORD-1"},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, client.DB().First(&row).Error)
	assert.Equal(t, orderID, row.AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	_, err = ulid.ParseStrict(envelope.EventID)
	assert.NoError(t, err, "event id should be a ULID")
	assert.Contains(t, string(envelope.Data), "ORD-1")
}

func TestEmitRejectsUnknownEventType(t *testing.T) {
	client := dbtest.New(t)
	svc := outbox.NewService(outbox.NewRepository(client.DB()), logger.New(logger.Options{Output: io.Discard}))

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, outbox.DomainEvent{EventType: "order.exploded"})
	})
	assert.Error(t, err)
	assert.Zero(t, dbtest.Count(t, client, &models.OutboxEvent{}))
}

func TestPublishLifecycle(t *testing.T) {
	client := dbtest.New(t)
	repo := outbox.NewRepository(client.DB())
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(client.DB(), models.OutboxEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
		}))
	}

	rows, err := repo.ClaimBatch(client.DB(), 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublished(client.DB(), rows[0].ID))
	require.NoError(t, repo.RecordFailure(client.DB(), rows[1].ID, errors.New("topic missing")))
	require.NoError(t, repo.Park(client.DB(), rows[2].ID, errors.New("unknown type"), 3))

	pending, err := repo.CountPending(context.Background(), client.DB(), 3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	var failed models.OutboxEvent
	require.NoError(t, client.DB().First(&failed, "id = ?", rows[1].ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "topic missing", *failed.LastError)
}

func TestPurgeKeepsRetryingAndRecentRows(t *testing.T) {
	client := dbtest.New(t)
	repo := outbox.NewRepository(client.DB())
	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	rows := []models.OutboxEvent{
		{PublishedAt: &old, CreatedAt: old},
		{PublishedAt: &recent, CreatedAt: old},
		{CreatedAt: old, AttemptCount: 5},
		{CreatedAt: old, AttemptCount: 1},
	}
	for _, row := range rows {
		row.EventType = enums.EventOrderCreated
		row.AggregateType = enums.AggregateOrder
		row.AggregateID = uuid.New()
		row.Payload = json.RawMessage(`{}`)
		require.NoError(t, client.DB().Create(&row).Error)
	}

	deleted, err := repo.Purge(context.Background(), client.DB(), time.Now().Add(-24*time.Hour), 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.EqualValues(t, 2, dbtest.Count(t, client, &models.OutboxEvent{}))
}

func TestRecordFailureClipsLongErrors(t *testing.T) {
	client := dbtest.New(t)
	repo := outbox.NewRepository(client.DB())
	row := models.OutboxEvent{
		EventType:     enums.EventCreditCharged,
		AggregateType: enums.AggregateLedgerEntry,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, client.DB().Create(&row).Error)

	require.NoError(t, repo.RecordFailure(nil, row.ID, errors.New(strings.Repeat("x", 4096))))

	var stored models.OutboxEvent
	require.NoError(t, client.DB().First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.LastError)
	assert.Len(t, *stored.LastError, 1024)
}

func TestClaimBatchReturnsOldestFirst(t *testing.T) {
	client := dbtest.New(t)
	repo := outbox.NewRepository(client.DB())
	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		row := models.OutboxEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     base.Add(time.Duration(3-i) * time.Minute),
		}
		require.NoError(t, client.DB().Create(&row).Error)
		ids = append(ids, row.ID)
	}

	rows, err := repo.ClaimBatch(client.DB(), 2, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[3], rows[0].ID)
	assert.Equal(t, ids[2], rows[1].ID)
}
