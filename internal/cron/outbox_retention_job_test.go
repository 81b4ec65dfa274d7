package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
)

func TestOutboxRetentionJobUsesCutoffAndCeiling(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	job := newOutboxRetentionJob(t, repo, OutboxRetentionJobParams{Retention: 48 * time.Hour, MaxAttempts: 4})
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-48*time.Hour), repo.lastCutoff)
	assert.Equal(t, 4, repo.maxAttempts)
	assert.Equal(t, 1, repo.deletes)
	assert.Equal(t, 1, repo.counts)
}

func TestOutboxRetentionJobDefaults(t *testing.T) {
	job := newOutboxRetentionJob(t, &fakeOutboxRetentionRepo{}, OutboxRetentionJobParams{})
	assert.Equal(t, defaultOutboxRetention, job.retention)
	assert.Equal(t, defaultOutboxAttempts, job.maxAttempts)
	assert.EqualValues(t, defaultBacklogWarn, job.backlogWarn)
}

func TestOutboxRetentionJobPropagatesErrors(t *testing.T) {
	job := newOutboxRetentionJob(t, &fakeOutboxRetentionRepo{deleteErr: errors.New("boom")}, OutboxRetentionJobParams{})
	require.Error(t, job.Run(context.Background()))

	job = newOutboxRetentionJob(t, &fakeOutboxRetentionRepo{countErr: errors.New("boom")}, OutboxRetentionJobParams{})
	require.Error(t, job.Run(context.Background()))
}

func TestOutboxRetentionJobAgainstSQLite(t *testing.T) {
	client := dbtest.New(t)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	published := old.Add(time.Hour)

	rows := []models.OutboxEvent{
		{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, Payload: []byte(`{}`), CreatedAt: old, PublishedAt: &published},
		{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, Payload: []byte(`{}`), CreatedAt: old, AttemptCount: 10},
		{EventType: enums.EventCreditCharged, AggregateType: enums.AggregateLedgerEntry, Payload: []byte(`{}`), CreatedAt: old, AttemptCount: 2},
		{EventType: enums.EventCreditCharged, AggregateType: enums.AggregateLedgerEntry, Payload: []byte(`{}`), CreatedAt: now},
	}
	require.NoError(t, client.DB().Create(&rows).Error)

	job := newOutboxRetentionJob(t, outbox.NewRepository(client.DB()), OutboxRetentionJobParams{DB: client, MaxAttempts: 10})
	require.NoError(t, job.Run(context.Background()))

	var remaining []models.OutboxEvent
	require.NoError(t, client.DB().Order("created_at").Find(&remaining).Error)
	require.Len(t, remaining, 2, "published and parked rows past retention are removed")
	for _, row := range remaining {
		assert.Nil(t, row.PublishedAt)
		assert.Less(t, row.AttemptCount, 10)
	}
}

func newOutboxRetentionJob(t *testing.T, repo outboxRetentionRepo, params OutboxRetentionJobParams) *outboxRetentionJob {
	t.Helper()
	params.Logger = logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	params.Repository = repo
	if params.DB == nil {
		params.DB = nilTxRunner{}
	}
	job, err := NewOutboxRetentionJob(params)
	require.NoError(t, err)
	return job.(*outboxRetentionJob)
}

type fakeOutboxRetentionRepo struct {
	lastCutoff  time.Time
	maxAttempts int
	deletes     int
	counts      int
	deleteErr   error
	countErr    error
}

func (f *fakeOutboxRetentionRepo) Purge(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.deletes++
	f.lastCutoff = cutoff
	f.maxAttempts = minAttemptCount
	return 3, f.deleteErr
}

func (f *fakeOutboxRetentionRepo) CountPending(_ context.Context, _ *gorm.DB, _ int) (int64, error) {
	f.counts++
	return 0, f.countErr
}

type nilTxRunner struct{}

func (nilTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
