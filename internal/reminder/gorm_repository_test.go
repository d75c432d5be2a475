package reminder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"reminderd/internal/common"
	"reminderd/internal/config"
	"reminderd/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "reminders.db"),
		BusyTimeout: 5000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, RunMigrations(db))
	return db
}

func newTestRepository(t *testing.T) (Repository, *common.MockClock, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	clock := common.NewMockClock(baseTime)
	return NewGormRepository(db, clock, zap.NewNop()), clock, db
}

func insertReminder(t *testing.T, repo Repository, text string, due time.Time) *Reminder {
	t.Helper()

	r := &Reminder{Text: text, ScheduledTime: due}
	require.NoError(t, repo.Insert(context.Background(), r))
	return r
}

func TestGormRepository_InsertAndGet(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	r := &Reminder{
		Text:               "water plants",
		ScheduledTime:      baseTime.Add(time.Hour),
		Status:             StatusCancelled,
		Recurrence:         "daily",
		RecurrenceInterval: 24 * time.Hour,
	}
	require.NoError(t, repo.Insert(ctx, r))
	assert.NotZero(t, r.ID)
	assert.Equal(t, StatusScheduled, r.Status)
	assert.True(t, r.CreatedAt.Equal(baseTime))

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "water plants", got.Text)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.True(t, got.ScheduledTime.Equal(baseTime.Add(time.Hour)))
	assert.Equal(t, 24*time.Hour, got.RecurrenceInterval)
	assert.Equal(t, "daily", got.Recurrence)
	assert.Nil(t, got.ClosedAt)

	second := insertReminder(t, repo, "second", baseTime)
	assert.Greater(t, second.ID, r.ID)
}

func TestGormRepository_InsertRejectsEmptyText(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	err := repo.Insert(context.Background(), &Reminder{Text: "  ", ScheduledTime: baseTime})
	assert.True(t, IsValidationError(err))
}

func TestGormRepository_GetNotFound(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	_, err := repo.Get(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, "Reminder 404 not found", UserMessage(err))
}

func TestGormRepository_ListOrdering(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	early := insertReminder(t, repo, "early", baseTime.Add(time.Minute))
	late := insertReminder(t, repo, "late", baseTime.Add(time.Hour))
	middle := insertReminder(t, repo, "middle", baseTime.Add(10*time.Minute))
	require.NoError(t, repo.UpdateStatus(ctx, middle.ID, StatusTriggered))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{late.ID, middle.ID, early.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	scheduled, err := repo.ListByStatus(ctx, StatusScheduled)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)
	assert.Equal(t, early.ID, scheduled[0].ID)
	assert.Equal(t, late.ID, scheduled[1].ID)
}

func TestGormRepository_FindByTextSubstring(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	milk := insertReminder(t, repo, "Buy MILK", baseTime.Add(time.Hour))
	insertReminder(t, repo, "call mom", baseTime.Add(time.Hour))
	percent := insertReminder(t, repo, "raise price 100%", baseTime.Add(time.Hour))
	cancelledMilk := insertReminder(t, repo, "milk again", baseTime.Add(time.Hour))
	_, err := repo.Cancel(ctx, cancelledMilk.ID)
	require.NoError(t, err)

	found, err := repo.FindByTextSubstring(ctx, "milk", StatusScheduled)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, milk.ID, found[0].ID)

	found, err = repo.FindByTextSubstring(ctx, "0%", StatusScheduled)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, percent.ID, found[0].ID)

	found, err = repo.FindByTextSubstring(ctx, "%", StatusScheduled)
	require.NoError(t, err)
	assert.Len(t, found, 1, "LIKE wildcards in the pattern match literally")

	umlaut := insertReminder(t, repo, "ÜBUNG machen", baseTime.Add(time.Hour))
	found, err = repo.FindByTextSubstring(ctx, "übung", StatusScheduled)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, umlaut.ID, found[0].ID)

	found, err = repo.FindByTextSubstring(ctx, "milk", StatusCancelled)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, cancelledMilk.ID, found[0].ID)
}

func TestGormRepository_UpdateStatusAndSchedule(t *testing.T) {
	repo, clock, _ := newTestRepository(t)
	ctx := context.Background()

	r := insertReminder(t, repo, "stretch", baseTime.Add(time.Minute))

	clock.Advance(5 * time.Minute)
	require.NoError(t, repo.UpdateStatus(ctx, r.ID, StatusTriggered))
	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTriggered, got.Status)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(baseTime.Add(5*time.Minute)))

	newTime := baseTime.Add(2 * time.Hour)
	require.NoError(t, repo.UpdateSchedule(ctx, r.ID, newTime, StatusScheduled))
	got, err = repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.True(t, got.ScheduledTime.Equal(newTime))
	assert.Nil(t, got.ClosedAt)

	assert.True(t, IsNotFoundError(repo.UpdateStatus(ctx, 999, StatusCancelled)))
	assert.True(t, IsNotFoundError(repo.UpdateSchedule(ctx, 999, newTime, StatusScheduled)))
	assert.True(t, IsValidationError(repo.UpdateStatus(ctx, r.ID, Status("done"))))
}

func TestGormRepository_MarkTriggeredIsCompareAndSet(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	r := insertReminder(t, repo, "standup", baseTime)
	firedAt := baseTime.Add(time.Second)

	applied, err := repo.MarkTriggered(ctx, r.ID, firedAt)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.MarkTriggered(ctx, r.ID, firedAt)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTriggered, got.Status)
	assert.Equal(t, 1, got.FireCount)
	require.NotNil(t, got.LastFiredAt)
	assert.True(t, got.LastFiredAt.Equal(firedAt))

	cancelled := insertReminder(t, repo, "cancelled first", baseTime)
	applied, err = repo.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.MarkTriggered(ctx, cancelled.ID, firedAt)
	require.NoError(t, err)
	assert.False(t, applied, "a cancelled reminder never becomes triggered")
}

func TestGormRepository_RecordOccurrence(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	r := &Reminder{Text: "drink water", ScheduledTime: baseTime, Recurrence: "every 1 hour", RecurrenceInterval: time.Hour}
	require.NoError(t, repo.Insert(ctx, r))

	firedAt := baseTime.Add(3 * time.Second)
	next := firedAt.Add(time.Hour)
	applied, err := repo.RecordOccurrence(ctx, r.ID, firedAt, next)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.True(t, got.ScheduledTime.Equal(next))
	assert.Equal(t, 1, got.FireCount)

	_, err = repo.Cancel(ctx, r.ID)
	require.NoError(t, err)
	applied, err = repo.RecordOccurrence(ctx, r.ID, next, next.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestGormRepository_Cancel(t *testing.T) {
	repo, clock, _ := newTestRepository(t)
	ctx := context.Background()

	r := insertReminder(t, repo, "pay rent", baseTime.Add(time.Hour))
	clock.Advance(time.Minute)

	applied, err := repo.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(baseTime.Add(time.Minute)))

	applied, err = repo.Cancel(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestGormRepository_Delete(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	r := insertReminder(t, repo, "temp", baseTime)
	require.NoError(t, repo.Delete(ctx, r.ID))
	assert.True(t, IsNotFoundError(repo.Delete(ctx, r.ID)))

	_, err := repo.Get(ctx, r.ID)
	assert.True(t, IsNotFoundError(err))
}

func TestGormRepository_DeleteWhereNeverDeletesScheduled(t *testing.T) {
	repo, clock, _ := newTestRepository(t)
	ctx := context.Background()

	oldScheduled := insertReminder(t, repo, "old but pending", baseTime.Add(-30*24*time.Hour))
	oldTriggered := insertReminder(t, repo, "old triggered", baseTime.Add(-10*24*time.Hour))
	_, err := repo.MarkTriggered(ctx, oldTriggered.ID, baseTime.Add(-10*24*time.Hour))
	require.NoError(t, err)
	recentCancelled := insertReminder(t, repo, "recent cancelled", baseTime.Add(time.Hour))
	_, err = repo.Cancel(ctx, recentCancelled.ID)
	require.NoError(t, err)

	cutoff := clock.Now().Add(-7 * 24 * time.Hour)
	deleted, err := repo.DeleteWhere(ctx, DeleteFilter{StatusNot: StatusScheduled, ScheduledBefore: cutoff})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, oldTriggered.ID)
	assert.True(t, IsNotFoundError(err))
	_, err = repo.Get(ctx, oldScheduled.ID)
	assert.NoError(t, err)
	_, err = repo.Get(ctx, recentCancelled.ID)
	assert.NoError(t, err)

	// closed_at at the cutoff qualifies
	now := clock.Now()
	deleted, err = repo.DeleteWhere(ctx, DeleteFilter{StatusNot: StatusScheduled, ScheduledBefore: now, ClosedBefore: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, oldScheduled.ID)
	assert.NoError(t, err)

	_, err = repo.DeleteWhere(ctx, DeleteFilter{StatusNot: StatusScheduled})
	assert.True(t, IsValidationError(err))
}

func TestGormRepository_WithTransactionRollsBack(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	r := insertReminder(t, repo, "tx", baseTime.Add(time.Hour))
	boom := errors.New("boom")

	err := repo.WithTransaction(ctx, func(tx Repository) error {
		applied, err := tx.Cancel(ctx, r.ID)
		require.NoError(t, err)
		require.True(t, applied)
		return boom
	})
	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
}

func TestGormRepository_ClosedDatabaseSurfacesPersistenceError(t *testing.T) {
	repo, _, db := newTestRepository(t)
	require.NoError(t, database.Close(db))

	_, err := repo.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))
	assert.True(t, IsTemporaryError(err))
	assert.Contains(t, err.Error(), "list")
}

func TestMigrations(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, ValidateMigrations(db))
	require.NoError(t, MigrateWithValidation(db), "re-running migrations is a no-op")

	repo := NewGormRepository(db, common.NewMockClock(baseTime), zap.NewNop())
	insertReminder(t, repo, "one", baseTime)
	stats, err := GetTableStats(db)
	require.NoError(t, err)
	assert.NotEmpty(t, stats)

	require.NoError(t, DropTables(db))
	assert.Error(t, ValidateMigrations(db))
}

func TestMigrations_ClosedDatabase(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, database.Close(db))

	err := RunMigrations(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to auto-migrate")
	assert.Error(t, MigrateWithValidation(db))
}

func TestMigrations_RecoversMissingIndexes(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec("DROP INDEX idx_reminders_closed_at").Error)

	err := ValidateMigrations(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idx_reminders_closed_at")

	require.NoError(t, MigrateWithValidation(db))
}

func TestGetTableStats_CountsByStatus(t *testing.T) {
	repo, _, db := newTestRepository(t)
	ctx := context.Background()

	insertReminder(t, repo, "keep", baseTime.Add(time.Hour))
	gone := insertReminder(t, repo, "gone", baseTime.Add(time.Hour))
	_, err := repo.Cancel(ctx, gone.ID)
	require.NoError(t, err)

	stats, err := GetTableStats(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats["reminders"])
	assert.Equal(t, int64(1), stats[string(StatusScheduled)])
	assert.Equal(t, int64(1), stats[string(StatusCancelled)])
}
