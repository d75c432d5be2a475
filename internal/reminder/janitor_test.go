package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reminderd/internal/mocks"
	"reminderd/internal/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestNewJanitor_ValidatesSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockReminderService(ctrl)

	for _, spec := range []string{"@daily", "@every 1h", "30 3 * * *"} {
		_, err := reminder.NewJanitor(svc, spec, 7, zap.NewNop())
		assert.NoError(t, err, spec)
	}

	_, err := reminder.NewJanitor(svc, "every day", 7, zap.NewNop())
	assert.True(t, reminder.IsValidationError(err))

	_, err = reminder.NewJanitor(svc, "@daily", -1, zap.NewNop())
	assert.True(t, reminder.IsValidationError(err))
}

func TestJanitor_RunOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockReminderService(ctrl)

	janitor, err := reminder.NewJanitor(svc, "@daily", 7, zap.NewNop())
	require.NoError(t, err)

	svc.EXPECT().Cleanup(gomock.Any(), 7).Return(reminder.Outcome{Success: true, Count: 3}, nil)
	deleted, err := janitor.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	storeErr := reminder.PersistenceError{Operation: "cleanup", Cause: errors.New("disk full")}
	svc.EXPECT().Cleanup(gomock.Any(), 7).Return(reminder.Outcome{}, storeErr)
	_, err = janitor.RunOnce(context.Background())
	assert.True(t, reminder.IsPersistenceError(err))

	svc.EXPECT().Cleanup(gomock.Any(), 7).Return(reminder.Outcome{}, reminder.UnavailableError{Reason: "shutting down"})
	_, err = janitor.RunOnce(context.Background())
	assert.True(t, reminder.IsUnavailableError(err))
}

func TestJanitor_RunsOnSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockReminderService(ctrl)

	ran := make(chan struct{}, 1)
	svc.EXPECT().Cleanup(gomock.Any(), 2).DoAndReturn(func(context.Context, int) (reminder.Outcome, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return reminder.Outcome{Success: true}, nil
	}).MinTimes(1)

	janitor, err := reminder.NewJanitor(svc, "@every 1s", 2, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, janitor.Start())
	require.NoError(t, janitor.Start(), "starting twice is a no-op")

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("cleanup job did not run")
	}

	janitor.Stop()
	janitor.Stop()
}
