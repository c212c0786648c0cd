package pg

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository"
)

// TestJobStore_Interface verifies JobStore implements JobDAO
func TestJobStore_Interface(t *testing.T) {
	var _ repository.JobDAO = (*JobStore)(nil)
}

func newMockStore(t *testing.T) (*JobStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewJobStoreWithDB(db)
	store.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return store, mock
}

func jobRows(status model.JobStatus, attempts int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "transcript_id", "type", "status", "payload", "attempts",
		"next_retry_at", "last_error", "created_at", "updated_at",
	}).AddRow(
		"job-1", "transcript-1", "file", string(status), `{"language":"en"}`, attempts,
		nil, "", "2025-06-01T11:00:00.000Z", "2025-06-01T12:00:00.000Z",
	)
}

func TestJobStore_Enqueue_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs("job-1", "transcript-1", "file", "queued", `{"language":"en"}`,
			"2025-06-01T12:00:00.000Z", "2025-06-01T12:00:00.000Z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id = \\$1").
		WithArgs("job-1").
		WillReturnRows(jobRows(model.JobStatusQueued, 0))

	job, err := store.Enqueue("transcript-1", model.JobTypeFile, map[string]string{"language": "en"}, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, model.JobStatusQueued, job.Status)
	assert.Equal(t, map[string]string{"language": "en"}, job.Payload)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_Get_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id = \\$1").
		WithArgs("job-1").
		WillReturnRows(jobRows(model.JobStatusRunning, 2))

	job, err := store.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, job.Status)
	assert.Equal(t, 2, job.Attempts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_Get_NotFound_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM jobs WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	job, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, job)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_MarkRunning_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE jobs").
		WithArgs("running", "2025-06-01T12:00:00.000Z", "job-1", "queued").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.MarkRunning("job-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_MarkRunning_NoMatch_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE jobs").
		WithArgs("running", "2025-06-01T12:00:00.000Z", "missing", "queued").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.MarkRunning("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_MarkFailed_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE jobs").
		WithArgs("failed", "boom", "2025-06-01T12:00:00.000Z", "job-1",
			"completed", "failed", "canceled").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkFailed("job-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_SetRetry_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	retryAt := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE jobs").
		WithArgs("queued", "2025-06-01T12:05:00.000Z", "503 service unavailable",
			"2025-06-01T12:00:00.000Z", "job-1", "completed", "failed", "canceled").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetRetry("job-1", retryAt, "503 service unavailable"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_ResetRunningToQueued_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE jobs").
		WithArgs("queued", "2025-06-01T12:00:00.000Z", "running").
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := store.ResetRunningToQueued()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_NextRetryDelay_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT MIN\\(next_retry_at\\) FROM jobs").
		WithArgs("queued", "2025-06-01T12:00:00.000Z").
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow("2025-06-01T12:00:30.000Z"))

	delay, ok, err := store.NextRetryDelay()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, delay)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_QueryError_Unit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs("job-1").
		WillReturnError(errors.New("connection lost"))

	_, err := store.Get("job-1")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
