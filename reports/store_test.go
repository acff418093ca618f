package reports

import (
	"context"
	"regexp"
	"testing"
	"time"

	"alternanceetmoi.fr/reports/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var reportColumns = []string{"id", "user_id", "date", "title", "content", "attachments", "created_at", "updated_at"}

func newSQLStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	database, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormStore(database), mock
}

func TestGormStoreInsertReturnsRow(t *testing.T) {
	store, mock := newSQLStore(t)
	id := uuid.New()
	created := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "reports"`)).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(id.String(), uuid.New().String(), time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), "Sprint review", "Demo", "[]", created, created))

	r := &models.Report{UserID: uuid.New(), Title: "Sprint review", Content: "Demo"}
	require.NoError(t, store.Insert(context.Background(), r))

	assert.Equal(t, id, r.ID)
	assert.Equal(t, created, r.CreatedAt)
	assert.NotNil(t, r.Attachments)
	assert.Empty(t, r.Attachments)
}

func TestGormStoreFindMapsMissingRows(t *testing.T) {
	store, mock := newSQLStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reports"`)).
		WillReturnRows(sqlmock.NewRows(reportColumns))

	_, err := store.Find(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStoreFindScansAttachments(t *testing.T) {
	store, mock := newSQLStore(t)
	id := uuid.New()
	day := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reports"`)).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow(id.String(), uuid.New().String(), day, "Sprint review", "Demo",
				`[{"name":"a.pdf","path":"`+id.String()+`/0f3e.pdf","size":2048}]`, day, day))

	r, err := store.Find(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, day, r.Date)
	require.Len(t, r.Attachments, 1)
	assert.Equal(t, "a.pdf", r.Attachments[0].Name)
	assert.Equal(t, id.String()+"/0f3e.pdf", r.Attachments[0].Path)
}

func TestGormStoreListSinceUsesCalendarDay(t *testing.T) {
	store, mock := newSQLStore(t)
	owner := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reports" WHERE user_id = $1 AND date >= $2 ORDER BY date ASC`)).
		WithArgs(owner.String(), "2025-02-24").
		WillReturnRows(sqlmock.NewRows(reportColumns))

	list, err := store.ListSince(context.Background(), owner, time.Date(2025, time.February, 24, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGormStoreUpdate(t *testing.T) {
	id := uuid.New()
	r := &models.Report{
		ID:        id,
		Date:      time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC),
		Title:     "Retrospective",
		Content:   "What went well.",
		UpdatedAt: time.Date(2025, time.March, 4, 11, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		affected int64
		err      error
	}{
		{"one row", 1, nil},
		{"no row", 0, ErrNoRowsUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newSQLStore(t)

			// Columns are written in name order: attachments, content, date, title, updated_at.
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reports" SET`)).
				WithArgs(sqlmock.AnyArg(), "What went well.", "2025-03-04", "Retrospective", sqlmock.AnyArg(), id.String()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := store.Update(context.Background(), r)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGormStoreSetAttachmentsWithoutRow(t *testing.T) {
	store, mock := newSQLStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reports" SET "attachments"=`)).
		WithArgs("[]", sqlmock.AnyArg(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.SetAttachments(context.Background(), id, nil), ErrNoRowsUpdated)
}

func TestGormStoreDeleteWithoutRow(t *testing.T) {
	store, mock := newSQLStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "reports" WHERE id = $1`)).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Delete(context.Background(), id), ErrNotFound)
}
