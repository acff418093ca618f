package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type recordingPurger struct {
	paths [][]string
}

func (p *recordingPurger) SchedulePurge(paths []string) error {
	p.paths = append(p.paths, paths)
	return nil
}

type fixture struct {
	store   *MemoryStore
	bucket  *storage.MemoryBucket
	purger  *recordingPurger
	service *Service
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  NewMemoryStore(),
		bucket: storage.NewMemoryBucket("https://project.supabase.co/storage/v1/object/public", "reports"),
		purger: &recordingPurger{},
		now:    time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
	}

	n := 0
	f.service = NewService(f.store, f.bucket,
		WithPurger(f.purger),
		WithClock(func() time.Time { return f.now }),
		WithNameGenerator(func(ext string) string {
			n++
			return fmt.Sprintf("file%d.%s", n, ext)
		}),
		WithMaxUploadSize(1024),
	)

	return f
}

func validInput() Input {
	return Input{Date: "2025-03-03", Title: "  Sprint review  ", Content: " Demo of the export feature. "}
}

var pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

func TestCreateWithoutFiles(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), nil)
	require.NoError(t, err)

	r := res.Report
	assert.Equal(t, owner, r.UserID)
	assert.Equal(t, "Sprint review", r.Title)
	assert.Equal(t, "Demo of the export feature.", r.Content)
	assert.Equal(t, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Empty(t, r.Attachments)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 0, f.store.Updates(), "no attachment patch without files")
}

func TestCreateUploadsThenPatches(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), []Upload{
		{Name: "rapport.pdf", Content: pdfHeader},
		{Name: "notes.txt", Content: []byte("hello")},
	})
	require.NoError(t, err)

	r := res.Report
	require.Len(t, r.Attachments, 2)

	first := r.Attachments[0]
	assert.Equal(t, "rapport.pdf", first.Name)
	assert.Equal(t, r.ID.String()+"/file1.pdf", first.Path)
	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/reports/"+r.ID.String()+"/file1.pdf", first.URL)
	assert.Equal(t, int64(len(pdfHeader)), first.Size)
	assert.Equal(t, "application/pdf", first.MimeType)
	require.NotNil(t, first.UploadedAt)
	assert.Equal(t, f.now, *first.UploadedAt)

	assert.Equal(t, r.ID.String()+"/file2.txt", r.Attachments[1].Path)
	assert.True(t, strings.HasPrefix(r.Attachments[1].MimeType, "text/plain"))

	stored, err := f.store.Find(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Attachments, stored.Attachments)
	assert.Equal(t, 1, f.store.Updates())
}

func TestCreateSkipsFailedUploads(t *testing.T) {
	f := newFixture(t)
	f.bucket.FailUpload = func(path string) bool { return strings.HasSuffix(path, ".exe") }

	res, err := f.service.Create(context.Background(), uuid.New(), validInput(), []Upload{
		{Name: "setup.exe", Content: []byte("MZ")},
		{Name: "big.txt", Content: bytes.Repeat([]byte("a"), 2048)},
		{Name: "ok.txt", Content: []byte("fine")},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"setup.exe", "big.txt"}, res.Failed)
	require.Len(t, res.Report.Attachments, 1)
	assert.Equal(t, "ok.txt", res.Report.Attachments[0].Name)
}

func TestCreateAllUploadsFailed(t *testing.T) {
	f := newFixture(t)
	f.bucket.FailUpload = func(string) bool { return true }

	res, err := f.service.Create(context.Background(), uuid.New(), validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, res.Failed)
	assert.Empty(t, res.Report.Attachments)
	assert.Equal(t, 0, f.store.Updates())
}

func TestCreatePatchFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.store.FailSetAttachments = true

	res, err := f.service.Create(context.Background(), uuid.New(), validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, res.Failed)
	assert.Empty(t, f.bucket.Paths())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), uuid.New(), Input{Date: "03/03/2025", Title: "   ", Content: "x"}, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"ErrorInvalidDate"}, fe["date"])
	assert.Equal(t, []string{"ErrorFieldRequired"}, fe["title"])
	assert.NotContains(t, fe, "content")

	_, err = f.service.Create(context.Background(), uuid.Nil, validInput(), nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetChecksOwnership(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), nil)
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), owner, res.Report.ID)
	assert.NoError(t, err)

	_, err = f.service.Get(context.Background(), uuid.New(), res.Report.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.Get(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAppendsAttachments(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)

	updated, err := f.service.Update(context.Background(), owner, res.Report.ID, Input{
		Date:    "2025-03-04",
		Title:   "Retrospective",
		Content: "What went well.",
	}, []Upload{{Name: "b.txt", Content: []byte("b")}})
	require.NoError(t, err)

	r := updated.Report
	assert.Equal(t, "Retrospective", r.Title)
	assert.Equal(t, time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, f.now, r.UpdatedAt)
	require.Len(t, r.Attachments, 2)
	assert.Equal(t, "a.txt", r.Attachments[0].Name)
	assert.Equal(t, "b.txt", r.Attachments[1].Name)

	stored, err := f.store.Find(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Attachments, 2)
}

func TestUpdateRejectsOtherUsers(t *testing.T) {
	f := newFixture(t)

	res, err := f.service.Create(context.Background(), uuid.New(), validInput(), nil)
	require.NoError(t, err)

	_, err = f.service.Update(context.Background(), uuid.New(), res.Report.ID, validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, f.bucket.Paths(), "nothing uploaded for foreign reports")
}

func TestUpdateFailureRemovesNewFiles(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), nil)
	require.NoError(t, err)

	f.store.FailUpdate = true

	_, err = f.service.Update(context.Background(), owner, res.Report.ID, validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	require.Error(t, err)
	assert.Empty(t, f.bucket.Paths())
}

func TestRemoveAttachment(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), []Upload{
		{Name: "a.txt", Content: []byte("a")},
		{Name: "b.txt", Content: []byte("b")},
	})
	require.NoError(t, err)

	id := res.Report.ID
	removed := res.Report.Attachments[0].Path
	kept := res.Report.Attachments[1].Path

	r, err := f.service.RemoveAttachment(context.Background(), owner, id, 0, removed)
	require.NoError(t, err)
	require.Len(t, r.Attachments, 1)
	assert.Equal(t, "b.txt", r.Attachments[0].Name)
	assert.NotContains(t, f.bucket.Paths(), removed)

	_, err = f.service.RemoveAttachment(context.Background(), owner, id, 5, kept)
	assert.ErrorIs(t, err, ErrNoAttachment)

	_, err = f.service.RemoveAttachment(context.Background(), owner, id, 0, "")
	assert.ErrorIs(t, err, ErrNoAttachment)

	_, err = f.service.RemoveAttachment(context.Background(), uuid.New(), id, 0, kept)
	assert.ErrorIs(t, err, ErrForbidden)

	f.bucket.FailRemove = func(string) bool { return true }
	_, err = f.service.RemoveAttachment(context.Background(), owner, id, 0, kept)
	require.Error(t, err)

	stored, err := f.store.Find(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, stored.Attachments, 1, "list unchanged when storage refuses")
}

func TestRemoveAttachmentSentTwice(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), []Upload{
		{Name: "a.pdf", Content: pdfHeader},
		{Name: "b.pdf", Content: pdfHeader},
	})
	require.NoError(t, err)

	id := res.Report.ID
	first := res.Report.Attachments[0].Path
	second := res.Report.Attachments[1].Path

	_, err = f.service.RemoveAttachment(context.Background(), owner, id, 0, first)
	require.NoError(t, err)

	// Same form again: position 0 now holds b.pdf.
	_, err = f.service.RemoveAttachment(context.Background(), owner, id, 0, first)
	require.ErrorIs(t, err, ErrNoAttachment)

	assert.Equal(t, []string{second}, f.bucket.Paths())

	stored, err := f.store.Find(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored.Attachments, 1)
	assert.Equal(t, "b.pdf", stored.Attachments[0].Name)
	assert.Equal(t, second, stored.Attachments[0].Path)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.Delete(context.Background(), uuid.New(), res.Report.ID), ErrForbidden)

	require.NoError(t, f.service.Delete(context.Background(), owner, res.Report.ID))
	assert.Empty(t, f.bucket.Paths())

	_, err = f.store.Find(context.Background(), res.Report.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.purger.paths)
}

func TestDeleteSchedulesPurge(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	require.NoError(t, err)

	f.bucket.FailRemove = func(string) bool { return true }

	require.NoError(t, f.service.Delete(context.Background(), owner, res.Report.ID))
	require.Len(t, f.purger.paths, 1)
	assert.Equal(t, res.Report.Attachments.Paths(), f.purger.paths[0])
}

func TestDeleteKeepsFilesWhenRowStays(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, validInput(), []Upload{{Name: "a.txt", Content: []byte("a")}})
	require.NoError(t, err)

	f.store.FailDelete = true

	require.Error(t, f.service.Delete(context.Background(), owner, res.Report.ID))
	assert.Equal(t, res.Report.Attachments.Paths(), f.bucket.Paths())
	assert.Empty(t, f.purger.paths)

	stored, err := f.store.Find(context.Background(), res.Report.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Attachments, 1)
}

func TestListAndRecent(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	for _, d := range []string{"2025-02-01", "2025-03-01", "2025-02-27"} {
		in := validInput()
		in.Date = d

		_, err := f.service.Create(context.Background(), owner, in, nil)
		require.NoError(t, err)
	}

	_, err := f.service.Create(context.Background(), uuid.New(), validInput(), nil)
	require.NoError(t, err)

	list, err := f.service.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-03-01", list[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-02-01", list[2].Date.Format("2006-01-02"))

	recent, err := f.service.Recent(context.Background(), owner, 7)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-02-27", recent[0].Date.Format("2006-01-02"))
}

func TestExportXLSX(t *testing.T) {
	list := []models.Report{
		{
			Date:    time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
			Title:   "Sprint review",
			Content: "Demo",
			Attachments: models.Attachments{
				{Name: "a.pdf", Size: 2048},
			},
		},
	}

	buf, err := ExportXLSX(list, ExportHeaders{Date: "Date", Title: "Titre", Content: "Contenu", Attachments: "Fichiers", CreatedAt: "Créé le", UpdatedAt: "Modifié le"})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Titre", rows[0][1])
	assert.Equal(t, "2025-03-03", rows[1][0])
	assert.Equal(t, "a.pdf (2 KB)", rows[1][3])
}
