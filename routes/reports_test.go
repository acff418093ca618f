package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"alternanceetmoi.fr/reports/controllers"
	"alternanceetmoi.fr/reports/helpers"
	"alternanceetmoi.fr/reports/reports"
	"alternanceetmoi.fr/reports/session"
	"alternanceetmoi.fr/reports/storage"
	"alternanceetmoi.fr/reports/views"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type reportsFixture struct {
	app     *fiber.App
	owner   uuid.UUID
	store   *reports.MemoryStore
	bucket  *storage.MemoryBucket
	service *reports.Service
}

// newReportsFixture mounts the report routes behind a fixed signed in user.
func newReportsFixture(t *testing.T) *reportsFixture {
	t.Helper()

	f := &reportsFixture{
		owner:  uuid.New(),
		store:  reports.NewMemoryStore(),
		bucket: storage.NewMemoryBucket("http://localhost:54321/storage/v1/object/public", "reports"),
	}

	f.service = reports.NewService(f.store, f.bucket, reports.WithMaxUploadSize(1024))
	controllers.UseReportService(f.service)

	f.app = New()
	f.app.Use(func(c *fiber.Ctx) error {
		c.Locals(helpers.SessionContextKey, &session.Claims{
			User: session.User{ID: f.owner, Email: "jane@example.com"},
		})

		return c.Next()
	})

	RegisterReportRoutes(f.app.Group("/reports"))
	RegisterErrorHandlers(f.app)

	return f
}

func (f *reportsFixture) create(t *testing.T, owner uuid.UUID, files ...reports.Upload) *reports.Result {
	t.Helper()

	res, err := f.service.Create(context.Background(), owner, reports.Input{
		Date:    "2025-03-03",
		Title:   "Sprint review",
		Content: "Demo of the export feature.",
	}, files)
	require.NoError(t, err)

	return res
}

type formFile struct {
	Name    string
	Content string
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	for _, file := range files {
		part, err := w.CreateFormFile("files", file.Name)
		require.NoError(t, err)

		_, err = io.WriteString(part, file.Content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAcceptLanguage, "fr")

	return req
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set(fiber.HeaderAcceptLanguage, "fr")

	return req
}

func flashOf(t *testing.T, resp *http.Response) views.Flash {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name != helpers.FlashCookie || len(c.Value) < 1 {
			continue
		}

		raw, err := base64.RawURLEncoding.DecodeString(c.Value)
		require.NoError(t, err)

		f := views.Flash{}
		require.NoError(t, json.Unmarshal(raw, &f))

		return f
	}

	t.Fatal("no flash message set")

	return views.Flash{}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}

func TestCreateReportHandler(t *testing.T) {
	f := newReportsFixture(t)

	resp, err := f.app.Test(multipartRequest(t, "/reports/new", map[string]string{
		"date":    "2025-03-03",
		"title":   "  Sprint review ",
		"content": "Demo of the export feature.",
	}, formFile{Name: "notes.txt", Content: "hello"}))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/reports", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, views.Flash{Kind: views.FlashSuccess, Message: "Rapport créé avec succès."}, flashOf(t, resp))

	list, err := f.service.List(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sprint review", list[0].Title)
	require.Len(t, list[0].Attachments, 1)
	assert.Equal(t, "notes.txt", list[0].Attachments[0].Name)
	assert.Equal(t, list[0].Attachments.Paths(), f.bucket.Paths())
}

func TestCreateReportHandlerSkippedUpload(t *testing.T) {
	f := newReportsFixture(t)

	resp, err := f.app.Test(multipartRequest(t, "/reports/new", map[string]string{
		"date":    "2025-03-03",
		"title":   "Sprint review",
		"content": "Demo",
	}, formFile{Name: "big.txt", Content: strings.Repeat("a", 2048)}))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	flash := flashOf(t, resp)
	assert.Equal(t, views.FlashError, flash.Kind)
	assert.Contains(t, flash.Message, "big.txt")

	list, err := f.service.List(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, list, 1, "the report is saved without the file")
	assert.Empty(t, list[0].Attachments)
}

func TestCreateReportHandlerInvalidForm(t *testing.T) {
	f := newReportsFixture(t)

	resp, err := f.app.Test(multipartRequest(t, "/reports/new", map[string]string{
		"date":    "2025-03-03",
		"title":   "   ",
		"content": "Demo",
	}))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Ce champ est obligatoire.")
	assert.Contains(t, body, `value="2025-03-03"`)

	list, err := f.service.List(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateReportHandler(t *testing.T) {
	f := newReportsFixture(t)
	r := f.create(t, f.owner, reports.Upload{Name: "a.txt", Content: []byte("a")}).Report

	resp, err := f.app.Test(multipartRequest(t, "/reports/"+r.ID.String()+"/edit", map[string]string{
		"date":    "2025-03-04",
		"title":   "Retrospective",
		"content": "What went well.",
	}, formFile{Name: "b.txt", Content: "b"}))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/reports", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, "Rapport mis à jour avec succès.", flashOf(t, resp).Message)

	stored, err := f.store.Find(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Retrospective", stored.Title)
	assert.Equal(t, "2025-03-04", stored.Date.Format("2006-01-02"))
	require.Len(t, stored.Attachments, 2)
	assert.Equal(t, "a.txt", stored.Attachments[0].Name)
	assert.Equal(t, "b.txt", stored.Attachments[1].Name)
}

func TestUpdateReportHandlerInvalidForm(t *testing.T) {
	f := newReportsFixture(t)
	r := f.create(t, f.owner, reports.Upload{Name: "a.txt", Content: []byte("a")}).Report

	resp, err := f.app.Test(multipartRequest(t, "/reports/"+r.ID.String()+"/edit", map[string]string{
		"date":    "",
		"title":   "Retrospective",
		"content": "What went well.",
	}))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, `value="Retrospective"`)
	assert.Contains(t, body, "a.txt", "existing attachments are listed again")

	stored, err := f.store.Find(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint review", stored.Title)
}

func TestReportHandlersCheckOwnership(t *testing.T) {
	f := newReportsFixture(t)
	r := f.create(t, uuid.New(), reports.Upload{Name: "a.txt", Content: []byte("a")}).Report
	base := "/reports/" + r.ID.String()

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"edit form", httptest.NewRequest(fiber.MethodGet, base+"/edit", nil)},
		{"update", multipartRequest(t, base+"/edit", map[string]string{"date": "2025-03-04", "title": "x", "content": "y"})},
		{"delete", formRequest(base+"/delete", url.Values{})},
		{"remove attachment", formRequest(base+"/attachments/0/delete", url.Values{"path": {r.Attachments[0].Path}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.app.Test(tt.req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		})
	}

	stored, err := f.store.Find(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Attachments, 1)
	assert.Equal(t, r.Attachments.Paths(), f.bucket.Paths())
}

func TestDeleteReportAttachmentHandlerSentTwice(t *testing.T) {
	f := newReportsFixture(t)
	r := f.create(t, f.owner,
		reports.Upload{Name: "a.pdf", Content: []byte("%PDF-1.4 a")},
		reports.Upload{Name: "b.pdf", Content: []byte("%PDF-1.4 b")},
	).Report

	path := "/reports/" + r.ID.String() + "/attachments/0/delete"
	form := url.Values{"path": {r.Attachments[0].Path}}
	kept := r.Attachments[1].Path

	resp, err := f.app.Test(formRequest(path, form))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/reports/"+r.ID.String()+"/edit", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, "Le fichier a été retiré du rapport.", flashOf(t, resp).Message)

	resp, err = f.app.Test(formRequest(path, form))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, views.FlashError, flashOf(t, resp).Kind)

	assert.Equal(t, []string{kept}, f.bucket.Paths())

	stored, err := f.store.Find(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, stored.Attachments, 1)
	assert.Equal(t, "b.pdf", stored.Attachments[0].Name)
}

func TestDeleteReportHandler(t *testing.T) {
	f := newReportsFixture(t)
	r := f.create(t, f.owner, reports.Upload{Name: "a.txt", Content: []byte("a")}).Report

	resp, err := f.app.Test(formRequest("/reports/"+r.ID.String()+"/delete", url.Values{}))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/reports", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, "Le rapport a été supprimé.", flashOf(t, resp).Message)
	assert.Empty(t, f.bucket.Paths())

	_, err = f.store.Find(context.Background(), r.ID)
	assert.ErrorIs(t, err, reports.ErrNotFound)

	resp, err = f.app.Test(formRequest("/reports/"+r.ID.String()+"/delete", url.Values{}))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetReportsHandler(t *testing.T) {
	f := newReportsFixture(t)
	f.create(t, f.owner)
	f.create(t, uuid.New())

	req := httptest.NewRequest(fiber.MethodGet, "/reports", nil)
	req.Header.Set(fiber.HeaderAcceptLanguage, "fr")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, strings.Count(readBody(t, resp), "Sprint review"))
}

func TestExportReportsHandler(t *testing.T) {
	f := newReportsFixture(t)
	f.create(t, f.owner, reports.Upload{Name: "a.txt", Content: []byte("a")})

	req := httptest.NewRequest(fiber.MethodGet, "/reports/export", nil)
	req.Header.Set(fiber.HeaderAcceptLanguage, "fr")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `attachment; filename="rapports-`)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "spreadsheetml")

	wb, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sprint review", rows[1][1])
}
