package controllers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/helpers"
	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/reports"
	"alternanceetmoi.fr/reports/utils"
	"alternanceetmoi.fr/reports/views"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxChips int = 3

var reportService = app.Reports

// UseReportService makes the report handlers run against s instead of the
// service built from the configured database and bucket.
func UseReportService(s *reports.Service) {
	reportService = func() *reports.Service { return s }
}

type reportRow struct {
	Report models.Report
	Chips  models.Attachments
	More   int
}

func newReportRow(r models.Report) reportRow {
	row := reportRow{Report: r, Chips: r.Attachments}

	if len(r.Attachments) > maxChips {
		row.Chips = r.Attachments[:maxChips]
		row.More = len(r.Attachments) - maxChips
	}

	return row
}

func GetReports(c *fiber.Ctx) error {
	u := helpers.CurrentUser(c)

	list, err := reportService().List(c.UserContext(), u.ID)
	if err != nil {
		return reportError(err, "ErrorLoadReport")
	}

	rows := make([]reportRow, 0, len(list))
	for _, r := range list {
		rows = append(rows, newReportRow(r))
	}

	data := fiber.Map{"Rows": rows, "Count": len(list)}

	if len(list) > 0 {
		latest := list[0].Date
		data["Latest"] = &latest
	}

	return helpers.Render(c, fiber.StatusOK, "pages/reports", helpers.NewPage(c, "ReportsTitle", data))
}

func NewReportForm(c *fiber.Ctx) error {
	in := reports.Input{Date: utils.Today(time.Now(), utils.DefaultLocation())}

	return renderReportForm(c, fiber.StatusOK, nil, in, nil)
}

func CreateReport(c *fiber.Ctx) error {
	u := helpers.CurrentUser(c)

	in := reports.Input{}
	if err := c.BodyParser(&in); err != nil {
		zap.S().Errorf("Error parsing input data: %v", err)
	}

	files := formUploads(c)

	res, err := reportService().Create(c.UserContext(), u.ID, in, files)
	if err != nil {
		var ferrs reports.FieldErrors
		if errors.As(err, &ferrs) {
			return renderReportForm(c, fiber.StatusUnprocessableEntity, nil, in, fiber.Map(ferrs))
		}

		return reportError(err, "ErrorSaveReport")
	}

	saved(c, res, "ReportCreated")

	return c.Redirect("/reports", fiber.StatusSeeOther)
}

func EditReportForm(c *fiber.Ctx) error {
	u := helpers.CurrentUser(c)

	r, err := reportService().Get(c.UserContext(), u.ID, reportID(c))
	if err != nil {
		return reportError(err, "ErrorLoadReport")
	}

	in := reports.Input{
		Date:    r.Date.Format(utils.DateLayout),
		Title:   r.Title,
		Content: r.Content,
	}

	return renderReportForm(c, fiber.StatusOK, r, in, nil)
}

func UpdateReport(c *fiber.Ctx) error {
	u := helpers.CurrentUser(c)
	id := reportID(c)

	in := reports.Input{}
	if err := c.BodyParser(&in); err != nil {
		zap.S().Errorf("Error parsing input data: %v", err)
	}

	files := formUploads(c)

	res, err := reportService().Update(c.UserContext(), u.ID, id, in, files)
	if err != nil {
		var ferrs reports.FieldErrors
		if !errors.As(err, &ferrs) {
			return reportError(err, "ErrorSaveReport")
		}

		r, err := reportService().Get(c.UserContext(), u.ID, id)
		if err != nil {
			return reportError(err, "ErrorLoadReport")
		}

		return renderReportForm(c, fiber.StatusUnprocessableEntity, r, in, fiber.Map(ferrs))
	}

	saved(c, res, "ReportUpdated")

	return c.Redirect("/reports", fiber.StatusSeeOther)
}

func DeleteReportAttachment(c *fiber.Ctx) error {
	u := helpers.CurrentUser(c)
	id := reportID(c)

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "ErrorNotFound")
	}

	path := strings.TrimSpace(c.FormValue("path"))

	if _, err := reportService().RemoveAttachment(c.UserContext(), u.ID, id, index, path); err != nil {
		if errors.Is(err, reports.ErrNoAttachment) {
			// Stale form, e.g. sent twice or after another tab changed the list.
			helpers.SetFlash(c, views.FlashError, helpers.T(c, "ErrorAttachmentGone", nil))
			return c.Redirect(fmt.Sprintf("/reports/%s/edit", id), fiber.StatusSeeOther)
		}

		if errors.Is(err, reports.ErrNotFound) || errors.Is(err, reports.ErrForbidden) {
			return reportError(err, "ErrorDeleteFile")
		}

		sentry.CaptureException(err)
		zap.S().Errorf("Could not remove attachment %d of report '%s': %v", index, id, err)
		helpers.SetFlash(c, views.FlashError, helpers.T(c, "ErrorDeleteFile", nil))
	} else {
		helpers.SetFlash(c, views.FlashSuccess, helpers.T(c, "AttachmentRemoved", nil))
	}

	return c.Redirect(fmt.Sprintf("/reports/%s/edit", id), fiber.StatusSeeOther)
}

func DeleteReport(c *fiber.Ctx) error {
	u := helpers.CurrentUser(c)

	if err := reportService().Delete(c.UserContext(), u.ID, reportID(c)); err != nil {
		return reportError(err, "ErrorDeleteReport")
	}

	helpers.SetFlash(c, views.FlashSuccess, helpers.T(c, "ReportDeleted", nil))

	return c.Redirect("/reports", fiber.StatusSeeOther)
}

func ExportReports(c *fiber.Ctx) error {
	u := helpers.CurrentUser(c)

	list, err := reportService().List(c.UserContext(), u.ID)
	if err != nil {
		return reportError(err, "ErrorExport")
	}

	buf, err := reports.ExportXLSX(list, reports.ExportHeaders{
		Date:        helpers.T(c, "ExportDate", nil),
		Title:       helpers.T(c, "ExportTitle", nil),
		Content:     helpers.T(c, "ExportContent", nil),
		Attachments: helpers.T(c, "ExportAttachments", nil),
		CreatedAt:   helpers.T(c, "ExportCreatedAt", nil),
		UpdatedAt:   helpers.T(c, "ExportUpdatedAt", nil),
	})
	if err != nil {
		return reportError(err, "ErrorExport")
	}

	c.Attachment(fmt.Sprintf("rapports-%s.xlsx", utils.Today(time.Now(), utils.DefaultLocation())))

	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func renderReportForm(c *fiber.Ctx, status int, r *models.Report, in reports.Input, errs fiber.Map) error {
	data := fiber.Map{
		"Form":    in,
		"Action":  "/reports/new",
		"MaxSize": utils.MaxUploadSize(),
	}

	titleID := "ReportNewTitle"

	if r != nil {
		data["Report"] = r
		data["Action"] = fmt.Sprintf("/reports/%s/edit", r.ID)
		titleID = "ReportEditTitle"
	}

	if len(errs) > 0 {
		data["Errors"] = errs
	}

	return helpers.Render(c, status, "pages/report_form", helpers.NewPage(c, titleID, data))
}

// saved flashes the outcome of a save. Skipped uploads take precedence since
// the user has to send them again.
func saved(c *fiber.Ctx, res *reports.Result, messageID string) {
	if len(res.Failed) > 0 {
		helpers.SetFlash(c, views.FlashError, helpers.T(c, "UploadsFailed", map[string]any{
			"Files": strings.Join(res.Failed, ", "),
		}))

		return
	}

	helpers.SetFlash(c, views.FlashSuccess, helpers.T(c, messageID, nil))
}

func reportID(c *fiber.Ctx) uuid.UUID {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil
	}

	return id
}

// reportError maps service errors to the error page.
func reportError(err error, messageID string) error {
	switch {
	case errors.Is(err, reports.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "ErrorReportNotFound")
	case errors.Is(err, reports.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "ErrorReportForbidden")
	}

	sentry.CaptureException(err)
	zap.S().Errorf("Report operation failed: %v", err)

	return fiber.NewError(fiber.StatusInternalServerError, messageID)
}

// formUploads reads the files of a multipart form. Forms without files are
// not an error.
func formUploads(c *fiber.Ctx) []reports.Upload {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}

	files := []reports.Upload{}

	for _, fh := range form.File["files"] {
		if fh.Size == 0 && len(fh.Filename) < 1 {
			continue
		}

		f, err := fh.Open()
		if err != nil {
			zap.S().Errorf("Could not open uploaded file '%s': %v", fh.Filename, err)
			continue
		}

		content, err := io.ReadAll(f)
		f.Close()

		if err != nil {
			zap.S().Errorf("Could not read uploaded file '%s': %v", fh.Filename, err)
			continue
		}

		files = append(files, reports.Upload{Name: fh.Filename, Content: content})
	}

	return files
}
