// Package reports holds the report workflows shared by the page handlers:
// ownership checks, the insert-upload-patch sequence of new reports, edits
// that append attachments, and deletion together with stored files.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/storage"
	"alternanceetmoi.fr/reports/utils"
	"github.com/gabriel-vasile/mimetype"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("The report could not be found.")
	ErrForbidden     = errors.New("The report belongs to another user.")
	ErrInvalidInput  = errors.New("The report data is invalid.")
	ErrNoRowsUpdated = errors.New("The report update did not change any row.")
	ErrNoAttachment  = errors.New("The attachment does not exist.")
	ErrFileTooLarge  = errors.New("The file exceeds the maximum upload size.")
)

// Upload is a file submitted with a report form.
type Upload struct {
	Name    string
	Content []byte
}

// Purger schedules removal of stored files that could not be deleted inline.
type Purger interface {
	SchedulePurge(paths []string) error
}

// Result reports the outcome of a save. Failed lists uploads that were
// skipped, the report itself was saved.
type Result struct {
	Report *models.Report
	Failed []string
}

// Service runs the report workflows over a store and an attachment bucket.
type Service struct {
	store   Store
	bucket  storage.Bucket
	purger  Purger
	now     func() time.Time
	newName func(ext string) string
	maxSize int64
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNameGenerator sets how object names are drawn from a file extension.
func WithNameGenerator(f func(ext string) string) Option {
	return func(s *Service) { s.newName = f }
}

// WithPurger sets where leftover files are sent for later removal.
func WithPurger(p Purger) Option {
	return func(s *Service) { s.purger = p }
}

// WithMaxUploadSize sets the largest accepted file in bytes, 0 disables the check.
func WithMaxUploadSize(n int64) Option {
	return func(s *Service) { s.maxSize = n }
}

// NewService returns a Service with a 10 MiB upload limit and random object names.
func NewService(store Store, bucket storage.Bucket, opts ...Option) *Service {
	s := &Service{
		store:   store,
		bucket:  bucket,
		now:     time.Now,
		newName: randomObjectName,
		maxSize: 10 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func randomObjectName(ext string) string {
	if len(ext) < 1 {
		return uuid.NewString()
	}

	return uuid.NewString() + "." + ext
}

// ObjectPath returns where an attachment of a report is stored:
// <report id>/<random name>.<original extension>.
func (s *Service) ObjectPath(reportID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s", reportID.String(), s.newName(utils.FileExtension(fileName)))
}

// List returns the reports of an owner, newest first.
func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]models.Report, error) {
	if owner == uuid.Nil {
		return nil, ErrForbidden
	}

	return s.store.ListByOwner(ctx, owner)
}

// Get returns a report owned by the given user.
func (s *Service) Get(ctx context.Context, owner uuid.UUID, id uuid.UUID) (*models.Report, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}

	r, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !r.IsOwnedBy(owner) {
		return nil, ErrForbidden
	}

	return r, nil
}

// Create inserts the report with an empty attachment list, uploads the files
// one after the other and patches the row with the uploaded descriptors.
func (s *Service) Create(ctx context.Context, owner uuid.UUID, in Input, files []Upload) (*Result, error) {
	if owner == uuid.Nil {
		return nil, ErrForbidden
	}

	if err := in.Normalize(); err != nil {
		return nil, err
	}

	date, err := utils.ParseReportDate(in.Date)
	if err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}

	r := &models.Report{
		UserID:      owner,
		Date:        date,
		Title:       in.Title,
		Content:     in.Content,
		Attachments: models.Attachments{},
	}

	if err := s.store.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("Could not create report: %w", err)
	}

	res := &Result{Report: r}

	if len(files) < 1 {
		return res, nil
	}

	uploaded, failed := s.uploadAll(ctx, r.ID, files)
	res.Failed = failed

	if len(uploaded) < 1 {
		return res, nil
	}

	if err := s.store.SetAttachments(ctx, r.ID, uploaded); err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not attach files to report '%s': %v", r.ID, err)

		// The files would be unreachable, do not leave them behind.
		s.removeOrPurge(ctx, uploaded.Paths())
		res.Failed = append(res.Failed, namesOf(uploaded)...)

		return res, nil
	}

	r.Attachments = uploaded

	return res, nil
}

// Update rewrites the editable fields and appends the new files to the
// existing attachments.
func (s *Service) Update(ctx context.Context, owner uuid.UUID, id uuid.UUID, in Input, files []Upload) (*Result, error) {
	r, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if err := in.Normalize(); err != nil {
		return nil, err
	}

	date, err := utils.ParseReportDate(in.Date)
	if err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}

	uploaded, failed := s.uploadAll(ctx, r.ID, files)

	all := make(models.Attachments, 0, len(r.Attachments)+len(uploaded))
	all = append(all, r.Attachments...)
	all = append(all, uploaded...)

	r.Date = date
	r.Title = in.Title
	r.Content = in.Content
	r.Attachments = all
	r.UpdatedAt = s.now()

	if err := s.store.Update(ctx, r); err != nil {
		s.removeOrPurge(ctx, uploaded.Paths())
		return nil, fmt.Errorf("Could not update report: %w", err)
	}

	return &Result{Report: r, Failed: failed}, nil
}

// RemoveAttachment deletes one stored file of a report and persists the
// shortened attachment list. The attachment at index must still be stored
// under path, otherwise ErrNoAttachment is returned and nothing changes.
func (s *Service) RemoveAttachment(ctx context.Context, owner uuid.UUID, id uuid.UUID, index int, path string) (*models.Report, error) {
	r, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(r.Attachments) || len(path) < 1 || r.Attachments[index].Path != path {
		return nil, ErrNoAttachment
	}

	if err := s.bucket.Remove(ctx, path); err != nil {
		return nil, fmt.Errorf("Could not delete file from storage: %w", err)
	}

	list := r.Attachments.Without(index)

	if err := s.store.SetAttachments(ctx, r.ID, list); err != nil {
		return nil, fmt.Errorf("Could not update attachments: %w", err)
	}

	r.Attachments = list

	return r, nil
}

// Delete removes the report then its stored files. A report whose row could
// not be deleted keeps its files. Files that could not be removed are handed
// to the purger and do not fail the deletion.
func (s *Service) Delete(ctx context.Context, owner uuid.UUID, id uuid.UUID) error {
	r, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, r.ID); err != nil {
		return fmt.Errorf("Could not delete report: %w", err)
	}

	s.removeOrPurge(ctx, r.Attachments.Paths())

	return nil
}

// Recent returns the reports of an owner dated within the last days.
func (s *Service) Recent(ctx context.Context, owner uuid.UUID, days int) ([]models.Report, error) {
	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -days)

	return s.store.ListSince(ctx, owner, since)
}

func (s *Service) uploadAll(ctx context.Context, reportID uuid.UUID, files []Upload) (models.Attachments, []string) {
	uploaded := models.Attachments{}
	failed := []string{}

	for _, f := range files {
		a, err := s.upload(ctx, reportID, f)
		if err != nil {
			zap.S().Errorf("Error uploading file '%s': %v", f.Name, err)
			failed = append(failed, f.Name)
			continue
		}

		uploaded = append(uploaded, *a)
	}

	return uploaded, failed
}

func (s *Service) upload(ctx context.Context, reportID uuid.UUID, f Upload) (*models.Attachment, error) {
	name := strings.TrimSpace(f.Name)
	if len(name) < 1 {
		return nil, errors.New("The file name is empty.")
	}

	size := int64(len(f.Content))
	if s.maxSize > 0 && size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	path := s.ObjectPath(reportID, name)
	mime := mimetype.Detect(f.Content).String()

	if err := s.bucket.Upload(ctx, path, f.Content, mime); err != nil {
		return nil, err
	}

	uploadedAt := s.now()

	return &models.Attachment{
		Name:       name,
		Path:       path,
		URL:        s.bucket.PublicURL(path),
		Size:       size,
		MimeType:   mime,
		UploadedAt: &uploadedAt,
	}, nil
}

func (s *Service) removeOrPurge(ctx context.Context, paths []string) {
	if len(paths) < 1 {
		return
	}

	err := s.bucket.Remove(ctx, paths...)
	if err == nil {
		return
	}

	zap.S().Warnf("Could not delete files from storage, scheduling purge: %v", err)

	if s.purger == nil {
		return
	}

	if err := s.purger.SchedulePurge(paths); err != nil {
		sentry.CaptureException(err)
		zap.S().Errorf("Could not schedule storage purge: %v", err)
	}
}

func namesOf(list models.Attachments) []string {
	names := make([]string, 0, len(list))

	for _, a := range list {
		names = append(names, a.Name)
	}

	return names
}
