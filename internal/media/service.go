package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// UploadParams describes one incoming file.
type UploadParams struct {
	OwnerID     uuid.UUID
	Kind        enums.MediaKind
	FileName    string
	ContentType string
	Body        io.Reader
}

// Service stores uploaded files on disk and tracks them as media rows.
// Resumes, posting attachments and chat attachments all go through here.
type Service interface {
	Upload(ctx context.Context, params UploadParams) (*models.Media, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Open(ctx context.Context, id uuid.UUID) (*models.Media, io.ReadCloser, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Media, error)
}

// ServiceParams groups dependencies for the media service.
type ServiceParams struct {
	Repo   *Repository
	Config config.MediaConfig
	Logger *logger.Logger
}

type service struct {
	repo     *Repository
	prefix   string
	maxBytes int64
	logg     *logger.Logger
}

// NewService builds the media service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.Config.StoragePrefix == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage prefix is required")
	}
	maxMB := params.Config.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 25
	}
	return &service{
		repo:     params.Repo,
		prefix:   params.Config.StoragePrefix,
		maxBytes: int64(maxMB) * 1024 * 1024,
		logg:     params.Logger,
	}, nil
}

func (s *service) Upload(ctx context.Context, params UploadParams) (*models.Media, error) {
	if params.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner is required").WithField("owner_id")
	}
	if params.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required").WithField("file")
	}
	contentType, err := validateContentType(params.Kind, params.ContentType)
	if err != nil {
		return nil, err
	}
	fileName := sanitizeFileName(params.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required").WithField("file")
	}

	id := uuid.New()
	relative := filepath.Join(params.OwnerID.String(), id.String()+filepath.Ext(fileName))
	absolute := filepath.Join(s.prefix, relative)

	size, err := s.writeFile(absolute, params.Body)
	if err != nil {
		return nil, err
	}

	row := &models.Media{
		EntityHeader: models.EntityHeader{ID: id},
		OwnerID:      params.OwnerID,
		Kind:         params.Kind,
		FileName:     fileName,
		ContentType:  contentType,
		SizeBytes:    size,
		StoragePath:  relative,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if removeErr := os.Remove(absolute); removeErr != nil {
			s.logg.Error(ctx, "orphaned media file left on disk", removeErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store media")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"media_id":   row.ID.String(),
		"media_kind": string(row.Kind),
		"size_bytes": size,
	}), "media uploaded")
	return row, nil
}

func (s *service) writeFile(absolute string, body io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(absolute), 0o750); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare media directory")
	}
	file, err := os.OpenFile(absolute, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create media file")
	}
	defer file.Close()

	// Read one byte past the cap so oversized uploads are detected without
	// buffering the whole stream.
	size, err := io.Copy(file, io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		os.Remove(absolute)
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write media file")
	}
	if size > s.maxBytes {
		os.Remove(absolute)
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d MB upload limit", s.maxBytes/(1024*1024))).WithField("file")
	}
	return size, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mediaLookupError(err)
	}
	return row, nil
}

func (s *service) Open(ctx context.Context, id uuid.UUID) (*models.Media, io.ReadCloser, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, mediaLookupError(err)
	}
	file, err := os.Open(filepath.Join(s.prefix, row.StoragePath))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open media file")
	}
	return row, file, nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mediaLookupError(err)
	}
	if row.OwnerID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *service) ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Media, error) {
	return s.repo.ListForOwner(ctx, ownerID)
}

func mediaLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
}

// sanitizeFileName strips path components and control characters so the
// original name is safe to echo back in Content-Disposition headers.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
