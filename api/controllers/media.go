package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/media"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// multipartMemoryLimit bounds how much of the form is buffered in memory;
// larger files spill to temp files.
const multipartMemoryLimit = 8 * 1024 * 1024

// UploadMedia accepts a multipart form with a `file` part and a `kind` field
// and stores the file as a media row owned by the caller.
func UploadMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "request must be multipart form data").WithField("file"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		kind, err := enums.ParseMediaKind(r.FormValue("kind"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "kind must be one of image, video, document").WithField("kind"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "This field is required.").WithField("file"))
			return
		}
		defer file.Close()

		actor := middleware.UserFromContext(r.Context())
		row, err := svc.Upload(r.Context(), media.UploadParams{
			OwnerID:     actor.ID,
			Kind:        kind,
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, row)
	}
}

// GetMedia returns a media row's metadata.
func GetMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "mediaID"), "mediaID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// DownloadMedia streams the stored file back to the caller.
func DownloadMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "mediaID"), "mediaID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, reader, err := svc.Open(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer reader.Close()

		w.Header().Set("Content-Type", row.ContentType)
		w.Header().Set("Content-Length", strconv.FormatInt(row.SizeBytes, 10))
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", row.FileName))
		if _, err := io.Copy(w, reader); err != nil {
			logg.Error(r.Context(), "stream media", err)
		}
	}
}

// MyMedia lists the caller's uploads.
func MyMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.UserFromContext(r.Context())
		rows, err := svc.ListMine(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// DeleteMedia soft-deletes a media row owned by the caller.
func DeleteMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(chi.URLParam(r, "mediaID"), "mediaID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.Delete(r.Context(), actor.ID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
