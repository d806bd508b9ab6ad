package media

import (
	"mime"
	"strings"

	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
)

var allowedMimeTypesByKind = map[enums.MediaKind][]string{
	enums.MediaKindImage:    {"image/png", "image/jpeg", "image/webp", "image/gif"},
	enums.MediaKindVideo:    {"video/mp4", "video/webm"},
	enums.MediaKindDocument: {"application/pdf", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "text/plain"},
}

var mimeDescriptionsByKind = map[enums.MediaKind]string{
	enums.MediaKindImage:    "images",
	enums.MediaKindVideo:    "videos",
	enums.MediaKindDocument: "documents",
}

// validateContentType normalizes a Content-Type header value and checks it
// against the whitelist for the requested kind.
func validateContentType(kind enums.MediaKind, contentType string) (string, error) {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unrecognized content type").WithField("content_type")
	}
	parsed = strings.ToLower(parsed)

	allowed, ok := allowedMimeTypesByKind[kind]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported media kind").WithField("kind")
	}
	for _, candidate := range allowed {
		if candidate == parsed {
			return parsed, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "only "+mimeDescriptionsByKind[kind]+" are accepted for this kind").WithField("content_type")
}
