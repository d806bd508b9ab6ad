package enums

import "fmt"

// MediaKind classifies a stored media object and drives which content
// types an upload will accept.
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
)

var mediaKindSet = map[MediaKind]struct{}{
	MediaKindImage:    {},
	MediaKindVideo:    {},
	MediaKindDocument: {},
}

func (m MediaKind) String() string { return string(m) }

// IsValid reports whether the kind is one of the known values.
func (m MediaKind) IsValid() bool {
	_, ok := mediaKindSet[m]
	return ok
}

// ParseMediaKind converts raw client input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	kind := MediaKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid media kind %q", value)
	}
	return kind, nil
}
