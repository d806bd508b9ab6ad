package enums

import "fmt"

// MessageContentType classifies a chat message payload. Non-text messages
// require an attachment reference.
type MessageContentType string

const (
	MessageContentTypeText     MessageContentType = "text"
	MessageContentTypeImage    MessageContentType = "image"
	MessageContentTypeVideo    MessageContentType = "video"
	MessageContentTypeDocument MessageContentType = "document"
)

var validMessageContentTypes = []MessageContentType{
	MessageContentTypeText,
	MessageContentTypeImage,
	MessageContentTypeVideo,
	MessageContentTypeDocument,
}

// String implements fmt.Stringer.
func (m MessageContentType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MessageContentType.
func (m MessageContentType) IsValid() bool {
	for _, candidate := range validMessageContentTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMessageContentType converts raw input into a MessageContentType.
func ParseMessageContentType(value string) (MessageContentType, error) {
	for _, candidate := range validMessageContentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message content type %q", value)
}
