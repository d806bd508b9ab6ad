package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/api/validators"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
)

func invalidField(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithField(field)
}

// parseOptionalDate accepts RFC3339 timestamps or bare dates.
func parseOptionalDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, invalidField(field, "must be a date or RFC3339 timestamp")
	}
	return &t, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := validators.ParseURLUUID(*raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseUUIDList(raw []string, field string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := validators.ParseURLUUID(value, field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
