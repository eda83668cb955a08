package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/activitypass-api/internal/scheduling"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
)

// schedulingError maps core configuration failures onto typed API errors.
func schedulingError(err error) error {
	switch {
	case errors.Is(err, scheduling.ErrTermNotConfigured):
		return appErrors.Wrap(err, appErrors.ErrTermNotConfigured.Code, appErrors.ErrTermNotConfigured.Status, err.Error())
	case errors.Is(err, scheduling.ErrAnchorMismatch):
		return appErrors.Wrap(err, appErrors.ErrAnchorMismatch.Code, appErrors.ErrAnchorMismatch.Status, err.Error())
	default:
		return err
	}
}

func notFoundOr(err error, resource, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

func wrapInternal(err error, action string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}
