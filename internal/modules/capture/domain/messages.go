package domain

import (
	"errors"

	apperrors "fieldcap/internal/platform/errors"
)

// UserMessage maps a coordinator error to the text shown to the enumerator.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrLocationPermissionDenied):
		return "Location access is off. Enable it in settings to tag photos with coordinates."
	case errors.Is(err, apperrors.ErrCameraPermissionDenied):
		return "Camera access is required to take photos. Grant access and try again."
	case errors.Is(err, apperrors.ErrIdentityUnresolved):
		return "Could not identify the signed-in enumerator. Sign in again before saving."
	case errors.Is(err, apperrors.ErrSaveFailed):
		return "The photo could not be saved. Check your connection and try again."
	case errors.Is(err, apperrors.ErrLocalSaveFailed):
		return "The photo was uploaded but could not be saved on this device."
	case errors.Is(err, apperrors.ErrNoPendingPhoto):
		return "Take a photo first."
	case errors.Is(err, apperrors.ErrPhotoPending):
		return "Confirm or discard the current photo first."
	case errors.Is(err, apperrors.ErrEmptySession):
		return "No photos were captured in this session."
	default:
		return "Something went wrong. Please try again."
	}
}
