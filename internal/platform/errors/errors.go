package apperrors

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicatePhoto  = errors.New("photo id already exists")

	ErrLocationPermissionDenied = errors.New("location permission denied")
	ErrCameraPermissionDenied   = errors.New("camera permission denied")
	ErrIdentityUnresolved       = errors.New("enumerator identity unresolved")
	ErrSaveFailed               = errors.New("capture save failed")
	ErrLocalSaveFailed          = errors.New("local photo save failed")
	ErrNoPendingPhoto           = errors.New("no pending photo")
	ErrPhotoPending             = errors.New("a photo is awaiting confirmation")
	ErrEmptySession             = errors.New("session has no photos")

	ErrNoHandoff = errors.New("no pending hand-off")
)
