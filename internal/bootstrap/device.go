package bootstrap

import (
	"context"
	"errors"

	"fieldcap/internal/modules/capture/domain"
)

var errNoDevice = errors.New("no device plugin attached")

// unavailableDevice backs capture sessions opened only to query records.
type unavailableDevice struct{}

func (unavailableDevice) RequestPermission(context.Context, domain.Permission) (bool, error) {
	return false, errNoDevice
}

func (unavailableDevice) LastKnownPosition(context.Context) (domain.Position, bool, error) {
	return domain.Position{}, false, errNoDevice
}

func (unavailableDevice) CurrentPosition(context.Context) (domain.Position, error) {
	return domain.Position{}, errNoDevice
}

func (unavailableDevice) TakePhoto(context.Context) (string, error) { return "", errNoDevice }

func (unavailableDevice) ReadPhoto(context.Context, string) ([]byte, string, error) {
	return nil, "", errNoDevice
}

func (unavailableDevice) SaveToLibrary(context.Context, string) error { return errNoDevice }

func (unavailableDevice) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "", errNoDevice
}
