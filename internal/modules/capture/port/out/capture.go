package out

import (
	"context"

	"fieldcap/internal/modules/capture/domain"
)

// Device is the phone: permissions, positioning, camera, media library and geocoder.
type Device interface {
	RequestPermission(ctx context.Context, permission domain.Permission) (bool, error)
	LastKnownPosition(ctx context.Context) (domain.Position, bool, error)
	CurrentPosition(ctx context.Context) (domain.Position, error)
	TakePhoto(ctx context.Context) (string, error)
	ReadPhoto(ctx context.Context, uri string) ([]byte, string, error)
	SaveToLibrary(ctx context.Context, uri string) error
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Identity returns the signed-in enumerator. ok is false when nobody is signed in.
type Identity interface {
	CurrentUserID(ctx context.Context) (int64, bool, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error
	PublicURL(bucket, path string) string
}

type RemoteRecords interface {
	Insert(ctx context.Context, table string, record domain.RemoteRecord) (int64, error)
	Select(ctx context.Context, table string, filter map[string]any) ([]domain.RemoteRecord, error)
}

// PhotoLog is the local photo log as the capture flow sees it.
type PhotoLog interface {
	AppendPhoto(ctx context.Context, photo domain.CapturedPhoto) error
	SessionPhotos(ctx context.Context, sessionID string) ([]domain.SessionPhoto, error)
}

type Handoff interface {
	Publish(ctx context.Context, summary domain.HandoffSummary) error
}
