package out

import (
	"context"

	"fieldcap/internal/modules/capture/domain"
	captureout "fieldcap/internal/modules/capture/port/out"
	gallerydto "fieldcap/internal/modules/gallery/dto"
	galleryin "fieldcap/internal/modules/gallery/port/in"
	handoffdto "fieldcap/internal/modules/handoff/dto"
	handoffin "fieldcap/internal/modules/handoff/port/in"
)

// GalleryBridge appends confirmed captures to the gallery's photo log.
type GalleryBridge struct {
	gallery galleryin.Usecase
}

var _ captureout.PhotoLog = GalleryBridge{}

func NewGalleryBridge(gallery galleryin.Usecase) GalleryBridge {
	return GalleryBridge{gallery: gallery}
}

func (b GalleryBridge) AppendPhoto(ctx context.Context, photo domain.CapturedPhoto) error {
	_, err := b.gallery.AppendPhoto(ctx, gallerydto.PhotoInput{
		ID:        photo.ID,
		URI:       photo.URI,
		Lat:       photo.Position.Lat,
		Lon:       photo.Position.Lon,
		Acc:       photo.Position.Accuracy,
		CreatedAt: photo.CreatedAt,
		SessionID: photo.SessionID,
	})
	return err
}

func (b GalleryBridge) SessionPhotos(ctx context.Context, sessionID string) ([]domain.SessionPhoto, error) {
	photos, err := b.gallery.SessionPhotos(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SessionPhoto, 0, len(photos))
	for _, photo := range photos {
		out = append(out, domain.SessionPhoto{ID: photo.ID, Lat: photo.Lat, Lon: photo.Lon})
	}
	return out, nil
}

// HandoffBridge publishes capture summaries on the hand-off channel.
type HandoffBridge struct {
	handoff handoffin.Usecase
}

var _ captureout.Handoff = HandoffBridge{}

func NewHandoffBridge(handoff handoffin.Usecase) HandoffBridge {
	return HandoffBridge{handoff: handoff}
}

func (b HandoffBridge) Publish(ctx context.Context, summary domain.HandoffSummary) error {
	_, err := b.handoff.Publish(ctx, handoffdto.PublishInput{
		PrimaryID: summary.PrimaryID,
		Latitude:  summary.Lat,
		Longitude: summary.Lon,
		Location:  summary.Location,
		ImageIDs:  summary.ImageIDs,
		Timestamp: summary.Timestamp,
	})
	return err
}
