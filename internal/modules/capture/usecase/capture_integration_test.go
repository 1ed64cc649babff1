package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	captureout "fieldcap/internal/modules/capture/adapter/out"
	"fieldcap/internal/modules/capture/domain"
	"fieldcap/internal/modules/capture/dto"
	capturein "fieldcap/internal/modules/capture/port/in"
	"fieldcap/internal/modules/capture/service"
	"fieldcap/internal/modules/capture/usecase"
	galleryout "fieldcap/internal/modules/gallery/adapter/out"
	gallerydto "fieldcap/internal/modules/gallery/dto"
	galleryin "fieldcap/internal/modules/gallery/port/in"
	galleryservice "fieldcap/internal/modules/gallery/service"
	galleryusecase "fieldcap/internal/modules/gallery/usecase"
	handoffout "fieldcap/internal/modules/handoff/adapter/out"
	handoffin "fieldcap/internal/modules/handoff/port/in"
	handoffservice "fieldcap/internal/modules/handoff/service"
	handoffusecase "fieldcap/internal/modules/handoff/usecase"
	"fieldcap/internal/platform/clock"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/kv"
	"fieldcap/internal/platform/metrics"
)

type stubDevice struct{ shots int }

func (d *stubDevice) RequestPermission(context.Context, domain.Permission) (bool, error) {
	return true, nil
}

func (d *stubDevice) LastKnownPosition(context.Context) (domain.Position, bool, error) {
	return domain.Position{}, false, nil
}

func (d *stubDevice) CurrentPosition(context.Context) (domain.Position, error) {
	return domain.Position{Lat: 0.3476, Lon: 32.5825}, nil
}

func (d *stubDevice) TakePhoto(context.Context) (string, error) {
	d.shots++
	return fmt.Sprintf("file:///dcim/%d.jpg", d.shots), nil
}

func (d *stubDevice) ReadPhoto(context.Context, string) ([]byte, string, error) {
	return []byte("jpeg"), "image/jpeg", nil
}

func (d *stubDevice) SaveToLibrary(context.Context, string) error { return nil }

func (d *stubDevice) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "Kampala", nil
}

type stubIdentity struct {
	id  int64
	err error
}

func (s stubIdentity) CurrentUserID(context.Context) (int64, bool, error) {
	return s.id, s.id > 0, s.err
}

type system struct {
	capture capturein.Usecase
	gallery galleryin.Usecase
	handoff handoffin.Usecase
}

func newSystem(t *testing.T, identity stubIdentity) system {
	t.Helper()
	store := kv.NewMemoryStore()
	gallery := galleryusecase.NewInteractor(galleryservice.NewGalleryService(galleryout.NewKVPhotoLog(store, nil), time.UTC, nil))
	handoff := handoffusecase.NewInteractor(handoffservice.NewHandoffService(clock.SystemClock{}, handoffout.NewKVPayloadSlot(store, nil), nil))
	coord := service.NewCoordinator(service.Deps{
		Device:  &stubDevice{},
		Objects: captureout.Unconfigured{},
		Records: captureout.NewKVRecords(store, nil),
		Photos:  captureout.NewGalleryBridge(gallery),
		Handoff: captureout.NewHandoffBridge(handoff),
		Metrics: metrics.NewRegistry().Capture,
	}, service.Options{Bucket: "geo-images", Table: "geo_images", WatchInterval: time.Hour})
	uc := usecase.NewInteractor(coord, identity, time.Second, nil)
	t.Cleanup(func() { _ = uc.Stop(context.Background()) })
	return system{capture: uc, gallery: gallery, handoff: handoff}
}

func TestMultiShotSessionEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sys := newSystem(t, stubIdentity{id: 9})

	status, err := sys.capture.Start(ctx, dto.StartInput{ExpectHandoff: true})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !status.Identified || status.Location != "Kampala" {
		t.Fatalf("unexpected start status %+v", status)
	}
	if _, err := sys.capture.ToggleMulti(ctx); err != nil {
		t.Fatalf("toggle multi: %v", err)
	}
	var ids []int64
	for i := 0; i < 2; i++ {
		if _, err := sys.capture.Shutter(ctx); err != nil {
			t.Fatalf("shutter: %v", err)
		}
		out, err := sys.capture.Confirm(ctx)
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if out.Storage != "local" || !strings.HasPrefix(out.QRPayload, "https://www.google.com/maps?q=") {
			t.Fatalf("expected local fallback without object storage, got %+v", out)
		}
		ids = append(ids, out.PhotoID)
	}

	finish, err := sys.capture.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finish.Next != "return_to_form" || finish.Count != 2 {
		t.Fatalf("unexpected finish %+v", finish)
	}

	payload, err := sys.handoff.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	wantIDs := fmt.Sprintf("%d,%d", ids[0], ids[1])
	if payload.ImageIDs != wantIDs || payload.TotalImages != "2" || payload.PrimaryGeoImageID != fmt.Sprint(ids[0]) {
		t.Fatalf("unexpected payload %+v, want ids %s", payload, wantIDs)
	}
	if payload.Latitude != "0.347600" || payload.Location != "Kampala" {
		t.Fatalf("unexpected payload coordinates %+v", payload)
	}

	folders, err := sys.gallery.ListFolders(ctx, gallerydto.ListFoldersInput{})
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 1 || folders[0].Count != 2 || folders[0].ID != finish.SessionID {
		t.Fatalf("expected one session folder, got %+v", folders)
	}

	rows, err := sys.capture.SessionRecords(ctx, finish.SessionID)
	if err != nil || len(rows) != 2 || rows[0].IsPrimary {
		t.Fatalf("unexpected remote rows %+v %v", rows, err)
	}
}

func TestIdentityFailureLeavesNothingBehind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sys := newSystem(t, stubIdentity{err: errors.New("auth service down")})
	status, err := sys.capture.Start(ctx, dto.StartInput{})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if status.Identified {
		t.Fatalf("identity should be unresolved")
	}
	if _, err := sys.capture.Shutter(ctx); err != nil {
		t.Fatalf("shutter: %v", err)
	}
	_, err = sys.capture.Confirm(ctx)
	if !errors.Is(err, apperrors.ErrIdentityUnresolved) {
		t.Fatalf("expected identity error, got %v", err)
	}
	var userErr *dto.UserError
	if !errors.As(err, &userErr) || !strings.Contains(userErr.Message, "Sign in again") {
		t.Fatalf("expected an enumerator-facing message, got %v", err)
	}
	photos, err := sys.gallery.ListPhotos(ctx)
	if err != nil || len(photos) != 0 {
		t.Fatalf("expected no photos, got %+v %v", photos, err)
	}
	if _, err := sys.handoff.Peek(ctx); !errors.Is(err, apperrors.ErrNoHandoff) {
		t.Fatalf("expected no hand-off, got %v", err)
	}
}
