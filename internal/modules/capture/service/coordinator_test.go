package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"fieldcap/internal/modules/capture/domain"
	"fieldcap/internal/modules/capture/service"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/metrics"
)

type fakeDevice struct {
	mu          sync.Mutex
	denied      map[domain.Permission]bool
	pos         domain.Position
	hasPos      bool
	fixes       int
	shots       int
	label       string
	geocodeWait bool
	library     []string
	readErr     error
}

func newDevice() *fakeDevice {
	return &fakeDevice{denied: map[domain.Permission]bool{}, pos: domain.Position{Lat: -1.2921234567, Lon: 36.8219876543}, hasPos: true, label: "Nairobi"}
}

func (d *fakeDevice) RequestPermission(_ context.Context, p domain.Permission) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.denied[p], nil
}

func (d *fakeDevice) LastKnownPosition(context.Context) (domain.Position, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos, d.hasPos, nil
}

func (d *fakeDevice) CurrentPosition(context.Context) (domain.Position, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fixes++
	if !d.hasPos {
		return domain.Position{}, errors.New("no fix")
	}
	return d.pos, nil
}

func (d *fakeDevice) TakePhoto(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shots++
	return fmt.Sprintf("file:///dcim/shot-%d.jpg", d.shots), nil
}

func (d *fakeDevice) ReadPhoto(_ context.Context, uri string) ([]byte, string, error) {
	if d.readErr != nil {
		return nil, "", d.readErr
	}
	return []byte("jpeg:" + uri), "image/jpeg", nil
}

func (d *fakeDevice) SaveToLibrary(_ context.Context, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.library = append(d.library, uri)
	return nil
}

func (d *fakeDevice) ReverseGeocode(ctx context.Context, _, _ float64) (string, error) {
	if d.geocodeWait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return d.label, nil
}

func (d *fakeDevice) setPos(pos domain.Position) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = pos
	d.hasPos = true
}

func (d *fakeDevice) fixCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fixes
}

type fakeObjects struct {
	fail    bool
	uploads []string
}

func (o *fakeObjects) Upload(_ context.Context, bucket, path string, _ []byte, _ string) error {
	if o.fail {
		return errors.New("network unreachable")
	}
	o.uploads = append(o.uploads, bucket+"/"+path)
	return nil
}

func (o *fakeObjects) PublicURL(bucket, path string) string {
	return "https://objects.example/" + bucket + "/" + path
}

type fakeRecords struct {
	fail    bool
	nextID  int64
	inserts []domain.RemoteRecord
}

func (r *fakeRecords) Insert(_ context.Context, table string, record domain.RemoteRecord) (int64, error) {
	if r.fail {
		return 0, errors.New("connection reset")
	}
	if table != "geo_images" {
		return 0, fmt.Errorf("unexpected table %s", table)
	}
	r.nextID++
	record.ID = r.nextID
	r.inserts = append(r.inserts, record)
	return r.nextID, nil
}

func (r *fakeRecords) Select(_ context.Context, _ string, filter map[string]any) ([]domain.RemoteRecord, error) {
	out := []domain.RemoteRecord{}
	for _, record := range r.inserts {
		if record.SessionID == filter["session_id"] {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakePhotos struct {
	fail   bool
	photos []domain.CapturedPhoto
}

func (p *fakePhotos) AppendPhoto(_ context.Context, photo domain.CapturedPhoto) error {
	if p.fail {
		return errors.New("disk full")
	}
	p.photos = append(p.photos, photo)
	return nil
}

func (p *fakePhotos) SessionPhotos(_ context.Context, sessionID string) ([]domain.SessionPhoto, error) {
	out := []domain.SessionPhoto{}
	for _, photo := range p.photos {
		if photo.SessionID == sessionID {
			out = append(out, domain.SessionPhoto{ID: photo.ID, Lat: photo.Position.Lat, Lon: photo.Position.Lon})
		}
	}
	return out, nil
}

type fakeHandoff struct {
	published []domain.HandoffSummary
}

func (h *fakeHandoff) Publish(_ context.Context, summary domain.HandoffSummary) error {
	h.published = append(h.published, summary)
	return nil
}

type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixedIDs struct{}

func (fixedIDs) New() string { return "obj" }

type harness struct {
	device  *fakeDevice
	objects *fakeObjects
	records *fakeRecords
	photos  *fakePhotos
	handoff *fakeHandoff
	metrics metrics.Capture
	coord   *service.Coordinator
}

func newHarness(t *testing.T, opts service.Options) *harness {
	t.Helper()
	h := &harness{
		device:  newDevice(),
		objects: &fakeObjects{},
		records: &fakeRecords{},
		photos:  &fakePhotos{},
		handoff: &fakeHandoff{},
		metrics: metrics.NewRegistry().Capture,
	}
	if opts.Table == "" {
		opts.Table = "geo_images"
	}
	if opts.Bucket == "" {
		opts.Bucket = "geo-images"
	}
	if opts.WatchInterval == 0 {
		opts.WatchInterval = time.Hour
	}
	h.coord = service.NewCoordinator(service.Deps{
		Device:  h.device,
		Objects: h.objects,
		Records: h.records,
		Photos:  h.photos,
		Handoff: h.handoff,
		Clock:   &tickingClock{now: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)},
		IDs:     fixedIDs{},
		Metrics: h.metrics,
	}, opts)
	t.Cleanup(h.coord.Stop)
	return h
}

func (h *harness) start(t *testing.T, flow domain.FlowContext) domain.Status {
	t.Helper()
	status, err := h.coord.Start(context.Background(), flow)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return status
}

func (h *harness) shoot(t *testing.T) domain.ConfirmResult {
	t.Helper()
	ctx := context.Background()
	if _, err := h.coord.Shutter(ctx); err != nil {
		t.Fatalf("shutter: %v", err)
	}
	result, err := h.coord.Confirm(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return result
}

var signedIn = domain.FlowContext{UserID: 42, Resolved: true}

func TestSingleShotUploadsAndNavigatesToFolders(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	status := h.start(t, signedIn)
	if status.Location != "Nairobi" || status.Live == nil {
		t.Fatalf("expected primed location, got %+v", status)
	}

	result := h.shoot(t)
	if result.Next != domain.NextFolders || result.Storage != domain.StorageRemote {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.URI != "https://objects.example/geo-images/42/obj.jpg" || result.QRPayload != result.URI {
		t.Fatalf("public url should be both reference and qr payload: %+v", result)
	}
	if !strings.HasPrefix(result.SessionID, "single-") {
		t.Fatalf("expected single-shot session id, got %s", result.SessionID)
	}
	if len(h.records.inserts) != 1 {
		t.Fatalf("expected one metadata row, got %d", len(h.records.inserts))
	}
	row := h.records.inserts[0]
	if !row.IsPrimary || row.Sequence != 1 || row.UserID != 42 || row.Latitude != -1.292123 || row.Longitude != 36.821988 {
		t.Fatalf("unexpected metadata row %+v", row)
	}
	if len(h.photos.photos) != 1 || h.photos.photos[0].ID != 1 || h.photos.photos[0].URI != result.URI {
		t.Fatalf("local record should mirror remote id and uri: %+v", h.photos.photos)
	}
	if len(h.handoff.published) != 0 {
		t.Fatalf("no hand-off expected")
	}
	if got := testutil.ToFloat64(h.metrics.Captures.WithLabelValues("remote")); got != 1 {
		t.Fatalf("expected one remote capture metric, got %v", got)
	}
	if len(h.device.library) != 1 {
		t.Fatalf("expected photo saved to media library")
	}
}

func TestUploadFailureFallsBackToLocalURI(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.objects.fail = true
	h.start(t, signedIn)

	result := h.shoot(t)
	if result.Storage != domain.StorageLocal || result.URI != "file:///dcim/shot-1.jpg" {
		t.Fatalf("expected local fallback, got %+v", result)
	}
	if result.QRPayload != "https://www.google.com/maps?q=-1.292123,36.821988" {
		t.Fatalf("expected map link payload, got %s", result.QRPayload)
	}
	if len(h.photos.photos) != 1 || h.photos.photos[0].URI != "file:///dcim/shot-1.jpg" {
		t.Fatalf("photo must still be logged locally: %+v", h.photos.photos)
	}
	if h.records.inserts[0].Storage != "local" {
		t.Fatalf("metadata should record local storage")
	}
	if got := testutil.ToFloat64(h.metrics.UploadFallbacks); got != 1 {
		t.Fatalf("expected one fallback, got %v", got)
	}
}

func TestUnreadablePhotoAlsoFallsBack(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.device.readErr = errors.New("file vanished")
	h.start(t, signedIn)
	result := h.shoot(t)
	if result.Storage != domain.StorageLocal || len(h.objects.uploads) != 0 {
		t.Fatalf("expected local fallback without upload, got %+v", result)
	}
}

func TestUnresolvedIdentityBlocksRemoteWrites(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.start(t, domain.FlowContext{})
	ctx := context.Background()
	if _, err := h.coord.Shutter(ctx); err != nil {
		t.Fatalf("shutter: %v", err)
	}
	_, err := h.coord.Confirm(ctx)
	if !errors.Is(err, apperrors.ErrIdentityUnresolved) {
		t.Fatalf("expected identity error, got %v", err)
	}
	if len(h.objects.uploads) != 0 || len(h.records.inserts) != 0 || len(h.photos.photos) != 0 {
		t.Fatalf("no writes allowed without identity")
	}
	if h.coord.Status().State != domain.StatePending {
		t.Fatalf("photo should stay pending for a retry")
	}
}

func TestMetadataInsertFailureIsFatal(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.records.fail = true
	h.start(t, signedIn)
	ctx := context.Background()
	if _, err := h.coord.Shutter(ctx); err != nil {
		t.Fatalf("shutter: %v", err)
	}
	_, err := h.coord.Confirm(ctx)
	if !errors.Is(err, apperrors.ErrSaveFailed) {
		t.Fatalf("expected save failure, got %v", err)
	}
	if len(h.photos.photos) != 0 {
		t.Fatalf("local log must not be written after metadata failure")
	}
	if len(h.objects.uploads) != 1 {
		t.Fatalf("upload stays committed, got %d uploads", len(h.objects.uploads))
	}
	if got := testutil.ToFloat64(h.metrics.SaveFailures.WithLabelValues("metadata")); got != 1 {
		t.Fatalf("expected metadata failure metric, got %v", got)
	}
}

func TestLocalAppendFailureIsReported(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.photos.fail = true
	h.start(t, signedIn)
	ctx := context.Background()
	if _, err := h.coord.Shutter(ctx); err != nil {
		t.Fatalf("shutter: %v", err)
	}
	if _, err := h.coord.Confirm(ctx); !errors.Is(err, apperrors.ErrLocalSaveFailed) {
		t.Fatalf("expected local save failure, got %v", err)
	}
	if len(h.records.inserts) != 1 {
		t.Fatalf("metadata row stays committed")
	}
}

func TestSingleShotHandoff(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.start(t, domain.FlowContext{UserID: 7, Resolved: true, ExpectHandoff: true})
	result := h.shoot(t)
	if result.Next != domain.NextReturnToForm {
		t.Fatalf("expected return to form, got %s", result.Next)
	}
	if len(h.handoff.published) != 1 {
		t.Fatalf("expected one hand-off")
	}
	summary := h.handoff.published[0]
	if summary.PrimaryID != result.PhotoID || len(summary.ImageIDs) != 1 || summary.Location != "Nairobi" {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestMultiShotFinishWithHandoff(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.start(t, domain.FlowContext{UserID: 7, Resolved: true, ExpectHandoff: true})
	status := h.coord.ToggleMulti()
	if !status.Multi || status.SessionID == "" || strings.HasPrefix(status.SessionID, "single-") {
		t.Fatalf("expected multi session, got %+v", status)
	}

	var ids []int64
	for i := 0; i < 3; i++ {
		result := h.shoot(t)
		if result.Next != domain.NextContinue || result.SessionCount != i+1 || result.SessionID != status.SessionID {
			t.Fatalf("shot %d: unexpected result %+v", i, result)
		}
		ids = append(ids, result.PhotoID)
	}
	for i, row := range h.records.inserts {
		if row.IsPrimary || row.Sequence != i+1 {
			t.Fatalf("row %d: unexpected primary/sequence %+v", i, row)
		}
	}
	if len(h.handoff.published) != 0 {
		t.Fatalf("multi-shot confirms must not hand off")
	}

	finish, err := h.coord.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finish.Next != domain.NextReturnToForm || finish.Count != 3 {
		t.Fatalf("unexpected finish %+v", finish)
	}
	summary := h.handoff.published[0]
	if summary.PrimaryID != ids[0] || len(summary.ImageIDs) != 3 || summary.ImageIDs[2] != ids[2] {
		t.Fatalf("expected payload over %v, got %+v", ids, summary)
	}
	if h.coord.Status().Multi {
		t.Fatalf("finish should end the session")
	}
	if got := testutil.ToFloat64(h.metrics.Handoffs.WithLabelValues("multi")); got != 1 {
		t.Fatalf("expected one multi hand-off metric, got %v", got)
	}
}

func TestMultiShotFinishWithoutHandoffReportsCount(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.start(t, signedIn)
	h.coord.ToggleMulti()
	if _, err := h.coord.Finish(context.Background()); !errors.Is(err, apperrors.ErrEmptySession) {
		t.Fatalf("expected empty session error, got %v", err)
	}
	h.shoot(t)
	h.shoot(t)
	finish, err := h.coord.Finish(context.Background())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finish.Count != 2 || finish.Next != domain.NextFolders || len(h.handoff.published) != 0 {
		t.Fatalf("unexpected finish %+v", finish)
	}
}

func TestFrozenCoordinatesIgnoreLiveUpdates(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.start(t, signedIn)
	if status := h.coord.ToggleFreeze(); status.State != domain.StateFrozen {
		t.Fatalf("expected frozen state, got %s", status.State)
	}
	h.device.setPos(domain.Position{Lat: 10, Lon: 20})
	if _, err := h.coord.RefreshLocation(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	result := h.shoot(t)
	if result.Position.Lat != -1.292123 || result.Position.Lon != 36.821988 {
		t.Fatalf("expected frozen coordinates, got %+v", result.Position)
	}

	h.coord.ToggleFreeze()
	result = h.shoot(t)
	if result.Position.Lat != 10 || result.Position.Lon != 20 {
		t.Fatalf("expected live coordinates after unfreeze, got %+v", result.Position)
	}
}

func TestCameraDenialBlocksShutterUntilRetry(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.device.denied[domain.PermissionCamera] = true
	status := h.start(t, signedIn)
	if !status.CameraDenied {
		t.Fatalf("expected camera denial in status")
	}
	if _, err := h.coord.Shutter(context.Background()); !errors.Is(err, apperrors.ErrCameraPermissionDenied) {
		t.Fatalf("expected camera denial, got %v", err)
	}
	if _, err := h.coord.RetryCameraPermission(context.Background()); !errors.Is(err, apperrors.ErrCameraPermissionDenied) {
		t.Fatalf("retry should still be denied, got %v", err)
	}
	h.device.mu.Lock()
	h.device.denied[domain.PermissionCamera] = false
	h.device.mu.Unlock()
	if _, err := h.coord.RetryCameraPermission(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	h.shoot(t)
}

func TestLocationDenialCapturesWithoutCoordinates(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.device.denied[domain.PermissionLocation] = true
	status := h.start(t, signedIn)
	if !status.LocationDenied || status.Live != nil {
		t.Fatalf("expected no coordinates, got %+v", status)
	}
	if _, err := h.coord.RefreshLocation(context.Background()); !errors.Is(err, apperrors.ErrLocationPermissionDenied) {
		t.Fatalf("expected location denial, got %v", err)
	}
	result := h.shoot(t)
	if result.Position.Lat != 0 || result.Position.Lon != 0 {
		t.Fatalf("expected zero coordinates, got %+v", result.Position)
	}
}

func TestShutterAndCancelGuards(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	ctx := context.Background()
	if _, err := h.coord.Shutter(ctx); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("shutter before start should fail, got %v", err)
	}
	h.start(t, signedIn)
	if _, err := h.coord.Cancel(); !errors.Is(err, apperrors.ErrNoPendingPhoto) {
		t.Fatalf("expected no pending photo, got %v", err)
	}
	if _, err := h.coord.Confirm(ctx); !errors.Is(err, apperrors.ErrNoPendingPhoto) {
		t.Fatalf("expected no pending photo, got %v", err)
	}
	if _, err := h.coord.Shutter(ctx); err != nil {
		t.Fatalf("shutter: %v", err)
	}
	if _, err := h.coord.Shutter(ctx); !errors.Is(err, apperrors.ErrPhotoPending) {
		t.Fatalf("expected pending guard, got %v", err)
	}
	status, err := h.coord.Cancel()
	if err != nil || status.State != domain.StateIdle {
		t.Fatalf("cancel: %+v %v", status, err)
	}
	if len(h.records.inserts) != 0 {
		t.Fatalf("cancel must not write anything")
	}
}

func TestAccuracyThresholdIsClamped(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	if got := h.coord.SetAccuracyThreshold(500).AccuracyThreshold; got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := h.coord.SetAccuracyThreshold(0).AccuracyThreshold; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestReverseGeocodeTimesOut(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{GeocodeTimeout: 20 * time.Millisecond})
	h.device.geocodeWait = true
	started := time.Now()
	status := h.start(t, signedIn)
	if status.Location != "" {
		t.Fatalf("expected no label after timeout, got %q", status.Location)
	}
	if time.Since(started) > 2*time.Second {
		t.Fatalf("start should not wait for the geocoder")
	}
}

func TestStopCancelsLocationWatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{WatchInterval: 5 * time.Millisecond})
	h.start(t, signedIn)
	deadline := time.Now().Add(2 * time.Second)
	for h.device.fixCount() < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.device.fixCount() < 4 {
		t.Fatalf("watch did not poll")
	}
	h.coord.Stop()
	after := h.device.fixCount()
	time.Sleep(30 * time.Millisecond)
	if h.device.fixCount() != after {
		t.Fatalf("watch kept polling after stop")
	}
}

func TestSessionRecordsSelectsBySession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, service.Options{})
	h.start(t, signedIn)
	h.coord.ToggleMulti()
	first := h.shoot(t)
	h.shoot(t)
	rows, err := h.coord.SessionRecords(context.Background(), first.SessionID)
	if err != nil {
		t.Fatalf("session records: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}
