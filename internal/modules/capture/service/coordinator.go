package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"fieldcap/internal/modules/capture/domain"
	captureout "fieldcap/internal/modules/capture/port/out"
	"fieldcap/internal/platform/clock"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/id"
	"fieldcap/internal/platform/logging"
	"fieldcap/internal/platform/metrics"
)

const (
	defaultWatchInterval  = 2 * time.Second
	defaultGeocodeTimeout = 3 * time.Second
)

type Options struct {
	Bucket         string
	Table          string
	WatchInterval  time.Duration
	GeocodeTimeout time.Duration
}

type Deps struct {
	Device  captureout.Device
	Objects captureout.ObjectStore
	Records captureout.RemoteRecords
	Photos  captureout.PhotoLog
	Handoff captureout.Handoff
	Clock   clock.Clock
	IDs     id.Generator
	Metrics metrics.Capture
	Logger  hclog.Logger
}

// Coordinator runs one foreground capture flow. Foreground operations are serialized by op;
// mu guards the state the location watch goroutine also writes.
type Coordinator struct {
	deps   Deps
	opts   Options
	logger hclog.Logger

	op sync.Mutex

	mu         sync.Mutex
	flow       domain.FlowContext
	started    bool
	live       *domain.Position
	frozen     *domain.Position
	location   string
	threshold  int
	pending    string
	session    *domain.Session
	locationOK bool
	cameraOK   bool
	libraryOK  bool

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

func NewCoordinator(deps Deps, opts Options) *Coordinator {
	if opts.WatchInterval <= 0 {
		opts.WatchInterval = defaultWatchInterval
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = defaultGeocodeTimeout
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = id.UUID{}
	}
	return &Coordinator{
		deps:      deps,
		opts:      opts,
		logger:    logging.OrDiscard(deps.Logger).Named("capture"),
		threshold: domain.DefaultAccuracyThreshold,
	}
}

// Start resets the flow and asks for permissions. Denied permissions degrade the flow but are
// not errors here; they show up in the returned status and on the operations they block.
func (c *Coordinator) Start(ctx context.Context, flow domain.FlowContext) (domain.Status, error) {
	c.op.Lock()
	defer c.op.Unlock()
	c.stopWatch()

	c.mu.Lock()
	c.flow = flow
	c.started = true
	c.live, c.frozen = nil, nil
	c.location = ""
	c.pending = ""
	c.session = nil
	c.threshold = domain.DefaultAccuracyThreshold
	c.mu.Unlock()

	locationOK := c.request(ctx, domain.PermissionLocation)
	cameraOK := c.request(ctx, domain.PermissionCamera)
	libraryOK := c.request(ctx, domain.PermissionMediaLibrary)

	c.mu.Lock()
	c.locationOK, c.cameraOK, c.libraryOK = locationOK, cameraOK, libraryOK
	c.mu.Unlock()

	if locationOK {
		c.primeLocation(ctx)
		c.startWatch()
	} else {
		c.logger.Warn("location permission denied, capturing without coordinates")
	}
	if !cameraOK {
		c.logger.Warn("camera permission denied")
	}
	c.logger.Debug("capture flow started", "identified", flow.Resolved, "handoff", flow.ExpectHandoff)
	return c.snapshot(), ctx.Err()
}

// Stop cancels the location watch and drops any unconfirmed photo.
func (c *Coordinator) Stop() {
	c.op.Lock()
	defer c.op.Unlock()
	c.stopWatch()
	c.mu.Lock()
	c.started = false
	c.pending = ""
	c.session = nil
	c.mu.Unlock()
}

func (c *Coordinator) Status() domain.Status {
	return c.snapshot()
}

func (c *Coordinator) ToggleFreeze() domain.Status {
	c.op.Lock()
	defer c.op.Unlock()
	c.mu.Lock()
	if c.frozen != nil {
		c.frozen = nil
	} else {
		snap := domain.Position{}
		if c.live != nil {
			snap = *c.live
		}
		c.frozen = &snap
	}
	c.mu.Unlock()
	return c.snapshot()
}

func (c *Coordinator) SetAccuracyThreshold(meters int) domain.Status {
	c.mu.Lock()
	c.threshold = domain.ClampAccuracy(meters)
	c.mu.Unlock()
	return c.snapshot()
}

// RefreshLocation takes a fresh fix and re-runs the reverse geocode.
func (c *Coordinator) RefreshLocation(ctx context.Context) (domain.Status, error) {
	c.op.Lock()
	defer c.op.Unlock()
	c.mu.Lock()
	allowed := c.locationOK
	c.mu.Unlock()
	if !allowed {
		return c.snapshot(), apperrors.ErrLocationPermissionDenied
	}
	pos, err := c.deps.Device.CurrentPosition(ctx)
	if err != nil {
		return c.snapshot(), fmt.Errorf("refresh location: %w", err)
	}
	c.apply(pos)
	c.reverseGeocode(ctx)
	return c.snapshot(), nil
}

func (c *Coordinator) Shutter(ctx context.Context) (domain.Status, error) {
	c.op.Lock()
	defer c.op.Unlock()
	c.mu.Lock()
	started, allowed, pending := c.started, c.cameraOK, c.pending
	c.mu.Unlock()
	switch {
	case !started:
		return c.snapshot(), fmt.Errorf("%w: capture flow not started", apperrors.ErrInvalidInput)
	case !allowed:
		return c.snapshot(), apperrors.ErrCameraPermissionDenied
	case pending != "":
		return c.snapshot(), apperrors.ErrPhotoPending
	}
	uri, err := c.deps.Device.TakePhoto(ctx)
	if err != nil {
		return c.snapshot(), fmt.Errorf("take photo: %w", err)
	}
	c.mu.Lock()
	c.pending = uri
	c.mu.Unlock()
	return c.snapshot(), nil
}

// Cancel discards the pending photo.
func (c *Coordinator) Cancel() (domain.Status, error) {
	c.op.Lock()
	defer c.op.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == "" {
		return c.snapshotLocked(), apperrors.ErrNoPendingPhoto
	}
	c.pending = ""
	return c.snapshotLocked(), nil
}

// Confirm saves the pending photo: upload (falling back to the device URI), remote metadata
// row, local log entry, then either a hand-off or the next shot. Earlier steps stay committed
// when a later one fails.
func (c *Coordinator) Confirm(ctx context.Context) (domain.ConfirmResult, error) {
	c.op.Lock()
	defer c.op.Unlock()

	status := c.snapshot()
	if status.Pending == "" {
		return domain.ConfirmResult{}, apperrors.ErrNoPendingPhoto
	}
	pos := status.Effective()

	c.mu.Lock()
	flow, session, location := c.flow, c.session, c.location
	c.mu.Unlock()
	if !flow.Resolved {
		c.failed("identity")
		return domain.ConfirmResult{}, fmt.Errorf("confirm: %w", apperrors.ErrIdentityUnresolved)
	}

	now := c.deps.Clock.Now()
	stamp := clock.Stamp(now)
	multi := session != nil
	sessionID := domain.SingleSessionID(now)
	if multi {
		sessionID = session.ID
	}

	uri, qr, storage := c.upload(ctx, flow.UserID, status.Pending, pos)

	remoteID, err := c.deps.Records.Insert(ctx, c.opts.Table, domain.RemoteRecord{
		UserID:     flow.UserID,
		SessionID:  sessionID,
		Latitude:   pos.Lat,
		Longitude:  pos.Lon,
		Accuracy:   pos.Accuracy,
		Location:   location,
		ImageURL:   uri,
		QRPayload:  qr,
		Storage:    string(storage),
		Sequence:   session.Sequence(),
		IsPrimary:  !multi,
		CapturedAt: stamp,
	})
	if err != nil {
		c.failed("metadata")
		c.logger.Error("metadata insert failed", "session", sessionID, "error", err)
		return domain.ConfirmResult{}, fmt.Errorf("%w: insert into %s: %w", apperrors.ErrSaveFailed, c.opts.Table, err)
	}
	photoID := remoteID
	if photoID <= 0 {
		photoID = now.UnixMilli()
	}

	err = c.deps.Photos.AppendPhoto(ctx, domain.CapturedPhoto{
		ID:        photoID,
		URI:       uri,
		Position:  pos,
		CreatedAt: stamp,
		SessionID: sessionID,
	})
	if err != nil {
		c.failed("local")
		c.clearPending()
		c.logger.Error("local photo log append failed", "id", photoID, "error", err)
		return domain.ConfirmResult{}, fmt.Errorf("%w: %w", apperrors.ErrLocalSaveFailed, err)
	}
	c.saveToLibrary(ctx, status.Pending)
	c.deps.Metrics.Captures.WithLabelValues(string(storage)).Inc()

	result := domain.ConfirmResult{
		PhotoID:      photoID,
		URI:          uri,
		QRPayload:    qr,
		Storage:      storage,
		SessionID:    sessionID,
		SessionCount: 1,
		Position:     pos,
	}
	c.mu.Lock()
	c.pending = ""
	if multi {
		c.session.Count++
		result.SessionCount = c.session.Count
	}
	c.mu.Unlock()

	if multi {
		result.Next = domain.NextContinue
		return result, nil
	}
	if !flow.ExpectHandoff {
		result.Next = domain.NextFolders
		return result, nil
	}
	summary := domain.HandoffSummary{
		PrimaryID: photoID,
		Lat:       pos.Lat,
		Lon:       pos.Lon,
		Location:  location,
		ImageIDs:  []int64{photoID},
		Timestamp: stamp,
	}
	if err := c.deps.Handoff.Publish(ctx, summary); err != nil {
		c.failed("handoff")
		return result, fmt.Errorf("%w: write hand-off: %w", apperrors.ErrLocalSaveFailed, err)
	}
	c.deps.Metrics.Handoffs.WithLabelValues("single").Inc()
	result.Next = domain.NextReturnToForm
	return result, nil
}

// ToggleMulti opens a multi-shot session, or closes the current one. Shots already
// confirmed stay in the log either way.
func (c *Coordinator) ToggleMulti() domain.Status {
	c.op.Lock()
	defer c.op.Unlock()
	c.mu.Lock()
	if c.session != nil {
		c.logger.Debug("multi-shot session closed", "session", c.session.ID, "count", c.session.Count)
		c.session = nil
	} else {
		c.session = domain.NewMultiSession(c.deps.Clock.Now())
	}
	c.mu.Unlock()
	return c.snapshot()
}

// Finish ends the multi-shot session. With a hand-off expected, every photo of the session
// goes into one payload, primary first by insertion.
func (c *Coordinator) Finish(ctx context.Context) (domain.FinishResult, error) {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	session, flow, location := c.session, c.flow, c.location
	c.mu.Unlock()
	if session == nil {
		return domain.FinishResult{}, fmt.Errorf("%w: multi-shot mode is off", apperrors.ErrInvalidInput)
	}
	if session.Count == 0 {
		return domain.FinishResult{}, apperrors.ErrEmptySession
	}

	result := domain.FinishResult{SessionID: session.ID, Count: session.Count, Next: domain.NextFolders}
	if flow.ExpectHandoff {
		photos, err := c.deps.Photos.SessionPhotos(ctx, session.ID)
		if err != nil {
			return domain.FinishResult{}, fmt.Errorf("gather session %s: %w", session.ID, err)
		}
		if len(photos) == 0 {
			return domain.FinishResult{}, apperrors.ErrEmptySession
		}
		ids := make([]int64, 0, len(photos))
		for _, photo := range photos {
			ids = append(ids, photo.ID)
		}
		primary := photos[0]
		err = c.deps.Handoff.Publish(ctx, domain.HandoffSummary{
			PrimaryID: primary.ID,
			Lat:       primary.Lat,
			Lon:       primary.Lon,
			Location:  location,
			ImageIDs:  ids,
			Timestamp: clock.Stamp(c.deps.Clock.Now()),
		})
		if err != nil {
			c.failed("handoff")
			return domain.FinishResult{}, fmt.Errorf("%w: write hand-off: %w", apperrors.ErrLocalSaveFailed, err)
		}
		c.deps.Metrics.Handoffs.WithLabelValues("multi").Inc()
		result.ImageIDs = ids
		result.Next = domain.NextReturnToForm
	}

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return result, nil
}

func (c *Coordinator) RetryCameraPermission(ctx context.Context) (domain.Status, error) {
	c.op.Lock()
	defer c.op.Unlock()
	granted := c.request(ctx, domain.PermissionCamera)
	c.mu.Lock()
	c.cameraOK = granted
	c.mu.Unlock()
	if !granted {
		return c.snapshot(), apperrors.ErrCameraPermissionDenied
	}
	return c.snapshot(), nil
}

func (c *Coordinator) SessionRecords(ctx context.Context, sessionID string) ([]domain.RemoteRecord, error) {
	return c.deps.Records.Select(ctx, c.opts.Table, map[string]any{"session_id": sessionID})
}

func (c *Coordinator) upload(ctx context.Context, userID int64, localURI string, pos domain.Position) (string, string, domain.Storage) {
	data, contentType, err := c.deps.Device.ReadPhoto(ctx, localURI)
	if err == nil {
		objectPath := objectPath(userID, c.deps.IDs.New(), localURI)
		err = c.deps.Objects.Upload(ctx, c.opts.Bucket, objectPath, data, contentType)
		if err == nil {
			url := c.deps.Objects.PublicURL(c.opts.Bucket, objectPath)
			return url, url, domain.StorageRemote
		}
	}
	c.deps.Metrics.UploadFallbacks.Inc()
	c.logger.Warn("upload failed, keeping photo on device", "uri", localURI, "error", err)
	return localURI, domain.MapLink(pos.Lat, pos.Lon), domain.StorageLocal
}

func objectPath(userID int64, key, localURI string) string {
	ext := path.Ext(localURI)
	if ext == "" {
		ext = ".jpg"
	}
	return strconv.FormatInt(userID, 10) + "/" + key + ext
}

func (c *Coordinator) saveToLibrary(ctx context.Context, uri string) {
	c.mu.Lock()
	allowed := c.libraryOK
	c.mu.Unlock()
	if !allowed {
		return
	}
	if err := c.deps.Device.SaveToLibrary(ctx, uri); err != nil {
		c.logger.Warn("save to media library failed", "uri", uri, "error", err)
	}
}

func (c *Coordinator) request(ctx context.Context, permission domain.Permission) bool {
	granted, err := c.deps.Device.RequestPermission(ctx, permission)
	if err != nil {
		c.logger.Warn("permission request failed", "permission", permission, "error", err)
		return false
	}
	return granted
}

func (c *Coordinator) primeLocation(ctx context.Context) {
	if pos, ok, err := c.deps.Device.LastKnownPosition(ctx); err != nil {
		c.logger.Debug("no last known position", "error", err)
	} else if ok {
		c.apply(pos)
	}
	if pos, err := c.deps.Device.CurrentPosition(ctx); err != nil {
		c.logger.Debug("fresh fix failed", "error", err)
	} else {
		c.apply(pos)
	}
	c.reverseGeocode(ctx)
}

func (c *Coordinator) startWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.watchCancel, c.watchDone = cancel, done
	interval := c.opts.WatchInterval
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pos, err := c.deps.Device.CurrentPosition(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					c.logger.Debug("watch fix failed", "error", err)
					continue
				}
				c.apply(pos)
			}
		}
	}()
}

func (c *Coordinator) stopWatch() {
	if c.watchCancel == nil {
		return
	}
	c.watchCancel()
	<-c.watchDone
	c.watchCancel, c.watchDone = nil, nil
}

func (c *Coordinator) apply(pos domain.Position) {
	c.mu.Lock()
	c.live = &pos
	c.mu.Unlock()
}

type geocodeResult struct {
	label string
	err   error
}

// reverseGeocode races the geocoder against GeocodeTimeout. Failures leave the label as is.
func (c *Coordinator) reverseGeocode(ctx context.Context) {
	pos := c.snapshot().Effective()
	ctx, cancel := context.WithTimeout(ctx, c.opts.GeocodeTimeout)
	defer cancel()
	results := make(chan geocodeResult, 1)
	go func() {
		label, err := c.deps.Device.ReverseGeocode(ctx, pos.Lat, pos.Lon)
		results <- geocodeResult{label: label, err: err}
	}()
	select {
	case res := <-results:
		if res.err != nil || res.label == "" {
			c.logger.Debug("reverse geocode failed", "error", res.err)
			return
		}
		c.mu.Lock()
		c.location = res.label
		c.mu.Unlock()
	case <-ctx.Done():
		c.logger.Debug("reverse geocode timed out")
	}
}

func (c *Coordinator) clearPending() {
	c.mu.Lock()
	c.pending = ""
	c.mu.Unlock()
}

func (c *Coordinator) failed(stage string) {
	c.deps.Metrics.SaveFailures.WithLabelValues(stage).Inc()
}

func (c *Coordinator) snapshot() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() domain.Status {
	status := domain.Status{
		State:             domain.StateIdle,
		Started:           c.started,
		Location:          c.location,
		AccuracyThreshold: c.threshold,
		Pending:           c.pending,
		LocationDenied:    c.started && !c.locationOK,
		CameraDenied:      c.started && !c.cameraOK,
		LibraryGranted:    c.libraryOK,
		Identified:        c.flow.Resolved,
	}
	if c.live != nil {
		live := *c.live
		status.Live = &live
	}
	if c.frozen != nil {
		frozen := *c.frozen
		status.Frozen = &frozen
		status.State = domain.StateFrozen
	}
	if c.session != nil {
		status.Multi = true
		status.SessionID = c.session.ID
		status.SessionCount = c.session.Count
	}
	if c.pending != "" {
		status.State = domain.StatePending
	}
	return status
}
