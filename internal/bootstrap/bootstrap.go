package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	captureinadapter "fieldcap/internal/modules/capture/adapter/in"
	captureoutadapter "fieldcap/internal/modules/capture/adapter/out"
	captureout "fieldcap/internal/modules/capture/port/out"
	captureservice "fieldcap/internal/modules/capture/service"
	captureusecase "fieldcap/internal/modules/capture/usecase"
	galleryinadapter "fieldcap/internal/modules/gallery/adapter/in"
	galleryoutadapter "fieldcap/internal/modules/gallery/adapter/out"
	galleryin "fieldcap/internal/modules/gallery/port/in"
	galleryservice "fieldcap/internal/modules/gallery/service"
	galleryusecase "fieldcap/internal/modules/gallery/usecase"
	handoffinadapter "fieldcap/internal/modules/handoff/adapter/in"
	handoffoutadapter "fieldcap/internal/modules/handoff/adapter/out"
	handoffin "fieldcap/internal/modules/handoff/port/in"
	handoffservice "fieldcap/internal/modules/handoff/service"
	handoffusecase "fieldcap/internal/modules/handoff/usecase"
	"fieldcap/internal/platform/clock"
	"fieldcap/internal/platform/config"
	"fieldcap/internal/platform/id"
	"fieldcap/internal/platform/kv"
	"fieldcap/internal/platform/logging"
	"fieldcap/internal/platform/metrics"
	uiapp "fieldcap/internal/ui/app"
)

const geocodeTimeout = 4 * time.Second

type App struct {
	Config  config.Config
	Logger  hclog.Logger
	Metrics *metrics.Registry

	GalleryCLI  galleryinadapter.CLIHandler
	HandoffCLI  handoffinadapter.CLIHandler
	GalleryHTTP galleryinadapter.HTTPHandler
	HandoffHTTP handoffinadapter.HTTPHandler

	store   kv.Store
	gallery galleryin.Usecase
	handoff handoffin.Usecase
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	galleryUC := galleryusecase.NewInteractor(galleryservice.NewGalleryService(
		galleryoutadapter.NewKVPhotoLog(store, logger),
		cfg.Location(),
		logger,
	))
	handoffUC := handoffusecase.NewInteractor(handoffservice.NewHandoffService(
		clock.SystemClock{},
		handoffoutadapter.NewKVPayloadSlot(store, logger),
		logger,
	))

	return &App{
		Config:      cfg,
		Logger:      logger,
		Metrics:     metrics.NewRegistry(),
		GalleryCLI:  galleryinadapter.NewCLIHandler(galleryUC),
		HandoffCLI:  handoffinadapter.NewCLIHandler(handoffUC),
		GalleryHTTP: galleryinadapter.NewHTTPHandler(galleryUC),
		HandoffHTTP: handoffinadapter.NewHTTPHandler(handoffUC),
		store:       store,
		gallery:     galleryUC,
		handoff:     handoffUC,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

// CaptureSession is a capture flow bound to one device plugin process and
// one remote record store. Close releases both.
type CaptureSession struct {
	CLI     captureinadapter.CLIHandler
	closers []func() error
}

func (s *CaptureSession) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenCapture starts the device plugin and connects the remote stores. The
// device is optional for record queries, so an empty plugin path opens a
// session whose device calls fail.
func (a *App) OpenCapture(ctx context.Context, needDevice bool) (*CaptureSession, error) {
	session := &CaptureSession{}
	logger := a.Logger.Named("capture")

	var device captureout.Device = unavailableDevice{}
	if needDevice {
		plugin, err := captureoutadapter.OpenPluginDevice(a.Config.Device.PluginPath, logger)
		if err != nil {
			return nil, err
		}
		device = plugin
		session.closers = append(session.closers, plugin.Close)
	}

	records, closeRecords, err := a.openRecords(ctx)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	if closeRecords != nil {
		session.closers = append(session.closers, closeRecords)
	}

	objects, err := a.openObjects()
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	coord := captureservice.NewCoordinator(captureservice.Deps{
		Device:  device,
		Objects: objects,
		Records: records,
		Photos:  captureoutadapter.NewGalleryBridge(a.gallery),
		Handoff: captureoutadapter.NewHandoffBridge(a.handoff),
		Clock:   clock.SystemClock{},
		IDs:     id.UUID{},
		Metrics: a.Metrics.Capture,
		Logger:  logger,
	}, captureservice.Options{
		Bucket:         a.Config.Objects.Bucket,
		Table:          a.Config.Remote.Table,
		WatchInterval:  a.Config.Device.WatchInterval,
		GeocodeTimeout: geocodeTimeout,
	})
	identity := captureoutadapter.NewJWTIdentity(
		a.Config.Identity.TokenPath,
		a.Config.Identity.SigningKey,
		a.Config.Identity.Issuer,
	)
	session.CLI = captureinadapter.NewCLIHandler(captureusecase.NewInteractor(coord, identity, a.Config.Identity.Timeout, logger))
	return session, nil
}

func (a *App) openRecords(ctx context.Context) (captureout.RemoteRecords, func() error, error) {
	if strings.TrimSpace(a.Config.Remote.DatabaseURL) == "" {
		a.Logger.Debug("no database url, keeping capture rows in the local store")
		return captureoutadapter.NewKVRecords(a.store, a.Logger), nil, nil
	}
	records, err := captureoutadapter.OpenPostgresRecords(ctx, a.Config.Remote.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return records, records.Close, nil
}

func (a *App) openObjects() (captureout.ObjectStore, error) {
	if strings.TrimSpace(a.Config.Objects.Endpoint) == "" {
		a.Logger.Debug("object storage not configured, captures keep their local uri")
		return captureoutadapter.Unconfigured{}, nil
	}
	return captureoutadapter.NewMinioObjects(captureoutadapter.MinioConfig{
		Endpoint:  a.Config.Objects.Endpoint,
		AccessKey: a.Config.Objects.AccessKey,
		SecretKey: a.Config.Objects.SecretKey,
		UseSSL:    a.Config.Objects.UseSSL,
	})
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.gallery, app.handoff)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
