// Package app wires the pipeline together: logger bootstrap, the remote API
// clients, the notification bus, and per-session form constructors.
package app

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nextall/admincore/config"
	"github.com/nextall/admincore/internal/assetstore"
	"github.com/nextall/admincore/internal/catalogapi"
	"github.com/nextall/admincore/internal/domain"
	"github.com/nextall/admincore/internal/forms"
	"github.com/nextall/admincore/internal/notify"
	"github.com/nextall/admincore/internal/uploader"
)

// FormSession bundles the two cooperating pieces of one product form: the
// controller owning the draft and the coordinator feeding its image field.
type FormSession struct {
	Controller  *forms.Controller
	Coordinator *uploader.Coordinator
}

// Close releases the session's upload resources.
func (s *FormSession) Close() {
	s.Coordinator.Release()
}

type Application struct {
	appConfig *config.AppConfig
	bus       *notify.Bus
	catalog   *catalogapi.Client
	assets    *assetstore.Client
	janitor   *uploader.Janitor
}

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

// Bus exposes the notification/navigation bus for the hosting view layer.
func (a *Application) Bus() *notify.Bus {
	return a.bus
}

// Catalog exposes the remote product API client.
func (a *Application) Catalog() *catalogapi.Client {
	return a.catalog
}

// Assets exposes the remote object-storage client.
func (a *Application) Assets() *assetstore.Client {
	return a.assets
}

// Janitor returns the failed-delete retry queue, nil unless enabled.
func (a *Application) Janitor() *uploader.Janitor {
	return a.janitor
}

// Init sets up logging and builds the remote clients. Call once at startup.
func (a *Application) Init() error {
	cfg := a.appConfig

	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	a.initLogger(cfg.Logger)

	timeout := time.Duration(cfg.API.Timeout) * time.Second
	a.catalog = catalogapi.NewClient(cfg.API.BaseURL, timeout)
	a.assets = assetstore.NewClient(
		cfg.Assets.UploadURL,
		cfg.Assets.DeleteURL,
		cfg.Assets.UploadPreset,
		timeout,
	)
	a.bus = notify.NewBus()

	if cfg.Assets.RetryFailedDeletes {
		a.janitor, err = uploader.NewJanitor(a.assets, cfg.Assets.RetrySchedule)
		if err != nil {
			return err
		}
		a.janitor.Start()
		zap.S().Infof("failed-delete janitor enabled, schedule %s", cfg.Assets.RetrySchedule)
	}

	zap.S().Infof("application initialized, api %s", cfg.API.BaseURL)
	return nil
}

func (a *Application) initLogger(cfg config.LoggerConfig) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// NewProductForm opens a create-flow session. categories seed the default
// category selection and may be empty while the tree is still loading.
func (a *Application) NewProductForm(categories []domain.Category) (*FormSession, error) {
	ctrl := forms.NewController(a.appConfig.Options, a.catalog, a.bus, a.bus)
	ctrl.Initialize(nil, categories)
	return a.newSession(ctrl)
}

// EditProductForm opens an edit-flow session hydrated from a persisted record.
func (a *Application) EditProductForm(existing *domain.PersistedProduct) (*FormSession, error) {
	ctrl := forms.NewController(a.appConfig.Options, a.catalog, a.bus, a.bus)
	ctrl.Initialize(existing, nil)
	return a.newSession(ctrl)
}

func (a *Application) newSession(ctrl *forms.Controller) (*FormSession, error) {
	coord, err := uploader.NewCoordinator(ctrl, a.assets, a.bus, a.janitor)
	if err != nil {
		return nil, err
	}
	return &FormSession{Controller: ctrl, Coordinator: coord}, nil
}

// Release flushes loggers and stops background work.
func (a *Application) Release() {
	if a.janitor != nil {
		a.janitor.Stop()
	}
	_ = zap.L().Sync()
}
