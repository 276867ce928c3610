package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/lavaqueue/internal/artwork"
	"github.com/genricoloni/lavaqueue/internal/config"
	"github.com/genricoloni/lavaqueue/internal/discord"
	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/engine"
	"github.com/genricoloni/lavaqueue/internal/player"
	"github.com/genricoloni/lavaqueue/internal/rest"
	"github.com/genricoloni/lavaqueue/internal/session"
	"github.com/genricoloni/lavaqueue/internal/socket"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const userAgent = "lavaqueue/1.0"

// AppOptions is the complete dependency graph of the daemon.
var AppOptions = fx.Options(
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		loadConfig,
		newLogger,
		newRESTClient,
		fx.Annotate(
			func(c *rest.Client) *rest.Client { return c },
			fx.As(new(domain.NodeAPIClient)),
		),
		newSessionProvider,
		newGateway,
		newSocket,
		newManager,
		newFetcher,
		newRenderer,
		newEngine,
	),

	fx.Invoke(registerHooks),
)

func main() {
	app := fx.New(AppOptions)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		panic(err)
	}

	<-ctx.Done()

	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
}

// loadConfig reads the file named by LAVAQUEUE_CONFIG, if any, and a .env
// file in the working directory.
func loadConfig() (*config.Config, error) {
	return config.Load(os.Getenv(config.EnvPrefix+"CONFIG"), ".env")
}

// newLogger writes JSON logs to stderr and, when configured, to a rotated file.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}

	if cfg.Log.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func newRESTClient(cfg *config.Config, logger *zap.Logger) (*rest.Client, error) {
	return rest.New(rest.Options{
		BaseURL:           cfg.Node.RESTURL(),
		Passphrase:        cfg.Node.Passphrase,
		UserAgent:         userAgent,
		Timeout:           cfg.Node.RequestTimeout,
		RequestsPerSecond: cfg.Node.RequestsPerSecond,
		Burst:             cfg.Node.Burst,
	}, logger.Named("rest"))
}

func newSessionProvider(cfg *config.Config, api domain.NodeAPIClient, logger *zap.Logger) *session.Provider {
	return session.NewProvider(api, cfg.Node.ResumeKey, logger.Named("session"))
}

func newGateway(cfg *config.Config, logger *zap.Logger) (*discord.Gateway, error) {
	return discord.New(cfg.Discord.Token, logger.Named("discord"))
}

func newSocket(cfg *config.Config, logger *zap.Logger) *socket.Client {
	return socket.New(socket.Options{
		URL:               cfg.Node.SocketURL(),
		Passphrase:        cfg.Node.Passphrase,
		UserID:            cfg.Discord.UserID,
		ClientName:        cfg.Node.ClientName,
		Resume:            cfg.Node.ResumeTimeout > 0,
		ReconnectDelay:    cfg.Node.ReconnectDelay,
		MaxReconnectDelay: cfg.Node.MaxReconnectDelay,
	}, logger.Named("socket"))
}

func newManager(cfg *config.Config, sessions *session.Provider, gateway *discord.Gateway, logger *zap.Logger) *player.Manager {
	return player.NewManager(logger.Named("player"), sessions, gateway, player.Options{
		RespectTrackRepeatOnSkip: cfg.Player.RespectTrackRepeatOnSkip,
		RepeatMode:               cfg.Player.Mode(),
		EventTimeout:             cfg.Player.EventTimeout,
	}, cfg.Player.SelfDeaf)
}

func newFetcher(cfg *config.Config, logger *zap.Logger) *artwork.HTTPFetcher {
	return artwork.NewHTTPFetcher(logger.Named("artwork"), artwork.FetcherOptions{
		Timeout:   cfg.Artwork.FetchTimeout,
		UserAgent: userAgent,
		CacheSize: cfg.Artwork.CacheSize,
	})
}

func newRenderer(cfg *config.Config, logger *zap.Logger) *artwork.Renderer {
	return artwork.NewRenderer(artwork.Options{
		OutputDir:  cfg.Artwork.OutputDir,
		Size:       cfg.Artwork.Size,
		BlurRadius: cfg.Artwork.BlurRadius,
	}, logger.Named("artwork"))
}

func newEngine(
	cfg *config.Config,
	logger *zap.Logger,
	sock *socket.Client,
	sessions *session.Provider,
	manager *player.Manager,
	gateway *discord.Gateway,
	api *rest.Client,
	fetcher *artwork.HTTPFetcher,
	renderer *artwork.Renderer,
) *engine.Engine {
	return engine.NewEngine(logger.Named("engine"), engine.Options{
		ResumeTimeout:   cfg.Node.ResumeTimeout,
		Artwork:         cfg.Artwork.Enabled,
		ArtworkDebounce: cfg.Artwork.Debounce,
	}, sock, sessions, manager, gateway, api, fetcher, renderer)
}

type hookParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Logger    *zap.Logger
	Config    *config.Config
	Gateway   *discord.Gateway
	Socket    *socket.Client
	Sessions  *session.Provider
	Manager   *player.Manager
	Engine    *engine.Engine
}

// registerHooks starts the voice gateway first so the bot user id is known
// before the node socket dials.
func registerHooks(p hookParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Gateway.Open(ctx); err != nil {
				return err
			}
			if p.Config.Discord.UserID == "" {
				p.Socket.SetUserID(p.Gateway.CurrentUserID())
			}
			if err := p.Engine.Start(ctx); err != nil {
				return err
			}

			// The socket outlives the start context; Stop ends it.
			if err := p.Socket.Run(context.Background()); err != nil {
				return err
			}

			p.Logger.Info("lavaqueue daemon started",
				zap.String("node", p.Config.Node.RESTURL()),
				zap.String("resumeKey", p.Sessions.ResumeKey()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Shutting down")

			err := p.Manager.Close(ctx)
			err = multierr.Append(err, p.Engine.Stop(ctx))
			err = multierr.Append(err, p.Socket.Stop(ctx))
			p.Sessions.Close()
			err = multierr.Append(err, p.Gateway.Close(ctx))
			_ = p.Logger.Sync()
			return err
		},
	})
}
