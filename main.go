package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/fakhrymubarak/weather-pro/internal/clock"
	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/handler"
	"github.com/fakhrymubarak/weather-pro/internal/middleware"
	"github.com/fakhrymubarak/weather-pro/internal/model"
	"github.com/fakhrymubarak/weather-pro/internal/render"
	"github.com/fakhrymubarak/weather-pro/internal/repository"
	"github.com/fakhrymubarak/weather-pro/internal/scheduler"
	"github.com/fakhrymubarak/weather-pro/internal/service"
)

const shutdownTimeout = 10 * time.Second

// errFetchFailed makes --once exit non-zero when no weather could be shown.
var errFetchFailed = errors.New("weather fetch failed")

type options struct {
	once  bool
	watch bool
	city  string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("weather-pro", pflag.ContinueOnError)
	fs.BoolVar(&opts.once, "once", false, "print the weather card once and exit")
	fs.BoolVar(&opts.watch, "watch", false, "show a live weather card in the terminal")
	fs.StringVar(&opts.city, "city", "", "city to show instead of weather.default_city")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.once && opts.watch {
		return options{}, errors.New("--once and --watch are mutually exclusive")
	}
	if fs.Changed("city") {
		city, err := service.NormalizeCity(opts.city)
		if err != nil {
			return options{}, fmt.Errorf("invalid --city: %w", err)
		}
		opts.city = city
	}
	return opts, nil
}

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		if !errors.Is(err, errFetchFailed) {
			logger.Errorw("Weather Pro stopped", "error", err)
		}
		stop()
		os.Exit(1)
	}
}

// app is the wired object graph shared by every mode.
type app struct {
	cfg      config.Config
	svc      *service.WeatherService
	renderer *render.Renderer
}

func newApp(opts options) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	defaultCity := cfg.DefaultCity
	if opts.city != "" {
		if defaultCity, err = service.NormalizeCity(opts.city); err != nil {
			return nil, fmt.Errorf("invalid --city: %w", err)
		}
	}
	svc := service.NewWeatherService(repository.NewWeatherRepositoryFromConfig(cfg), defaultCity)
	renderer, err := render.NewRenderer(cfg.Display, svc.DefaultCity())
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		svc:      svc,
		renderer: renderer,
	}, nil
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	switch {
	case opts.once:
		return a.once(ctx, stdout)
	case opts.watch:
		return a.watch(ctx, stdout)
	default:
		return a.serve(ctx)
	}
}

func newTerminal(w io.Writer) *render.Terminal {
	if f, ok := w.(*os.File); ok {
		return render.NewTerminal(f)
	}
	return render.NewPlainTerminal(w)
}

func (a *app) once(ctx context.Context, stdout io.Writer) error {
	state := a.svc.Start(ctx)
	if err := newTerminal(stdout).Draw(a.renderer.Build(state, time.Now())); err != nil {
		return err
	}
	if state.Kind() != model.StateSuccess {
		return errFetchFailed
	}
	return nil
}

func (a *app) watch(ctx context.Context, stdout io.Writer) error {
	logger := config.GetLogger()
	term := newTerminal(stdout)

	sched, err := scheduler.New(a.cfg.RefreshSchedule, a.svc)
	if err != nil {
		return err
	}
	go func() { _ = sched.Start(ctx) }()
	go a.svc.Start(ctx)

	clock.New(func(now time.Time) {
		if err := term.Redraw(a.renderer.Build(a.svc.State(), now)); err != nil {
			logger.Warnw("Could not draw weather card", "error", err)
		}
	}).Run(ctx)
	return nil
}

func (a *app) serve(ctx context.Context) error {
	logger := config.GetLogger()

	sched, err := scheduler.New(a.cfg.RefreshSchedule, a.svc)
	if err != nil {
		return err
	}

	weatherHandler := handler.NewWeatherHandler(a.svc, a.renderer)
	limiter := middleware.NewRateLimiter(a.cfg.RateLimiter)
	limiter.OnLimit(weatherHandler.RateLimited)
	limiter.StartCleanup(ctx)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           weatherHandler.Routes(limiter.Middleware),
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting Weather Pro server", "port", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	go func() { _ = sched.Start(ctx) }()
	go a.svc.Start(ctx)

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
