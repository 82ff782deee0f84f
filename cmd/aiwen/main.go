package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"aiwen/internal/cache"
	"aiwen/internal/domain/config"
	"aiwen/internal/index"
	"aiwen/internal/loader"
	"aiwen/internal/markdown"
	"aiwen/internal/remote"
	"aiwen/internal/serve"
	"aiwen/internal/source"
)

type opts struct {
	Config string `short:"c" long:"config" env:"AIWEN_CONFIG" default:"aiwen.yaml" description:"Path to config file"`
	Addr   string `long:"addr" env:"AIWEN_ADDR" description:"Listen address (overrides config)"`
	Debug  bool   `long:"debug" env:"AIWEN_DEBUG" description:"Enable debug logging"`
}

func main() {
	var o opts
	if _, err := flags.Parse(&o); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if o.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(o); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(o opts) error {
	cfg, err := config.LoadOrDefault(o.Config)
	if err != nil {
		return err
	}
	if o.Addr != "" {
		cfg.Serve.Addr = o.Addr
	}

	var (
		src    source.Source
		fsRoot string
	)
	switch cfg.Source.Mode {
	case config.SourceLocal:
		fs := source.NewFS(cfg.Source.Dir)
		src = fs
		fsRoot = fs.Root()
		slog.Info("using local content source", "dir", cfg.Source.Dir)
	default:
		src = remote.New(remote.Options{
			Owner:   cfg.Remote.Owner,
			Repo:    cfg.Remote.Repo,
			Ref:     cfg.Remote.Ref,
			Token:   cfg.Remote.Token(),
			BaseURL: cfg.Remote.APIBase,
		})
		slog.Info("using remote content source",
			"owner", cfg.Remote.Owner, "repo", cfg.Remote.Repo, "ref", cfg.Remote.Ref)
	}

	md := markdown.NewRenderer(cfg.Render.Sanitize)
	cacheOpt := cache.Options{
		Capacity: cfg.Cache.Capacity,
		TTL:      cfg.Cache.TTL(),
	}
	articles := loader.NewArticles(src, md, cacheOpt)
	series := loader.NewSeries(src, md, cacheOpt)

	idx, err := index.Open(index.OpenOptions{Path: cfg.Index.Path})
	if err != nil {
		return err
	}

	srv := serve.New(cfg, articles, series, idx, fsRoot)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.Serve.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("shutdown complete")
	return nil
}
