package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/api"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/sampling"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		display     int64
		temp        float64
		topK        int64
		topP        float64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the visualizer web UI and REST API",
		Flags: append(append(samplingFlags(&temp, &topK, &topP), loggingFlags()...),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:5001",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "display-count",
				Usage:       "candidates shown per step",
				Value:       sampling.DefaultDisplayCount,
				Destination: &display,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applySamplingConfig(cmd, cfg, &temp, &topK, &topP)
			applyServeConfig(cmd, cfg, &addr, &display)
			log := buildLogger()

			defaults := sampling.Params{Temperature: temp, TopK: int(topK), TopP: topP}
			if err := defaults.Validate(); err != nil {
				return err
			}

			server := api.NewServer(api.NewSessionStore(), defaults, int(display))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
