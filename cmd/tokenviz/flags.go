package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/logger"
)

var (
	logLevel  string
	logFormat string
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}

func samplingFlags(temp *float64, topK *int64, topP *float64) []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:        "temp",
			Aliases:     []string{"temperature", "t"},
			Usage:       "sampling temperature",
			Value:       1.0,
			Destination: temp,
		},
		&cli.Int64Flag{
			Name:        "top-k",
			Aliases:     []string{"top_k", "topk"},
			Usage:       "top-k sampling parameter (0 = disabled)",
			Value:       0,
			Destination: topK,
		},
		&cli.Float64Flag{
			Name:        "top-p",
			Aliases:     []string{"top_p", "topp"},
			Usage:       "top-p sampling parameter (1.0 = disabled)",
			Value:       1.0,
			Destination: topP,
		},
	}
}

func buildLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.Default()
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
