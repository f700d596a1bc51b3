package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rdb64-hobbies/see-and-select-tokens/internal/generate"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/model"
	"github.com/rdb64-hobbies/see-and-select-tokens/internal/sampling"
)

func traceCmd() *cli.Command {
	var (
		prompt  string
		steps   int64
		seed    int64
		hidden  int64
		display int64
		temp    float64
		topK    int64
		topP    float64
	)

	return &cli.Command{
		Name:  "trace",
		Usage: "Generate from a prompt and print each step's candidate distribution",
		Flags: append(append(samplingFlags(&temp, &topK, &topP), loggingFlags()...),
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "prompt text",
				Required:    true,
				Destination: &prompt,
			},
			&cli.Int64Flag{
				Name:        "steps",
				Aliases:     []string{"n"},
				Usage:       "maximum number of tokens to generate",
				Value:       generate.DefaultMaxSteps,
				Destination: &steps,
			},
			&cli.Int64Flag{
				Name:        "seed",
				Usage:       "seed for model weights and sampling (-1 = time-based)",
				Value:       -1,
				Destination: &seed,
			},
			&cli.Int64Flag{
				Name:        "hidden",
				Usage:       "scorer hidden dimension",
				Value:       64,
				Destination: &hidden,
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
			applyTraceConfig(cmd, cfg, &steps, &seed, &hidden)
			log := buildLogger()

			if seed < 0 {
				seed = time.Now().UnixNano()
			}
			params := sampling.Params{Temperature: temp, TopK: int(topK), TopP: topP}
			if err := params.Validate(); err != nil {
				return err
			}

			lm := model.NewByteVocabLM(int(hidden), seed)
			sess := generate.NewSession(lm, model.ByteCodec{}, sampling.New(uint64(seed)), generate.Options{
				DisplayCount: int(display),
			})

			log.Info("tracing generation",
				"prompt_bytes", len(prompt), "steps", steps, "seed", seed,
				"temperature", temp, "top_k", topK, "top_p", topP)

			start := time.Now()
			record, err := sess.GenerateToEnd(ctx, prompt, params, int(steps))
			if err != nil {
				return err
			}

			text := prompt
			for i, step := range record {
				fmt.Printf("step %d: selected %q (id=%d p=%.4f)\n",
					i+1, step.Selected.Text, step.Selected.ID, step.Selected.Probability)
				for _, c := range step.Candidates {
					marker := " "
					if c.ID == step.Selected.ID {
						marker = "*"
					}
					fmt.Printf("  %s %6.2f%%  %q (id=%d)\n", marker, c.Probability*100, c.Text, c.ID)
				}
				text += step.Selected.Text
			}
			fmt.Printf("\n%s\n", text)
			log.Info("trace complete", "steps", len(record), "duration", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
