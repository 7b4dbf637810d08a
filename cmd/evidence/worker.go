package main

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/evidence/ai/openai"
	"github.com/poiesic/evidence/extraction"
	"github.com/poiesic/evidence/worker"
	"github.com/urfave/cli/v2"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	tworker "go.temporal.io/sdk/worker"
)

func workerCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "temporal-address",
			Usage:   "Temporal frontend host:port",
			Value:   "127.0.0.1:7233",
			EnvVars: []string{"TEMPORAL_ADDRESS"},
		},
		&cli.StringFlag{
			Name:    "namespace",
			Usage:   "Temporal namespace",
			Value:   "default",
			EnvVars: []string{"TEMPORAL_NAMESPACE"},
		},
		&cli.StringFlag{
			Name:    "task-queue",
			Usage:   "Task queue to poll",
			Value:   worker.DefaultTaskQueue,
			EnvVars: []string{"EVIDENCE_TASK_QUEUE"},
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Default utterances per extraction call",
			Value:   extraction.DefaultBatchSize,
			EnvVars: []string{"EVIDENCE_BATCH_SIZE"},
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Usage:   "Default concurrent extraction calls per activity",
			Value:   extraction.DefaultConcurrency,
			EnvVars: []string{"EVIDENCE_CONCURRENCY"},
		},
	}
	return &cli.Command{
		Name:   "worker",
		Usage:  "Run a Temporal worker that executes extraction activities",
		Action: workerAction,
		Flags:  append(flags, aiFlags()...),
	}
}

func workerAction(c *cli.Context) error {
	config, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}
	provider, err := openai.NewProvider(config)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	acts, err := worker.NewActivities(provider.EvidenceExtractor(),
		worker.WithBatchSize(c.Int("batch-size")),
		worker.WithConcurrency(c.Int("concurrency")),
	)
	if err != nil {
		return err
	}

	tc, err := client.Dial(client.Options{
		HostPort:  c.String("temporal-address"),
		Namespace: c.String("namespace"),
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer tc.Close()

	w := tworker.New(tc, c.String("task-queue"), tworker.Options{})
	worker.Register(w, acts)

	slog.Info("starting extraction worker",
		"address", c.String("temporal-address"),
		"namespace", c.String("namespace"),
		"queue", c.String("task-queue"),
		"extractor_model", config.ExtractorModel)

	if err := w.Run(tworker.InterruptCh()); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}
