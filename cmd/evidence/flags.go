package main

import (
	"fmt"

	"github.com/poiesic/evidence"
	"github.com/poiesic/evidence/ai"
	"github.com/poiesic/evidence/similarity"
	"github.com/urfave/cli/v2"
)

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to the BadgerDB corpus directory",
		Value:   "./evidence_db",
		EnvVars: []string{"EVIDENCE_DB"},
	}
}

func scopeFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "scope",
		Aliases:  []string{"s"},
		Usage:    "Project or interview id the corpus entries belong to",
		Required: required,
		EnvVars:  []string{"EVIDENCE_SCOPE"},
	}
}

// aiFlags are the provider settings shared by every command that talks to a model.
func aiFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL; empty disables embeddings",
			Value:   defaults.EmbeddingHost,
			EnvVars: []string{"EVIDENCE_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   defaults.EmbeddingModel,
			EnvVars: []string{"EVIDENCE_EMBEDDING_MODEL"},
		},
		&cli.IntFlag{
			Name:    "embedding-dimensions",
			Usage:   "Requested embedding dimensions (0 uses the model default)",
			EnvVars: []string{"EVIDENCE_EMBEDDING_DIMENSIONS"},
		},
		&cli.StringFlag{
			Name:    "embedding-transport",
			Usage:   "Embedding client: langchaingo or rest",
			Value:   defaults.EmbeddingTransport,
			EnvVars: []string{"EVIDENCE_EMBEDDING_TRANSPORT"},
		},
		&cli.StringFlag{
			Name:    "extractor-host",
			Usage:   "Evidence extraction service host URL",
			Value:   defaults.ExtractorHost,
			EnvVars: []string{"EVIDENCE_EXTRACTOR_HOST"},
		},
		&cli.StringFlag{
			Name:    "extractor-model",
			Usage:   "Evidence extraction model name",
			Value:   defaults.ExtractorModel,
			EnvVars: []string{"EVIDENCE_EXTRACTOR_MODEL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "API key for the model services",
			EnvVars: []string{"EVIDENCE_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.DurationFlag{
			Name:    "request-timeout",
			Usage:   "Timeout for a single model request",
			Value:   defaults.RequestTimeout,
			EnvVars: []string{"EVIDENCE_REQUEST_TIMEOUT"},
		},
	}
}

func thresholdFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "threshold",
		Usage:   "Override a similarity threshold, e.g. theme_dedup=0.9 (repeatable)",
		EnvVars: []string{"EVIDENCE_THRESHOLDS"},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
		ai.WithEmbeddingTransport(c.String("embedding-transport")),
		ai.WithExtractorHost(c.String("extractor-host")),
		ai.WithExtractorModel(c.String("extractor-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithRequestTimeout(c.Duration("request-timeout")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func thresholdsFromFlags(c *cli.Context) (similarity.Thresholds, error) {
	return similarity.DefaultThresholds().WithOverrides(c.StringSlice("threshold"))
}

// openEngine builds an Engine from the command's flags.
func openEngine(c *cli.Context, extra ...evidence.EngineOption) (*evidence.Engine, error) {
	config, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}
	thresholds, err := thresholdsFromFlags(c)
	if err != nil {
		return nil, err
	}

	opts := append([]evidence.EngineOption{
		evidence.WithAIConfig(config),
		evidence.WithThresholds(thresholds),
	}, extra...)

	engine, err := evidence.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

// withDefaults appends the shared flags to a command's own flags.
func withDefaults(flags ...cli.Flag) []cli.Flag {
	out := append([]cli.Flag{dbFlag(), thresholdFlag()}, flags...)
	return append(out, aiFlags()...)
}
