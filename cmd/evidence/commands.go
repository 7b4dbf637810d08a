package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/poiesic/evidence"
	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/extraction"
	"github.com/poiesic/evidence/similarity"
	"github.com/urfave/cli/v2"
)

func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:   "extract",
		Usage:  "Extract people, evidence, facets and scenes from a transcript",
		Action: extractAction,
		Flags: withDefaults(
			&cli.StringFlag{
				Name:     "transcript",
				Aliases:  []string{"t"},
				Usage:    "Transcript JSON file (\"-\" for stdin)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the result to this file instead of stdout",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Utterances per extraction call",
				Value: extraction.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Concurrent extraction calls",
				Value: extraction.DefaultConcurrency,
			},
			scopeFlag(false),
			&cli.StringFlag{
				Name:  "run",
				Usage: "Run key used for corpus entry ids when --scope is set (default: random)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not render batch progress",
			},
		),
	}
}

func extractAction(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	utterances, err := loadTranscript(c.String("transcript"))
	if err != nil {
		return err
	}

	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("concurrency") <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}

	engine, err := openEngine(c, evidence.WithPipelineOptions(
		extraction.WithBatchSize(batchSize),
		extraction.WithPoolSize(c.Int("concurrency")),
	))
	if err != nil {
		return err
	}
	defer engine.Close()

	reporter, err := extraction.NewPhaseReporter(func(_ context.Context, p extraction.PhaseProgress) error {
		slog.Debug("progress", "phase", p.Phase, "percent", p.Percent, "detail", p.Detail)
		return nil
	})
	if err != nil {
		return err
	}
	progress := []extraction.ProgressFunc{reporter.Report}

	var tracker *extraction.ProgressTracker
	if !c.Bool("quiet") && extraction.NeedsBatching(len(utterances), batchSize) {
		total := (len(utterances) + batchSize - 1) / batchSize
		tracker = extraction.NewProgressTracker(os.Stderr, total)
		tracker.Start()
		progress = append(progress, tracker.Observe)
	}

	result, err := engine.Extract(ctx, utterances, &extraction.RunOptions{
		Progress: extraction.ChainProgress(progress...),
	})
	if tracker != nil {
		tracker.Finish()
	}
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if scope := c.String("scope"); scope != "" {
		run := c.String("run")
		if run == "" {
			run = uuid.NewString()
		}
		stored, err := engine.IndexResult(ctx, scope, run, result)
		if err != nil {
			return fmt.Errorf("index result: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Indexed %d entries into scope %s (run %s)\n", stored, scope, run)
	}

	return writeJSON(c.App.Writer, c.String("out"), result)
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:   "index",
		Usage:  "Embed texts or an extraction result into the corpus",
		Action: indexAction,
		Flags: withDefaults(
			scopeFlag(true),
			&cli.StringFlag{
				Name:  "items",
				Usage: "JSON array of {id, label, text} to index (\"-\" for stdin)",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Entry kind for --items",
				Value: evidence.KindTheme,
			},
			&cli.StringFlag{
				Name:  "result",
				Usage: "Extraction result JSON to index (\"-\" for stdin)",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Run key for --result entry ids",
				Value: "run",
			},
		),
	}
}

func indexAction(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	itemsPath, resultPath := c.String("items"), c.String("result")
	if (itemsPath == "") == (resultPath == "") {
		return errors.New("exactly one of --items or --result is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	scope := c.String("scope")
	var stored int
	if itemsPath != "" {
		var items []evidence.TextItem
		if err := loadJSON(itemsPath, &items); err != nil {
			return err
		}
		stored, err = engine.IndexItems(ctx, scope, c.String("kind"), items)
	} else {
		var result core.ExtractionResult
		if err := loadJSON(resultPath, &result); err != nil {
			return err
		}
		stored, err = engine.IndexResult(ctx, scope, c.String("run"), &result)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	total, err := engine.Vectors().CountEntries(ctx, scope)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Indexed %d entries; scope %s now holds %d\n", stored, scope, total)
	return nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find corpus entries similar to a text (flags go before the text)",
		ArgsUsage: "[flags] <text>",
		Action:    searchAction,
		Flags: withDefaults(
			scopeFlag(true),
			&cli.StringFlag{
				Name:  "use-case",
				Usage: "Threshold to apply: " + useCaseList(),
				Value: string(similarity.GeneralSearch),
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Maximum results per query",
				Value:   10,
			},
			&cli.StringSliceFlag{
				Name:  "query",
				Usage: "Labelled query label=text, searched concurrently (repeatable)",
			},
		),
	}
}

func searchAction(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	useCase, err := similarity.ParseUseCase(c.String("use-case"))
	if err != nil {
		return err
	}

	queries, err := parseLabeledQueries(c.StringSlice("query"))
	if err != nil {
		return err
	}
	for _, arg := range c.Args().Slice() {
		if strings.HasPrefix(arg, "-") {
			return fmt.Errorf("flag %q after the query text: flags must come before the text", arg)
		}
	}
	if text := strings.TrimSpace(strings.Join(c.Args().Slice(), " ")); text != "" {
		queries = append(queries, similarity.LabeledQuery{Label: "query", Text: text})
	}
	if len(queries) == 0 {
		return errors.New("nothing to search: pass text or --query")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	scope := c.String("scope")
	results := engine.SearchAll(ctx, scope, queries, useCase, c.Int("count"))
	for _, q := range queries {
		matches, ok := results[q.Label]
		if !ok {
			fmt.Fprintf(c.App.Writer, "%s: search failed\n", q.Label)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s: %d hits\n", q.Label, len(matches))
		for i, m := range matches {
			text := ""
			if entry, err := engine.Vectors().GetEntry(ctx, scope, m.ID); err == nil {
				text = entry.Text
			}
			fmt.Fprintf(c.App.Writer, "  %d: %s [%0.3f] match=%t %q\n", i, m.ID, m.Score, m.IsMatch, text)
		}
	}
	return nil
}

func parseLabeledQueries(values []string) ([]similarity.LabeledQuery, error) {
	queries := make([]similarity.LabeledQuery, 0, len(values))
	for _, v := range values {
		label, text, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("query %q: expected label=text", v)
		}
		queries = append(queries, similarity.LabeledQuery{Label: strings.TrimSpace(label), Text: text})
	}
	return queries, nil
}

func useCaseList() string {
	names := make([]string, 0, len(similarity.UseCases()))
	for _, u := range similarity.UseCases() {
		names = append(names, string(u))
	}
	return strings.Join(names, ", ")
}

func consolidateCommand() *cli.Command {
	return &cli.Command{
		Name:   "consolidate",
		Usage:  "Plan merges of near-duplicate corpus entries, such as themes",
		Action: consolidateAction,
		Flags: withDefaults(
			scopeFlag(true),
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Entry kind to consolidate",
				Value: evidence.KindTheme,
			},
			&cli.StringFlag{
				Name:  "use-case",
				Usage: "Threshold to apply: " + useCaseList(),
				Value: string(similarity.ThemeDedup),
			},
			&cli.StringFlag{
				Name:  "counts",
				Usage: "JSON object of entry id to evidence count, used to pick canonical entries",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the plan to this file instead of stdout",
			},
		),
	}
}

func consolidateAction(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	useCase, err := similarity.ParseUseCase(c.String("use-case"))
	if err != nil {
		return err
	}

	counts := map[string]int{}
	if path := c.String("counts"); path != "" {
		if err := loadJSON(path, &counts); err != nil {
			return err
		}
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	plan, err := engine.Consolidate(ctx, c.String("scope"), c.String("kind"), counts, useCase)
	if err != nil {
		return fmt.Errorf("consolidation failed: %w", err)
	}
	slog.Info("consolidation planned", "scope", c.String("scope"), "clusters", len(plan))
	return writeJSON(c.App.Writer, c.String("out"), plan)
}

func reembedCommand() *cli.Command {
	return &cli.Command{
		Name:   "reembed",
		Usage:  "Recompute every vector in a scope with the configured embedding model",
		Action: reembedAction,
		Flags: withDefaults(
			scopeFlag(true),
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Entries re-embedded per write",
				Value: evidence.DefaultReembedBatchSize,
			},
		),
	}
}

func reembedAction(c *cli.Context) error {
	ctx, cancel := commandContext(c)
	defer cancel()

	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	scope := c.String("scope")
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))

	n, err := engine.Reembed(ctx, scope, c.Int("batch-size"), func(p evidence.ReembedProgress) {
		fmt.Fprintf(os.Stderr, "\rEntries: %d/%d (%d failed)", p.Processed, p.Total, p.Failed)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Re-embedded %d entries in scope %s\n", n, scope)
	return nil
}
