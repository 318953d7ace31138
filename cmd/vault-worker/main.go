// vault-worker ingests every statement file in a directory through the job
// queue, then exits. Files already in the vault are skipped by the pipeline's
// duplicate check, so re-running over the same directory is safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/finance-vault/internal/config"
	"github.com/dvloznov/finance-vault/internal/jobs"
	"github.com/dvloznov/finance-vault/internal/jobs/inmemory"
	"github.com/dvloznov/finance-vault/internal/logger"
	"github.com/dvloznov/finance-vault/internal/oracle"
	"github.com/dvloznov/finance-vault/internal/pipeline"
	"github.com/dvloznov/finance-vault/internal/vault"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	cfgPath := flag.String("config", "vault.yaml", "Path to the YAML configuration file")
	dir := flag.String("dir", "", "Directory of statement files to ingest")
	flag.Parse()

	if *dir == "" {
		log.Fatal().Msg("Error: --dir is required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading configuration failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := vault.Open(ctx, cfg.VaultPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.VaultPath).Msg("Opening vault failed")
	}
	defer store.Close()

	orc, err := newOracle(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Creating oracle client failed")
	}

	ing := &pipeline.Ingestor{
		Vault:      store,
		Extractor:  &oracle.Adapter{Oracle: orc, Workers: cfg.ExtractWorkers},
		ChunkLines: cfg.ChunkLines,
	}

	paths, err := statementFiles(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("Scanning directory failed")
	}
	if len(paths) == 0 {
		fmt.Println("No statement files found.")
		return
	}

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(cfg.Queue.Buffer, cfg.Queue.Workers, jobStore)

	var wg sync.WaitGroup
	handler := func(ctx context.Context, job jobs.Job) error {
		ingestJob, ok := job.(*jobs.IngestFileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().Str("job_id", ingestJob.JobID).Str("file", ingestJob.Path).Msg("Processing ingest job")

		data, err := os.ReadFile(ingestJob.Path)
		if err != nil {
			return markDone(&wg, ingestJob, err)
		}

		report, err := ing.IngestFile(ctx, ingestJob.Path, data)
		ingestJob.FileHash = report.FileHash
		ingestJob.Persisted = report.Persisted
		if err == nil && report.Status == pipeline.StatusDuplicate {
			ingestJob.Status = jobs.JobStatusDuplicate
		}
		return markDone(&wg, ingestJob, err)
	}

	if err := queue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Starting job consumer failed")
	}

	log.Info().Int("files", len(paths)).Str("dir", *dir).Msg("Publishing ingest jobs")

	for _, p := range paths {
		wg.Add(1)
		job := &jobs.IngestFileJob{Path: p, MaxRetries: cfg.Queue.MaxRetries}
		if err := queue.PublishIngestFile(ctx, job); err != nil {
			wg.Done()
			log.Error().Err(err).Str("file", p).Msg("Publishing job failed")
		}
	}

	wg.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := queue.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Stopping queue failed")
	}

	printSummary(ctx, jobStore)
}

func newOracle(ctx context.Context, cfg config.Config) (oracle.Oracle, error) {
	switch cfg.Oracle.Provider {
	case config.ProviderGemini:
		return oracle.NewGeminiClient(ctx, cfg.Oracle.Model)
	default:
		return &oracle.LocalClient{
			BaseURL: cfg.Oracle.BaseURL,
			APIKey:  cfg.Oracle.APIKey,
			Model:   cfg.Oracle.Model,
		}, nil
	}
}

// markDone releases the batch waiter once a job reaches a terminal attempt.
// Jobs that will be retried keep their waiter slot.
func markDone(wg *sync.WaitGroup, job *jobs.IngestFileJob, err error) error {
	if err == nil || job.RetryCount >= job.MaxRetries {
		wg.Done()
	}
	return err
}

func statementFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".csv":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func printSummary(ctx context.Context, store jobs.JobStore) {
	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		return
	}
	var completed, duplicates, failed, persisted int
	for _, j := range all {
		switch j.Status {
		case jobs.JobStatusCompleted:
			completed++
			persisted += j.Persisted
		case jobs.JobStatusDuplicate:
			duplicates++
		case jobs.JobStatusFailed:
			failed++
			fmt.Printf("FAILED  %s: %s\n", j.Path, j.Error)
		}
	}
	fmt.Printf("Done: %d ingested (%d transactions), %d duplicates, %d failed.\n",
		completed, persisted, duplicates, failed)
}
