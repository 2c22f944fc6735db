// Command import_resumes uploads every résumé in a directory to a running pipeline server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	pipelinehttp "talent-pipeline/pkg/http"
)

var rootCmd = &cobra.Command{
	Use:          "import_resumes",
	Short:        "Bulk-upload résumés to the talent pipeline",
	Long:         "Uploads every file in a directory to POST /api/candidates, optionally scanning each against one job, and prints one line per file.",
	RunE:         runImport,
	SilenceUsage: true,
}

var (
	importDir         string
	importServer      string
	importJobID       string
	importConcurrency int
	importTimeout     time.Duration
)

func init() {
	rootCmd.Flags().StringVarP(&importDir, "dir", "d", "", "Directory of résumés to upload (required)")
	rootCmd.Flags().StringVarP(&importServer, "server", "s", "http://localhost:8080", "Base URL of the pipeline server")
	rootCmd.Flags().StringVarP(&importJobID, "job-id", "j", "", "Job to score every résumé against")
	rootCmd.Flags().IntVarP(&importConcurrency, "concurrency", "c", 4, "Parallel uploads")
	rootCmd.Flags().DurationVar(&importTimeout, "timeout", 2*time.Minute, "Per-upload timeout")

	if err := rootCmd.MarkFlagRequired("dir"); err != nil {
		panic(fmt.Sprintf("failed to mark dir flag as required: %v", err))
	}
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, _ []string) error {
	if err := pipelinehttp.ValidateBaseURL(importServer); err != nil {
		return err
	}
	var jobID *uuid.UUID
	if importJobID != "" {
		id, err := uuid.Parse(importJobID)
		if err != nil {
			return fmt.Errorf("invalid --job-id %q: %w", importJobID, err)
		}
		jobID = &id
	}

	files, err := listFiles(importDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found in %s", importDir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := pipelinehttp.NewClient(importServer, importTimeout)
	imp := &importer{client: client, jobID: jobID, concurrency: importConcurrency}

	results, err := imp.run(ctx, files)
	if err != nil {
		return err
	}
	return report(cmd.OutOrStdout(), results)
}

// listFiles returns the regular, non-hidden files directly under dir, sorted by name.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

type result struct {
	path   string
	id     string
	stage  string
	score  float64
	skills []string
	err    error
}

type importer struct {
	client      *pipelinehttp.Client
	jobID       *uuid.UUID
	concurrency int
}

// run uploads files with bounded concurrency. Per-file failures are recorded in the
// results; only context cancellation aborts the batch.
func (imp *importer) run(ctx context.Context, files []string) ([]result, error) {
	if imp.jobID != nil {
		if err := imp.checkJob(ctx); err != nil {
			return nil, err
		}
	}

	results := make([]result, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	limit := imp.concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = imp.upload(gCtx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (imp *importer) checkJob(ctx context.Context) error {
	jobs, err := imp.client.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	for _, j := range jobs {
		if j.ID == *imp.jobID {
			return nil
		}
	}
	return fmt.Errorf("job %s is not registered on the server", imp.jobID)
}

func (imp *importer) upload(ctx context.Context, path string) result {
	res := result{path: path}
	f, err := os.Open(path)
	if err != nil {
		res.err = err
		return res
	}
	defer f.Close()

	upload := pipelinehttp.Upload{
		Filename: filepath.Base(path),
		Content:  f,
	}
	if imp.jobID != nil {
		upload.JobID = imp.jobID.String()
	}
	c, err := imp.client.UploadResume(ctx, upload)
	if err != nil {
		res.err = err
		return res
	}
	res.id = c.ID.String()
	res.stage = c.Stage.String()
	res.score = c.Scoring.Score
	res.skills = c.Scoring.Skills
	return res
}

// report prints one line per file and fails if any upload did not reach the pipeline.
func report(w io.Writer, results []result) error {
	failed := 0
	for _, r := range results {
		name := filepath.Base(r.path)
		if r.err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %s: %v\n", name, r.err)
			continue
		}
		fmt.Fprintf(w, "OK    %s -> %s [%s] score=%.1f skills=%s\n",
			name, r.id, r.stage, r.score, strings.Join(r.skills, ","))
	}
	fmt.Fprintf(w, "%d uploaded, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return errors.New("some uploads failed")
	}
	return nil
}
