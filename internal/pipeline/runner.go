// Package pipeline orchestrates the reconciliation stages for one business
// line: treatment, batimento, baixa, devolução and contact enrichment. Each
// stage reads its inputs from published artifacts and publishes its own, so
// stages can run standalone or chained in a full run.
package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cobmax/reconcile/internal/artifact"
	"github.com/cobmax/reconcile/internal/config"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/logger"
	"github.com/cobmax/reconcile/internal/normalize"
)

// Stage names used in errors, logs and export prefixes.
const (
	StageTreat     = "tratamento"
	StageBatimento = "batimento"
	StageBaixa     = "baixa"
	StageDevolucao = "devolucao"
	StageEnrich    = "enriquecimento"
)

// inconsistentSuffix distinguishes the inconsistent-records archive from the
// treated archive sharing its prefix.
const inconsistentSuffix = "_inconsistentes"

// StageError wraps a stage failure with enough context to tell which stage
// and which artifact broke the run.
type StageError struct {
	Stage    string
	Artifact string
	Err      error
}

func (e *StageError) Error() string {
	if e.Artifact != "" {
		return fmt.Sprintf("stage %s (%s): %v", e.Stage, e.Artifact, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Runner executes the stages of one configured pipeline.
type Runner struct {
	cfg  *config.Config
	name string
	pipe *config.PipelineConfig
	log  *logger.Logger

	// now is injectable so tests can pin the export timestamp.
	now func() time.Time
}

// NewRunner builds a Runner for the named pipeline.
func NewRunner(cfg *config.Config, name string, log *logger.Logger) (*Runner, error) {
	pipe, err := cfg.GetPipeline(name)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:  cfg,
		name: name,
		pipe: pipe,
		log:  log.WithPipeline(name),
		now:  time.Now,
	}, nil
}

// Run executes the full stage chain in order. The first failing stage aborts
// the run; later stages never see partial inputs because every export is
// atomic.
func (r *Runner) Run() error {
	if _, err := r.Treat(); err != nil {
		return err
	}
	if _, err := r.Batimento(); err != nil {
		return err
	}
	if _, err := r.Baixa(); err != nil {
		return err
	}
	if _, err := r.Devolucao(); err != nil {
		return err
	}
	if _, err := r.Enrich(); err != nil {
		return err
	}
	return nil
}

// inputDir resolves a snapshot subdirectory under the input base path.
func (r *Runner) inputDir(subdir string) string {
	return filepath.Join(r.cfg.Paths.Input, subdir)
}

// outputDir is the per-pipeline export directory. Keeping pipelines apart
// lets the treated-archive globs stay simple.
func (r *Runner) outputDir() string {
	return filepath.Join(r.cfg.Paths.Output, r.name)
}

// loadTreated reads back the latest treated archive for a snapshot side.
// Stages re-read treated data from disk instead of passing datasets in
// memory, so every stage can also run standalone from published artifacts.
func (r *Runner) loadTreated(snap *config.SnapshotConfig, side string) (*dataset.Dataset, error) {
	pattern := snap.TreatedPrefix + "_[0-9]*.zip"
	path, err := artifact.Latest(r.outputDir(), pattern)
	if err != nil {
		return nil, fmt.Errorf("treated artifact for %s not found, run %s first: %w", side, StageTreat, err)
	}
	ds, err := artifact.Read(path, side)
	if err != nil {
		return nil, err
	}
	if !ds.HasColumn(normalize.KeyColumn) {
		return nil, fmt.Errorf("treated artifact %s has no %s column", path, normalize.KeyColumn)
	}
	return ds, nil
}

// referenceDate resolves the snapshot reference date used for payment
// defaults and provenance labels. Falls back to the run date when the
// dataset carries no usable date column.
func (r *Runner) referenceDate(ds *dataset.Dataset) string {
	if v := ds.ReferenceDate("DATA_REFERENCIA", "DT_REFERENCIA", "DATA_BASE", "VENCIMENTO"); v != "" {
		return v
	}
	return r.now().Format("02/01/2006")
}

// publish removes previous exports for the prefix and writes the new
// archive. The [0-9] glob keeps a prefix from matching its own suffixed
// sibling archives.
func (r *Runner) publish(stage, prefix string, names []string, sets map[string]*dataset.Dataset) (string, error) {
	if _, err := artifact.RemoveMatching(r.outputDir(), prefix+"_[0-9]*.zip"); err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}
	path, err := artifact.Export(r.outputDir(), prefix, r.now(), names, sets)
	if err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}
	r.log.WithStage(stage).Infow("Archive published", "path", path)
	return path, nil
}
