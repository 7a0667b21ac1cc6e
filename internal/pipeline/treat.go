package pipeline

import (
	"fmt"

	"github.com/cobmax/reconcile/internal/artifact"
	"github.com/cobmax/reconcile/internal/config"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/normalize"
	"github.com/cobmax/reconcile/internal/validate"
)

// TreatStats summarizes the treatment of one snapshot side.
type TreatStats struct {
	Side             string
	RawPath          string
	Raw              int
	Valid            int
	Inconsistent     int
	TreatedPath      string
	InconsistentPath string
}

// Treat normalizes and validates the latest raw snapshot of each side and
// publishes the treated and inconsistent archives. Both sides are treated
// every run; the later stages only consume treated artifacts.
func (r *Runner) Treat() ([]TreatStats, error) {
	stats := make([]TreatStats, 0, 2)
	for _, side := range []struct {
		name string
		snap *config.SnapshotConfig
	}{
		{"origem", &r.pipe.Source},
		{"carteira", &r.pipe.Ledger},
	} {
		s, err := r.treatSide(side.name, side.snap)
		if err != nil {
			return stats, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// treatSide runs normalize + partition for one snapshot and publishes both
// result archives, replacing the previous generation.
func (r *Runner) treatSide(side string, snap *config.SnapshotConfig) (TreatStats, error) {
	log := r.log.WithStage(StageTreat)

	rawPath, err := artifact.Latest(r.inputDir(snap.Subdir), snap.Pattern)
	if err != nil {
		return TreatStats{}, &StageError{Stage: StageTreat, Artifact: snap.Pattern, Err: err}
	}

	raw, err := artifact.Read(rawPath, side)
	if err != nil {
		return TreatStats{}, &StageError{Stage: StageTreat, Artifact: rawPath, Err: err}
	}
	log.WithArtifact(rawPath).Infow("Raw snapshot loaded", "side", side, "records", raw.Len())

	normalizer, err := normalize.New(snap)
	if err != nil {
		return TreatStats{}, &StageError{Stage: StageTreat, Artifact: rawPath, Err: err}
	}
	normalized, err := normalizer.Apply(raw)
	if err != nil {
		return TreatStats{}, &StageError{Stage: StageTreat, Artifact: rawPath, Err: err}
	}

	validator, err := validate.New(snap.Required, snap.KeyPattern)
	if err != nil {
		return TreatStats{}, &StageError{Stage: StageTreat, Artifact: rawPath, Err: err}
	}
	valid, inconsistent := validator.Partition(normalized)

	if valid.Len() == 0 {
		return TreatStats{}, &StageError{
			Stage:    StageTreat,
			Artifact: rawPath,
			Err:      fmt.Errorf("no valid record survived treatment of %s", side),
		}
	}

	prefix := snap.TreatedPrefix
	treatedPath, err := r.publish(StageTreat, prefix,
		[]string{prefix}, map[string]*dataset.Dataset{prefix: valid})
	if err != nil {
		return TreatStats{}, err
	}

	incPrefix := prefix + inconsistentSuffix
	inconsistentPath, err := r.publish(StageTreat, incPrefix,
		[]string{incPrefix}, map[string]*dataset.Dataset{incPrefix: inconsistent})
	if err != nil {
		return TreatStats{}, err
	}

	log.Infow("Snapshot treated",
		"side", side,
		"raw", raw.Len(),
		"valid", valid.Len(),
		"inconsistent", inconsistent.Len(),
	)

	return TreatStats{
		Side:             side,
		RawPath:          rawPath,
		Raw:              raw.Len(),
		Valid:            valid.Len(),
		Inconsistent:     inconsistent.Len(),
		TreatedPath:      treatedPath,
		InconsistentPath: inconsistentPath,
	}, nil
}
