package pipeline

import (
	"github.com/cobmax/reconcile/internal/artifact"
	"github.com/cobmax/reconcile/internal/config"
	"github.com/cobmax/reconcile/internal/dataset"
	"github.com/cobmax/reconcile/internal/enrich"
	"github.com/cobmax/reconcile/internal/normalize"
)

const enrichContacts = "enriquecimento_contatos"

// EnrichStats summarizes one enrichment run.
type EnrichStats struct {
	Keys     int
	Selected int
	Contacts int
	Path     string
}

// Enrich flattens the treated source records selected by the latest
// batimento into contact rows for outreach. Both batimento portfolios
// contribute keys; the judicial split matters for routing, not for whether a
// contact is queued.
func (r *Runner) Enrich() (*EnrichStats, error) {
	log := r.log.WithStage(StageEnrich)

	treated, err := r.loadTreated(&r.pipe.Source, "origem")
	if err != nil {
		return nil, &StageError{Stage: StageEnrich, Err: err}
	}

	keys, err := r.batimentoKeys()
	if err != nil {
		return nil, &StageError{Stage: StageEnrich, Err: err}
	}
	log.Infow("Reconciliation keys collected", "keys", len(keys))

	cfg := &r.pipe.Enrichment
	matcher, err := enrich.New(r.enrichmentKey(), r.pipe.IdentifierColumn, cfg.PhoneColumns, cfg.EmailColumns)
	if err != nil {
		return nil, &StageError{Stage: StageEnrich, Err: err}
	}

	contacts, err := matcher.Flatten(treated, keys, r.name, r.referenceDate(treated))
	if err != nil {
		return nil, &StageError{Stage: StageEnrich, Err: err}
	}

	path, err := r.publish(StageEnrich, StageEnrich,
		[]string{enrichContacts},
		map[string]*dataset.Dataset{enrichContacts: contacts})
	if err != nil {
		return nil, err
	}

	return &EnrichStats{
		Keys:     len(keys),
		Selected: treated.Len(),
		Contacts: contacts.Len(),
		Path:     path,
	}, nil
}

// enrichmentKey is the key spec used to re-derive keys during enrichment.
// Defaults to the source snapshot's key spec so both stages agree on
// identity unless explicitly overridden.
func (r *Runner) enrichmentKey() config.KeySpec {
	if !r.pipe.Enrichment.Key.IsZero() {
		return r.pipe.Enrichment.Key
	}
	return r.pipe.Source.Key
}

// batimentoKeys unions the join keys of every entry of the latest batimento
// archive.
func (r *Runner) batimentoKeys() (map[string]struct{}, error) {
	path, err := artifact.Latest(r.outputDir(), StageBatimento+"_[0-9]*.zip")
	if err != nil {
		return nil, err
	}
	sets, err := artifact.ReadAll(path, StageBatimento)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{})
	for _, ds := range sets {
		for _, row := range ds.Rows {
			if k := dataset.CleanText(row[normalize.KeyColumn]); k != "" {
				keys[k] = struct{}{}
			}
		}
	}
	return keys, nil
}
