package safety

import (
	"fmt"
	"log/slog"

	"github.com/vmks/macsweep/internal/catalog"
	"github.com/vmks/macsweep/internal/classify"
)

// State is a stage in the validation state machine. A candidate advances
// strictly in order; any failing layer moves it to StateRejected.
type State string

const (
	StateProposed            State = "proposed"
	StatePathChecked         State = "path_checked"
	StateCategoryChecked     State = "category_checked"
	StateDryRunChecked       State = "dry_run_checked"
	StateRestorationChecked  State = "restoration_checked"
	StateConfirmationChecked State = "confirmation_checked"
	StateApproved            State = "approved"
	StateRejected            State = "rejected"
)

// Layer identifies which validation layer rejected a candidate.
type Layer int

const (
	LayerPath Layer = iota + 1
	LayerCategory
	LayerDryRun
	LayerRestoration
	LayerConfirmation
)

func (l Layer) String() string {
	switch l {
	case LayerPath:
		return "protected_path"
	case LayerCategory:
		return "category"
	case LayerDryRun:
		return "dry_run"
	case LayerRestoration:
		return "restoration"
	case LayerConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// Rejection is a terminal, non-retryable validation outcome. It carries the
// failing layer so callers can distinguish a protected path from a missing
// confirmation.
type Rejection struct {
	Layer  Layer
	Path   string
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("layer %d (%s) rejected %s: %s", r.Layer, r.Layer, r.Path, r.Reason)
}

// ConfirmToken is the explicit confirmation Layer 5 requires. The caller
// must supply it verbatim; an empty or different token is a rejection.
const ConfirmToken = "DELETE"

// Candidate is a proposed deletion before validation.
type Candidate struct {
	Path         string
	SizeBytes    int64
	DryRun       bool   // true unless the caller explicitly opted out
	ConfirmToken string // must equal ConfirmToken to pass Layer 5
}

// Decision is the result of running a candidate through the state machine.
// Exactly one of State == StateApproved or Rejection != nil holds.
type Decision struct {
	State     State
	Candidate Candidate
	Category  *catalog.Category
	Rejection *Rejection
}

// Approved reports whether the candidate may proceed to the executor.
func (d *Decision) Approved() bool {
	return d.State == StateApproved
}

// Validator runs deletion candidates through the five validation layers.
// It performs no side effects other than logging.
type Validator struct {
	guard      *Guard
	classifier *classify.Classifier
	logger     *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(guard *Guard, classifier *classify.Classifier, logger *slog.Logger) *Validator {
	return &Validator{
		guard:      guard,
		classifier: classifier,
		logger:     logger,
	}
}

// Validate advances the candidate through all five layers. A rejection
// short-circuits: no later layer runs, and the decision records the state
// reached before the failing check.
func (v *Validator) Validate(cand Candidate) *Decision {
	d := &Decision{State: StateProposed, Candidate: cand}

	// Layer 1: protected path check. Not overridable by category or flags.
	if err := v.guard.CheckPath(cand.Path); err != nil {
		return v.reject(d, LayerPath, err.Error())
	}
	d.State = StatePathChecked

	// Layer 2: the path must map to an explicitly deletable category.
	cat := v.classifier.Classify(cand.Path)
	if cat == nil {
		return v.reject(d, LayerCategory, "path matches no category")
	}
	if !cat.Deletable {
		return v.reject(d, LayerCategory, fmt.Sprintf("category %q is not deletable", cat.Name))
	}
	d.Category = cat
	d.State = StateCategoryChecked

	// Layer 3: dry-run is the default. A candidate that has not explicitly
	// opted out stays preview-only.
	if cand.DryRun {
		return v.reject(d, LayerDryRun, "dry-run mode: preview only, deletion requires explicit opt-out")
	}
	d.State = StateDryRunChecked

	// Layer 4: every deletable category must say how to get the content back.
	if cat.RestorationHint == "" || cat.RestorationHint == catalog.RestorationNone {
		return v.reject(d, LayerRestoration, fmt.Sprintf("category %q has no restoration hint", cat.Name))
	}
	d.State = StateRestorationChecked

	// Layer 5: explicit confirmation token, never a default.
	if cand.ConfirmToken != ConfirmToken {
		return v.reject(d, LayerConfirmation, "missing explicit confirmation")
	}
	d.State = StateConfirmationChecked

	d.State = StateApproved
	v.logger.Info("deletion candidate approved",
		"path", cand.Path,
		"category", cat.Name,
		"size", cand.SizeBytes)
	return d
}

func (v *Validator) reject(d *Decision, layer Layer, reason string) *Decision {
	d.State = StateRejected
	d.Rejection = &Rejection{Layer: layer, Path: d.Candidate.Path, Reason: reason}
	v.logger.Warn("deletion candidate rejected",
		"path", d.Candidate.Path,
		"layer", layer.String(),
		"reason", reason)
	return d
}
