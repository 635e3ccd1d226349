package scoring

import (
	"fmt"
	"math"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
)

// Engine runs the scoring pipeline. It holds only read-only state and is
// safe for concurrent use.
type Engine struct {
	schema       FeatureSchema
	registry     *Registry
	logger       logger.Logger
	onDivergence func(Divergence)
}

type Option func(*Engine)

// WithDivergenceHook is called once per reported divergence, after logging.
func WithDivergenceHook(fn func(Divergence)) Option {
	return func(e *Engine) { e.onDivergence = fn }
}

type sizedClassifier interface {
	NumFeatures() int
}

// NewEngine wires the artifacts into a registry. Without a schema the
// default training layout is used, which is only allowed when no trained
// model was supplied.
func NewEngine(a Artifacts, log logger.Logger, opts ...Option) (*Engine, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	schema := a.Schema
	if len(schema) == 0 {
		if a.Logistic != nil || a.Tree != nil {
			return nil, apperrors.NewConfigurationError("trained models supplied without a feature schema")
		}
		schema = DefaultFeatureSchema
	}

	for name, clf := range map[string]Classifier{"logistic": a.Logistic, "tree": a.Tree} {
		sized, ok := clf.(sizedClassifier)
		if !ok || sized.NumFeatures() == 0 {
			continue
		}
		if sized.NumFeatures() != len(schema) {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf(
				"%s model has %d features, schema has %d", name, sized.NumFeatures(), len(schema)))
		}
	}

	e := &Engine{
		schema:   append(FeatureSchema(nil), schema...),
		registry: NewRegistry(Artifacts{Schema: schema, Logistic: a.Logistic, Tree: a.Tree}),
		logger:   log.WithFields(map[string]interface{}{"component": "scoring"}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.report(e.schema.Check())

	return e, nil
}

// Strategies lists the identifiers this engine can serve.
func (e *Engine) Strategies() []StrategyID {
	return e.registry.IDs()
}

// Schema returns a copy of the feature schema in use.
func (e *Engine) Schema() FeatureSchema {
	return append(FeatureSchema(nil), e.schema...)
}

// Score validates attrs and runs the named strategy over them.
func (e *Engine) Score(strategy string, attrs models.ApplicantAttributes) (Result, error) {
	id, err := ParseStrategyID(strategy)
	if err != nil {
		return Result{}, err
	}
	s, err := e.registry.Lookup(id)
	if err != nil {
		return Result{}, err
	}

	if err := Validate(attrs); err != nil {
		return Result{}, apperrors.NewApplicantValidationFailedError(err.Error())
	}

	var p float64
	switch s := s.(type) {
	case VectorStrategy:
		vec, divergences := BuildVector(attrs, e.schema)
		e.report(divergences)
		p, err = s.ScoreVector(vec)
		if err != nil {
			return Result{}, apperrors.NewConfigurationError(fmt.Sprintf("%s: %v", id, err))
		}
	case AttributeStrategy:
		p = s.ScoreAttributes(attrs)
	default:
		return Result{}, apperrors.NewConfigurationError(fmt.Sprintf("strategy %s has no scoring method", id))
	}

	if math.IsNaN(p) {
		return Result{}, apperrors.NewConfigurationError(fmt.Sprintf("%s produced NaN", id))
	}

	result := NewResult(id, p, attrs)

	e.logger.Debug("applicant scored", map[string]interface{}{
		"strategy":    id,
		"probability": result.Probability,
		"decision":    result.Decision,
		"score":       result.Score,
	})

	return result, nil
}

// Evaluate scores attrs and assembles the record to persist.
func (e *Engine) Evaluate(strategy string, attrs models.ApplicantAttributes) (Result, models.ApplicantRecord, error) {
	result, err := e.Score(strategy, attrs)
	if err != nil {
		return Result{}, models.ApplicantRecord{}, err
	}
	return result, AssembleRecord(attrs, result), nil
}

func (e *Engine) report(divergences []Divergence) {
	for _, d := range divergences {
		e.logger.Warn("feature schema divergence", map[string]interface{}{
			"errorCode": string(apperrors.ErrCodeSchemaDivergence),
			"kind":      string(d.Kind),
			"name":      d.Name,
		})
		if e.onDivergence != nil {
			e.onDivergence(d)
		}
	}
}
