package scoring

import (
	"sort"
	"strings"

	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

type StrategyID string

const (
	TrainedLogistic StrategyID = "trained_logistic"
	TrainedTree     StrategyID = "trained_tree"
	ManualLogistic  StrategyID = "manual_logistic"
	ManualTree      StrategyID = "manual_tree"
)

var knownStrategies = map[StrategyID]struct{}{
	TrainedLogistic: {},
	TrainedTree:     {},
	ManualLogistic:  {},
	ManualTree:      {},
}

// Labels used by the original form's model picker.
var strategyAliases = map[string]StrategyID{
	"logistic regression": TrainedLogistic,
	"decision tree":       TrainedTree,
}

// ParseStrategyID accepts a strategy identifier or one of the form labels.
func ParseStrategyID(s string) (StrategyID, error) {
	id := StrategyID(strings.TrimSpace(s))
	if _, ok := knownStrategies[id]; ok {
		return id, nil
	}
	if alias, ok := strategyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return alias, nil
	}
	return "", apperrors.NewUnknownStrategyError(s)
}

// Strategy is anything that can turn an applicant into an approval
// probability. Concrete strategies implement exactly one of VectorStrategy
// or AttributeStrategy.
type Strategy interface {
	ID() StrategyID
}

// VectorStrategy scores a feature vector built against the deployment schema.
type VectorStrategy interface {
	Strategy
	ScoreVector(vec FeatureVector) (float64, error)
}

// AttributeStrategy scores raw attributes with a closed-form rule.
type AttributeStrategy interface {
	Strategy
	ScoreAttributes(attrs models.ApplicantAttributes) float64
}

// Classifier is a fitted model that returns the approved-class probability.
type Classifier interface {
	PredictProba(vec FeatureVector) (float64, error)
}

// Artifacts is everything the training pipeline hands over. Nil classifiers
// leave the corresponding trained strategy unavailable.
type Artifacts struct {
	Schema   FeatureSchema
	Logistic Classifier
	Tree     Classifier
}

type trainedStrategy struct {
	id  StrategyID
	clf Classifier
}

func (s trainedStrategy) ID() StrategyID { return s.id }

func (s trainedStrategy) ScoreVector(vec FeatureVector) (float64, error) {
	p, err := s.clf.PredictProba(vec)
	if err != nil {
		return 0, err
	}
	return clip(p, 0, 1), nil
}

// Registry maps identifiers to strategies. It is immutable once built.
type Registry struct {
	strategies map[StrategyID]Strategy
}

func NewRegistry(a Artifacts) *Registry {
	r := &Registry{strategies: map[StrategyID]Strategy{
		ManualLogistic: manualLogistic{},
		ManualTree:     manualTree{},
	}}
	if a.Logistic != nil {
		r.strategies[TrainedLogistic] = trainedStrategy{id: TrainedLogistic, clf: a.Logistic}
	}
	if a.Tree != nil {
		r.strategies[TrainedTree] = trainedStrategy{id: TrainedTree, clf: a.Tree}
	}
	return r
}

// Lookup returns the strategy for id. Unknown identifiers and trained
// strategies whose model was not loaded are configuration errors.
func (r *Registry) Lookup(id StrategyID) (Strategy, error) {
	if s, ok := r.strategies[id]; ok {
		return s, nil
	}
	if _, ok := knownStrategies[id]; ok {
		return nil, apperrors.NewModelArtifactMissingError(string(id))
	}
	return nil, apperrors.NewUnknownStrategyError(string(id))
}

// IDs lists the usable strategies in a stable order.
func (r *Registry) IDs() []StrategyID {
	ids := make([]StrategyID, 0, len(r.strategies))
	for id := range r.strategies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
