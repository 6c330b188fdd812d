package svd

import (
	"github.com/YuminosukeSato/recgo/core/parallel"
	"github.com/YuminosukeSato/recgo/dataset"
	"github.com/YuminosukeSato/recgo/pkg/errors"
)

// Prediction is a single rating estimate. Fallback marks cold-start
// results: the user or item was absent from the training index and the
// estimate is the global mean. Callers may treat fallbacks separately
// during evaluation.
type Prediction struct {
	UserID   string
	ItemID   string
	Rating   float64
	Fallback bool
}

// batch sizes below this threshold are predicted sequentially
const parallelThreshold = 2048

// Predict estimates the rating a user would give an item.
//
// Known pairs are scored as μ + b_u + b_i + ⟨p_u, q_i⟩ (inner product only
// for an unbiased model), clipped to the configured scale when clipping is
// enabled. Cold identifiers are an expected condition, not an error: the
// estimate falls back to the global mean, unclipped, with Fallback set.
// The only error is predicting on an unfitted model.
func (s *SVD) Predict(userID, itemID string) (Prediction, error) {
	if !s.state.IsFitted() {
		return Prediction{}, errors.NewNotFittedError("SVD", "Predict")
	}
	return s.predictOne(userID, itemID), nil
}

// PredictPairs estimates ratings for a batch of (user, item) pairs,
// preserving order. Each pair is scored independently; large batches are
// chunked across CPU cores. The model is read-only here, so concurrent
// calls are safe.
func (s *SVD) PredictPairs(pairs []dataset.Pair) ([]Prediction, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SVD", "PredictPairs")
	}

	preds := make([]Prediction, len(pairs))
	parallel.ParallelizeWithThreshold(len(pairs), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			preds[i] = s.predictOne(pairs[i].UserID, pairs[i].ItemID)
		}
	})
	return preds, nil
}

func (s *SVD) predictOne(userID, itemID string) Prediction {
	pred := Prediction{UserID: userID, ItemID: itemID}

	u, uOK := s.index.UserIndex(userID)
	i, iOK := s.index.ItemIndex(itemID)
	if !uOK || !iOK {
		pred.Rating = s.mu
		pred.Fallback = true
		return pred
	}

	est := s.rawEstimate(u, i, s.p.RawRowView(u), s.q.RawRowView(i))
	if s.clipEnabled {
		est = errors.ClipValue(est, s.clipScale.Min, s.clipScale.Max)
	}
	pred.Rating = est
	return pred
}
