package svd

import (
	"github.com/YuminosukeSato/recgo/dataset"
	"github.com/YuminosukeSato/recgo/metrics"
	"github.com/YuminosukeSato/recgo/pkg/errors"
	"github.com/YuminosukeSato/recgo/pkg/log"
)

// Evaluate scores the model against held-out observations and returns
// RMSE and MAE. Predictions are aligned with the observations by
// construction (PredictPairs preserves order), including cold-start
// fallbacks. An empty test set is rejected with an EmptyInputError.
func (s *SVD) Evaluate(testObs []dataset.Observation) (rmse, mae float64, err error) {
	if !s.state.IsFitted() {
		return 0, 0, errors.NewNotFittedError("SVD", "Evaluate")
	}
	if len(testObs) == 0 {
		return 0, 0, errors.NewEmptyInputError("SVD.Evaluate")
	}

	pairs := make([]dataset.Pair, len(testObs))
	truths := make([]float64, len(testObs))
	for i, o := range testObs {
		pairs[i] = dataset.Pair{UserID: o.UserID, ItemID: o.ItemID}
		truths[i] = o.Rating
	}

	preds, err := s.PredictPairs(pairs)
	if err != nil {
		return 0, 0, err
	}

	estimates := make([]float64, len(preds))
	fallbacks := 0
	for i, p := range preds {
		estimates[i] = p.Rating
		if p.Fallback {
			fallbacks++
		}
	}

	rmse, err = metrics.RMSE(truths, estimates)
	if err != nil {
		return 0, 0, err
	}
	mae, err = metrics.MAE(truths, estimates)
	if err != nil {
		return 0, 0, err
	}

	log.GetLoggerWithName("svd.evaluate").Info("Evaluation completed",
		log.OperationKey, log.OperationEvaluate,
		log.PredsKey, len(preds),
		log.FallbackKey, fallbacks,
		log.RMSEKey, rmse,
		log.MAEKey, mae,
	)

	return rmse, mae, nil
}

// CheckFinite inspects the trained parameter state for NaN or Inf values
// and returns a NumericalInstabilityError naming the offending block.
// Training never runs this itself; it is an opt-in post-fit diagnostic for
// callers probing aggressive hyperparameters.
func (s *SVD) CheckFinite() error {
	if !s.state.IsFitted() {
		return errors.NewNotFittedError("SVD", "CheckFinite")
	}
	lastEpoch := s.nEpochs - 1
	if err := errors.CheckNumericalStability("user_bias", s.bu, lastEpoch); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("item_bias", s.bi, lastEpoch); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("user_factors", s.p.RawMatrix().Data, lastEpoch); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("item_factors", s.q.RawMatrix().Data, lastEpoch); err != nil {
		return err
	}
	return nil
}
