package svd

import (
	"context"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/recgo/dataset"
	"github.com/YuminosukeSato/recgo/pkg/errors"
	"github.com/YuminosukeSato/recgo/pkg/log"
)

// Fit trains the model on the given dataset by stochastic gradient descent.
//
// Epochs run strictly sequentially; within an epoch every observation is
// visited exactly once in the dataset's insertion order, so training is
// deterministic for a fixed seed and store. The context is checked at epoch
// boundaries only; a cancelled Fit leaves the model unfitted.
//
// Hyperparameters are validated eagerly before any parameter is touched.
// Numeric divergence under an aggressive learning rate is not detected or
// clamped here; choosing stable hyperparameters is the caller's
// responsibility.
func (s *SVD) Fit(ctx context.Context, data *dataset.Dataset) (err error) {
	defer errors.Recover(&err, "SVD.Fit")

	if err := s.validate(data); err != nil {
		return err
	}

	logger := log.GetLoggerWithName("svd.trainer")
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.RatingsKey, data.Len(),
		log.UsersKey, data.NumUsers(),
		log.ItemsKey, data.NumItems(),
		log.NFactorsKey, s.nFactors,
		log.NEpochsKey, s.nEpochs,
		log.RandomSeedKey, s.randomState,
	)
	start := time.Now()

	s.initParams(data)
	s.epochHistory = make([]float64, 0, s.nEpochs)

	nObs := float64(data.Len())
	// Scratch copy of the current user's factor row. Both factor updates for
	// an observation must read the pre-update vectors; p_u is saved here
	// before it is overwritten so the q_i step sees the old values.
	puOld := make([]float64, s.nFactors)

	for epoch := 0; epoch < s.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			s.state.Reset()
			return errors.Wrapf(err, "svd: training cancelled before epoch %d", epoch)
		}

		var sqErrSum float64
		data.ForEach(func(u, i int, r float64) {
			pu := s.p.RawRowView(u)
			qi := s.q.RawRowView(i)

			e := r - s.rawEstimate(u, i, pu, qi)
			sqErrSum += e * e

			if s.biased {
				s.bu[u] += s.lrBu * (e - s.regBu*s.bu[u])
				s.bi[i] += s.lrBi * (e - s.regBi*s.bi[i])
			}

			copy(puOld, pu)
			for f := 0; f < s.nFactors; f++ {
				pu[f] += s.lrPu * (e*qi[f] - s.regPu*pu[f])
				qi[f] += s.lrQi * (e*puOld[f] - s.regQi*qi[f])
			}
		})

		trainRMSE := math.Sqrt(sqErrSum / nObs)
		s.epochHistory = append(s.epochHistory, trainRMSE)

		logger.Debug("Epoch completed",
			log.EpochKey, epoch,
			log.TrainRMSEKey, trainRMSE,
		)
		if s.epochCallback != nil {
			s.epochCallback(EpochInfo{Epoch: epoch, TrainRMSE: trainRMSE})
		}
	}

	s.state.SetDimensions(data.NumUsers(), data.NumItems())
	s.state.SetFitted()

	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// validate performs the eager configuration checks. Nothing is mutated if
// any of them fails.
func (s *SVD) validate(data *dataset.Dataset) error {
	if data == nil || data.Len() == 0 {
		return errors.NewConfigurationError("dataset", "a non-empty training set is required", 0)
	}
	if s.nFactors < 1 {
		return errors.NewConfigurationError("n_factors", "must be >= 1", s.nFactors)
	}
	if s.nEpochs < 0 {
		return errors.NewConfigurationError("n_epochs", "must be >= 0", s.nEpochs)
	}
	for _, lr := range []float64{s.lrBu, s.lrBi, s.lrPu, s.lrQi} {
		if lr <= 0 || math.IsNaN(lr) {
			return errors.NewConfigurationError("learning_rate", "must be > 0", lr)
		}
	}
	for _, reg := range []float64{s.regBu, s.regBi, s.regPu, s.regQi} {
		if reg < 0 || math.IsNaN(reg) {
			return errors.NewConfigurationError("regularization", "must be >= 0", reg)
		}
	}
	if s.initStdDev < 0 || math.IsNaN(s.initStdDev) {
		return errors.NewConfigurationError("init_std_dev", "must be >= 0", s.initStdDev)
	}
	if s.clipEnabled && s.clipScale.Min > s.clipScale.Max {
		return errors.NewConfigurationError("clip", "min must not exceed max", s.clipScale)
	}
	return nil
}

// initParams sizes and initializes the parameter state from the dataset's
// identifier index. Biases start at zero; each factor element is an
// independent Gaussian(0, initStdDev) draw. The draw order is fixed (P
// row-major, then Q row-major), so a given seed yields bit-identical state.
func (s *SVD) initParams(data *dataset.Dataset) {
	nUsers := data.NumUsers()
	nItems := data.NumItems()

	rng := rand.New(rand.NewSource(s.randomState))

	// μ is kept even for an unbiased model: the estimate ignores it, but
	// cold-start fallbacks always answer with the global mean.
	s.mu = data.GlobalMean()
	s.bu = make([]float64, nUsers)
	s.bi = make([]float64, nItems)

	pData := make([]float64, nUsers*s.nFactors)
	for i := range pData {
		pData[i] = rng.NormFloat64() * s.initStdDev
	}
	qData := make([]float64, nItems*s.nFactors)
	for i := range qData {
		qData[i] = rng.NormFloat64() * s.initStdDev
	}
	s.p = mat.NewDense(nUsers, s.nFactors, pData)
	s.q = mat.NewDense(nItems, s.nFactors, qData)

	s.index = data.Index()
}

// rawEstimate computes μ + b_u + b_i + ⟨p_u, q_i⟩ for internal indices,
// without clipping. The bias terms vanish for an unbiased model.
func (s *SVD) rawEstimate(u, i int, pu, qi []float64) float64 {
	var dot float64
	for f := 0; f < s.nFactors; f++ {
		dot += pu[f] * qi[f]
	}
	if !s.biased {
		return dot
	}
	return s.mu + s.bu[u] + s.bi[i] + dot
}
