// Package svd implements biased matrix factorization trained by stochastic
// gradient descent, in the style popularized by the Netflix Prize "Funk SVD"
// family. A rating is modeled as
//
//	r̂(u,i) = μ + b_u + b_i + ⟨p_u, q_i⟩
//
// where μ is the global mean, b_u and b_i are user and item biases, and
// p_u, q_i are latent factor vectors learned from the training set.
package svd

import (
	"github.com/YuminosukeSato/recgo/core/model"
	"github.com/YuminosukeSato/recgo/dataset"
	"gonum.org/v1/gonum/mat"
)

// Default hyperparameters.
const (
	DefaultNFactors       = 100
	DefaultNEpochs        = 20
	DefaultLearningRate   = 0.005
	DefaultRegularization = 0.02
	DefaultInitStdDev     = 0.1
)

// EpochInfo is the per-epoch progress signal handed to an epoch callback.
// TrainRMSE is the root mean squared pre-update error observed during the
// epoch's pass; it is informational only and has no effect on training.
type EpochInfo struct {
	Epoch     int
	TrainRMSE float64
}

// SVD is a biased matrix factorization estimator.
//
// The zero value is not usable; construct instances with New. Fit owns and
// mutates the parameter state; once Fit returns, the state is frozen and
// all prediction methods are safe for concurrent use.
type SVD struct {
	state *model.StateManager

	// Hyperparameters
	nFactors    int
	nEpochs     int
	lrBu        float64 // learning rate for user bias
	lrBi        float64 // learning rate for item bias
	lrPu        float64 // learning rate for user factors
	lrQi        float64 // learning rate for item factors
	regBu       float64 // regularization for user bias
	regBi       float64 // regularization for item bias
	regPu       float64 // regularization for user factors
	regQi       float64 // regularization for item factors
	biased      bool
	randomState int64
	initStdDev  float64
	clipEnabled bool
	clipScale   dataset.Scale

	// Progress
	epochCallback func(EpochInfo)
	epochHistory  []float64

	// Trained parameter state, frozen after Fit
	mu    float64
	bu    []float64
	bi    []float64
	p     *mat.Dense // nUsers x nFactors
	q     *mat.Dense // nItems x nFactors
	index *dataset.Index
}

// Option is a functional option for SVD.
type Option func(*SVD)

// New creates an SVD estimator with Funk-SVD defaults: 100 factors,
// 20 epochs, learning rate 0.005, regularization 0.02, biased model,
// Gaussian(0, 0.1) factor initialization, no prediction clipping.
func New(opts ...Option) *SVD {
	s := &SVD{
		state:       model.NewStateManager(),
		nFactors:    DefaultNFactors,
		nEpochs:     DefaultNEpochs,
		lrBu:        DefaultLearningRate,
		lrBi:        DefaultLearningRate,
		lrPu:        DefaultLearningRate,
		lrQi:        DefaultLearningRate,
		regBu:       DefaultRegularization,
		regBi:       DefaultRegularization,
		regPu:       DefaultRegularization,
		regQi:       DefaultRegularization,
		biased:      true,
		randomState: 0,
		initStdDev:  DefaultInitStdDev,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithNFactors sets the latent factor dimensionality.
func WithNFactors(n int) Option {
	return func(s *SVD) { s.nFactors = n }
}

// WithNEpochs sets the number of SGD passes over the training set.
// Epoch count is the sole stopping criterion; there is no convergence check.
func WithNEpochs(n int) Option {
	return func(s *SVD) { s.nEpochs = n }
}

// WithLearningRate sets a shared learning rate for all parameters.
func WithLearningRate(gamma float64) Option {
	return func(s *SVD) {
		s.lrBu, s.lrBi, s.lrPu, s.lrQi = gamma, gamma, gamma, gamma
	}
}

// WithLearningRates sets per-parameter learning rates, in the order
// user bias, item bias, user factors, item factors.
func WithLearningRates(bu, bi, pu, qi float64) Option {
	return func(s *SVD) {
		s.lrBu, s.lrBi, s.lrPu, s.lrQi = bu, bi, pu, qi
	}
}

// WithRegularization sets a shared L2 regularization for all parameters.
func WithRegularization(lambda float64) Option {
	return func(s *SVD) {
		s.regBu, s.regBi, s.regPu, s.regQi = lambda, lambda, lambda, lambda
	}
}

// WithRegularizations sets per-parameter L2 regularization, in the order
// user bias, item bias, user factors, item factors.
func WithRegularizations(bu, bi, pu, qi float64) Option {
	return func(s *SVD) {
		s.regBu, s.regBi, s.regPu, s.regQi = bu, bi, pu, qi
	}
}

// WithBiased controls whether the model learns μ and the bias terms.
// With biased=false the model is a pure factor model: predictions are the
// plain inner product and the bias arrays stay at zero.
func WithBiased(biased bool) Option {
	return func(s *SVD) { s.biased = biased }
}

// WithRandomState sets the seed of the factor initialization. Given the
// same seed, index assignment, and hyperparameters, initialization is
// bit-for-bit reproducible.
func WithRandomState(seed int64) Option {
	return func(s *SVD) { s.randomState = seed }
}

// WithInitStdDev sets the standard deviation of the Gaussian used to
// initialize the factor matrices.
func WithInitStdDev(std float64) Option {
	return func(s *SVD) { s.initStdDev = std }
}

// WithClipping clips predictions for known pairs to the given rating scale.
// Cold-start fallbacks return the global mean unmodified.
func WithClipping(scale dataset.Scale) Option {
	return func(s *SVD) {
		s.clipEnabled = true
		s.clipScale = scale
	}
}

// WithoutClipping disables prediction clipping. Useful when reconfiguring
// a model restored from a serialized record that carried a clip scale.
func WithoutClipping() Option {
	return func(s *SVD) {
		s.clipEnabled = false
		s.clipScale = dataset.Scale{}
	}
}

// WithEpochCallback registers a progress callback invoked once per
// completed epoch. The callback must not mutate the model.
func WithEpochCallback(fn func(EpochInfo)) Option {
	return func(s *SVD) { s.epochCallback = fn }
}

// IsFitted returns whether the model has been fitted.
func (s *SVD) IsFitted() bool { return s.state.IsFitted() }

// NFactors returns the latent factor dimensionality.
func (s *SVD) NFactors() int { return s.nFactors }

// GlobalMean returns μ, the training set's mean rating.
// It is zero before Fit.
func (s *SVD) GlobalMean() float64 { return s.mu }

// Index returns the identifier index captured at fit time, or nil before Fit.
func (s *SVD) Index() *dataset.Index { return s.index }

// EpochHistory returns the per-epoch training RMSE recorded during the most
// recent Fit, in epoch order.
func (s *SVD) EpochHistory() []float64 {
	return append([]float64(nil), s.epochHistory...)
}
