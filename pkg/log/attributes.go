// Package log defines standard attribute keys for recommender operations.
//
// Using these keys consistently enables structured log analysis across
// training, prediction, and evaluation. Keys follow a hierarchical naming
// convention (e.g. "model.name", "data.ratings").
package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type. Example: "SVD".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "evaluate".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or component emitting the log.
	// Examples: "svd.trainer", "dataset.csv", "metrics"
	ComponentKey = "ml.component"

	// PhaseKey indicates the model lifecycle phase.
	// Examples: "training", "inference", "evaluation"
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// RatingsKey is the number of rating observations being processed.
	RatingsKey = "data.ratings"

	// UsersKey is the number of distinct users in the index.
	UsersKey = "data.users"

	// ItemsKey is the number of distinct items in the index.
	ItemsKey = "data.items"

	// GlobalMeanKey is the global mean rating of the training set.
	GlobalMeanKey = "data.global_mean"
)

// Training progress and metrics.
const (
	// EpochKey is the current epoch during stochastic gradient descent.
	EpochKey = "training.epoch"

	// TrainRMSEKey is the training-set RMSE after a completed epoch.
	TrainRMSEKey = "metrics.train_rmse"

	// RMSEKey is an evaluation RMSE.
	RMSEKey = "metrics.rmse"

	// MAEKey is an evaluation MAE.
	MAEKey = "metrics.mae"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Prediction context.
const (
	// PredsKey is the number of predictions produced in a batch.
	PredsKey = "preds.count"

	// FallbackKey is the number of cold-start fallback predictions in a batch.
	FallbackKey = "preds.fallback"
)

// Hyperparameters.
const (
	// NFactorsKey is the latent factor dimensionality.
	NFactorsKey = "hyperparams.n_factors"

	// NEpochsKey is the configured epoch count.
	NEpochsKey = "hyperparams.n_epochs"

	// LearningRateKey is the SGD learning rate.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey is the L2 regularization strength.
	RegularizationKey = "hyperparams.regularization"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationEvaluate = "evaluate"

	PhaseTraining   = "training"
	PhaseInference  = "inference"
	PhaseEvaluation = "evaluation"
)
