package dataset

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/recgo/pkg/errors"
)

// TrainTestSplit partitions observations into train and test sets after a
// seeded Fisher-Yates shuffle. The split is deterministic for a given seed
// and input order. testFraction must lie in [0, 1); the train set is never
// left empty.
func TrainTestSplit(obs []Observation, testFraction float64, seed int64) (train, test []Observation, err error) {
	if math.IsNaN(testFraction) || testFraction < 0 || testFraction >= 1 {
		return nil, nil, errors.NewConfigurationError("test_fraction",
			"must be in [0, 1)", testFraction)
	}
	if len(obs) == 0 {
		return nil, nil, errors.NewConfigurationError("observations",
			"at least one observation is required", 0)
	}

	shuffled := append([]Observation(nil), obs...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(float64(len(shuffled)) * testFraction)
	if nTest >= len(shuffled) {
		nTest = len(shuffled) - 1
	}

	return shuffled[nTest:], shuffled[:nTest], nil
}
