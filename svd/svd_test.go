package svd

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/YuminosukeSato/recgo/dataset"
	"github.com/YuminosukeSato/recgo/pkg/errors"
)

func smallDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.NewDataset([]dataset.Observation{
		{UserID: "u1", ItemID: "i1", Rating: 4},
		{UserID: "u1", ItemID: "i2", Rating: 3},
		{UserID: "u2", ItemID: "i1", Rating: 5},
	})
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	return ds
}

func TestFitValidation(t *testing.T) {
	ds := smallDataset(t)

	tests := []struct {
		name string
		m    *SVD
		data *dataset.Dataset
	}{
		{"nil dataset", New(), nil},
		{"zero factors", New(WithNFactors(0)), ds},
		{"negative epochs", New(WithNEpochs(-1)), ds},
		{"zero learning rate", New(WithLearningRate(0)), ds},
		{"negative learning rate", New(WithLearningRates(0.01, -0.01, 0.01, 0.01)), ds},
		{"NaN learning rate", New(WithLearningRate(math.NaN())), ds},
		{"negative regularization", New(WithRegularization(-0.1)), ds},
		{"NaN regularization", New(WithRegularizations(0.02, 0.02, math.NaN(), 0.02)), ds},
		{"negative init stddev", New(WithInitStdDev(-0.5)), ds},
		{"inverted clip scale", New(WithClipping(dataset.Scale{Min: 5, Max: 1})), ds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Fit(context.Background(), tt.data)
			var cfgErr *errors.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
			}
			if tt.m.IsFitted() {
				t.Error("a rejected Fit must leave the model unfitted")
			}
		})
	}
}

func TestFitZeroEpochs(t *testing.T) {
	ds := smallDataset(t)
	m := New(WithNFactors(2), WithNEpochs(0), WithRandomState(42))

	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !m.IsFitted() {
		t.Fatal("zero-epoch Fit should still leave a fitted model")
	}
	if len(m.EpochHistory()) != 0 {
		t.Errorf("EpochHistory length = %d, want 0", len(m.EpochHistory()))
	}

	// With no SGD pass the parameters must equal initialization exactly:
	// biases zero, factors the seeded Gaussian draws in fixed order.
	for u, b := range m.bu {
		if b != 0 {
			t.Errorf("bu[%d] = %v, want 0", u, b)
		}
	}
	for i, b := range m.bi {
		if b != 0 {
			t.Errorf("bi[%d] = %v, want 0", i, b)
		}
	}

	rng := rand.New(rand.NewSource(42))
	pData := m.p.RawMatrix().Data
	for idx := range pData {
		if want := rng.NormFloat64() * DefaultInitStdDev; pData[idx] != want {
			t.Fatalf("p[%d] = %v, want init draw %v", idx, pData[idx], want)
		}
	}
	qData := m.q.RawMatrix().Data
	for idx := range qData {
		if want := rng.NormFloat64() * DefaultInitStdDev; qData[idx] != want {
			t.Fatalf("q[%d] = %v, want init draw %v", idx, qData[idx], want)
		}
	}

	// Predictions reflect the untouched initialization.
	pred, err := m.Predict("u1", "i1")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	want := m.mu + m.p.RawRowView(0)[0]*m.q.RawRowView(0)[0] + m.p.RawRowView(0)[1]*m.q.RawRowView(0)[1]
	if pred.Rating != want {
		t.Errorf("Predict = %v, want init formula %v", pred.Rating, want)
	}
}

func TestFitSingleObservationConverges(t *testing.T) {
	ds, err := dataset.NewDataset([]dataset.Observation{
		{UserID: "u1", ItemID: "i1", Rating: 5},
	})
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	// One observation, no regularization, small learning rate: the
	// pre-update error must shrink monotonically toward zero.
	m := New(
		WithNFactors(2),
		WithNEpochs(60),
		WithLearningRate(0.05),
		WithRegularization(0),
		WithRandomState(1),
	)
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	history := m.EpochHistory()
	if len(history) != 60 {
		t.Fatalf("EpochHistory length = %d, want 60", len(history))
	}
	for e := 1; e < len(history); e++ {
		if history[e] > history[e-1]+1e-12 {
			t.Fatalf("train RMSE rose at epoch %d: %v -> %v", e, history[e-1], history[e])
		}
	}
	if history[len(history)-1] >= history[0] && history[0] > 0 {
		t.Errorf("error did not decrease: first %v, last %v", history[0], history[len(history)-1])
	}

	pred, err := m.Predict("u1", "i1")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(pred.Rating-5) > 0.05 {
		t.Errorf("fitted prediction = %v, want close to 5", pred.Rating)
	}
}

func TestFitDeterministic(t *testing.T) {
	fit := func() *SVD {
		m := New(WithNFactors(4), WithNEpochs(10), WithRandomState(42))
		if err := m.Fit(context.Background(), smallDataset(t)); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		return m
	}
	m1 := fit()
	m2 := fit()

	if m1.mu != m2.mu {
		t.Errorf("global means differ: %v vs %v", m1.mu, m2.mu)
	}
	for u := range m1.bu {
		if m1.bu[u] != m2.bu[u] {
			t.Fatalf("bu[%d] differs: %v vs %v", u, m1.bu[u], m2.bu[u])
		}
	}
	for i := range m1.bi {
		if m1.bi[i] != m2.bi[i] {
			t.Fatalf("bi[%d] differs: %v vs %v", i, m1.bi[i], m2.bi[i])
		}
	}
	p1, p2 := m1.p.RawMatrix().Data, m2.p.RawMatrix().Data
	for idx := range p1 {
		if p1[idx] != p2[idx] {
			t.Fatalf("p[%d] differs: %v vs %v", idx, p1[idx], p2[idx])
		}
	}
	q1, q2 := m1.q.RawMatrix().Data, m2.q.RawMatrix().Data
	for idx := range q1 {
		if q1[idx] != q2[idx] {
			t.Fatalf("q[%d] differs: %v vs %v", idx, q1[idx], q2[idx])
		}
	}

	pred1, _ := m1.Predict("u2", "i2")
	pred2, _ := m2.Predict("u2", "i2")
	if pred1.Rating != pred2.Rating {
		t.Errorf("predictions differ for identical seeds: %v vs %v", pred1.Rating, pred2.Rating)
	}
}

func TestFitTrainingScenario(t *testing.T) {
	// 3 observations, 2 factors, 1 epoch, gamma 0.01, lambda 0, seed 42.
	// The mean is exactly 4.0, u2 rated above the mean and u1 below it,
	// so after one pass the learned biases must carry those signs.
	ds := smallDataset(t)
	m := New(
		WithNFactors(2),
		WithNEpochs(1),
		WithLearningRate(0.01),
		WithRegularization(0),
		WithRandomState(42),
	)
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if m.GlobalMean() != 4.0 {
		t.Errorf("GlobalMean() = %v, want exactly 4.0", m.GlobalMean())
	}

	u1, _ := m.index.UserIndex("u1")
	u2, _ := m.index.UserIndex("u2")
	if m.bu[u2] <= 0 {
		t.Errorf("bu[u2] = %v, want > 0 (u2 rates above the mean)", m.bu[u2])
	}
	if m.bu[u1] >= 0 {
		t.Errorf("bu[u1] = %v, want < 0 (u1 rates below the mean)", m.bu[u1])
	}
}

func TestPredictColdStart(t *testing.T) {
	ds := smallDataset(t)
	// Clipping to a scale that excludes the mean: fallback must still
	// answer exactly mu, unclipped.
	m := New(
		WithNFactors(3),
		WithNEpochs(2),
		WithClipping(dataset.Scale{Min: 1, Max: 3}),
		WithRandomState(42),
	)
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	tests := []struct {
		name       string
		user, item string
	}{
		{"unknown user", "ghost", "i1"},
		{"unknown item", "u1", "ghost"},
		{"both unknown", "ghost", "phantom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := m.Predict(tt.user, tt.item)
			if err != nil {
				t.Fatalf("cold-start Predict must not error: %v", err)
			}
			if !pred.Fallback {
				t.Error("Fallback flag not set")
			}
			if pred.Rating != 4.0 {
				t.Errorf("cold-start rating = %v, want exactly the global mean 4.0", pred.Rating)
			}
		})
	}
}

func TestUnbiasedModel(t *testing.T) {
	ds := smallDataset(t)
	m := New(WithNFactors(2), WithNEpochs(5), WithBiased(false), WithRandomState(42))
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for u, b := range m.bu {
		if b != 0 {
			t.Errorf("unbiased model touched bu[%d] = %v", u, b)
		}
	}
	for i, b := range m.bi {
		if b != 0 {
			t.Errorf("unbiased model touched bi[%d] = %v", i, b)
		}
	}

	// The estimate is the plain inner product.
	u, _ := m.index.UserIndex("u1")
	i, _ := m.index.ItemIndex("i1")
	pu, qi := m.p.RawRowView(u), m.q.RawRowView(i)
	want := pu[0]*qi[0] + pu[1]*qi[1]
	pred, err := m.Predict("u1", "i1")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Rating != want {
		t.Errorf("unbiased Predict = %v, want dot product %v", pred.Rating, want)
	}

	// Cold start still answers with the mean.
	cold, _ := m.Predict("ghost", "i1")
	if cold.Rating != 4.0 || !cold.Fallback {
		t.Errorf("unbiased cold start = (%v, %v), want (4.0, true)", cold.Rating, cold.Fallback)
	}
}

func TestPredictClipping(t *testing.T) {
	ds := smallDataset(t)
	m := New(WithNFactors(2), WithNEpochs(1), WithClipping(dataset.Scale{Min: 1, Max: 5}), WithRandomState(42))
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Push a known pair's estimate far outside the scale.
	i, _ := m.index.ItemIndex("i1")
	m.bi[i] = 100

	pred, err := m.Predict("u1", "i1")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Rating != 5 {
		t.Errorf("clipped prediction = %v, want 5", pred.Rating)
	}

	m.bi[i] = -100
	pred, _ = m.Predict("u1", "i1")
	if pred.Rating != 1 {
		t.Errorf("clipped prediction = %v, want 1", pred.Rating)
	}

	m.clipEnabled = false
	pred, _ = m.Predict("u1", "i1")
	if pred.Rating >= 1 {
		t.Errorf("unclipped prediction = %v, want far below the scale", pred.Rating)
	}
}

func TestPredictPairsOrder(t *testing.T) {
	ds := smallDataset(t)
	m := New(WithNFactors(2), WithNEpochs(3), WithRandomState(42))
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pairs := []dataset.Pair{
		{UserID: "u2", ItemID: "i1"},
		{UserID: "ghost", ItemID: "i1"},
		{UserID: "u1", ItemID: "i2"},
	}
	preds, err := m.PredictPairs(pairs)
	if err != nil {
		t.Fatalf("PredictPairs failed: %v", err)
	}
	if len(preds) != len(pairs) {
		t.Fatalf("got %d predictions, want %d", len(preds), len(pairs))
	}
	for i, p := range preds {
		if p.UserID != pairs[i].UserID || p.ItemID != pairs[i].ItemID {
			t.Errorf("prediction %d is for (%s, %s), want (%s, %s)",
				i, p.UserID, p.ItemID, pairs[i].UserID, pairs[i].ItemID)
		}
		single, _ := m.Predict(pairs[i].UserID, pairs[i].ItemID)
		if p.Rating != single.Rating || p.Fallback != single.Fallback {
			t.Errorf("batch and single predictions disagree at %d", i)
		}
	}
	if !preds[1].Fallback {
		t.Error("the cold pair must be marked as a fallback")
	}
}

func TestNotFittedErrors(t *testing.T) {
	m := New()

	var notFitted *errors.NotFittedError
	if _, err := m.Predict("u", "i"); !errors.As(err, &notFitted) {
		t.Errorf("Predict on unfitted model: got %v", err)
	}
	if _, err := m.PredictPairs([]dataset.Pair{{UserID: "u", ItemID: "i"}}); !errors.As(err, &notFitted) {
		t.Errorf("PredictPairs on unfitted model: got %v", err)
	}
	if _, _, err := m.Evaluate([]dataset.Observation{{UserID: "u", ItemID: "i", Rating: 1}}); !errors.As(err, &notFitted) {
		t.Errorf("Evaluate on unfitted model: got %v", err)
	}
	if err := m.ExportJSON(nil); !errors.As(err, &notFitted) {
		t.Errorf("ExportJSON on unfitted model: got %v", err)
	}
	if err := m.CheckFinite(); !errors.As(err, &notFitted) {
		t.Errorf("CheckFinite on unfitted model: got %v", err)
	}
}

func TestFitCancelledContext(t *testing.T) {
	ds := smallDataset(t)
	m := New(WithNFactors(2), WithNEpochs(10), WithRandomState(42))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Fit(ctx, ds)
	if err == nil {
		t.Fatal("Fit with a cancelled context should fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	if m.IsFitted() {
		t.Error("a cancelled Fit must leave the model unfitted")
	}
}

func TestEpochCallback(t *testing.T) {
	ds := smallDataset(t)

	var seen []EpochInfo
	m := New(
		WithNFactors(2),
		WithNEpochs(5),
		WithRandomState(42),
		WithEpochCallback(func(info EpochInfo) { seen = append(seen, info) }),
	)
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(seen) != 5 {
		t.Fatalf("callback fired %d times, want 5", len(seen))
	}
	history := m.EpochHistory()
	for e, info := range seen {
		if info.Epoch != e {
			t.Errorf("callback %d reported epoch %d", e, info.Epoch)
		}
		if info.TrainRMSE != history[e] {
			t.Errorf("callback RMSE %v disagrees with history %v at epoch %d",
				info.TrainRMSE, history[e], e)
		}
	}
}

func TestCheckFinite(t *testing.T) {
	ds := smallDataset(t)
	m := New(WithNFactors(2), WithNEpochs(1), WithRandomState(42))
	if err := m.Fit(context.Background(), ds); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if err := m.CheckFinite(); err != nil {
		t.Errorf("healthy model reported instability: %v", err)
	}

	m.bu[0] = math.NaN()
	err := m.CheckFinite()
	var instErr *errors.NumericalInstabilityError
	if !errors.As(err, &instErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if instErr.Operation != "user_bias" {
		t.Errorf("Operation = %q, want user_bias", instErr.Operation)
	}
}
