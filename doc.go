// Package recgo is a recommender-system toolkit for Go built around biased
// matrix factorization.
//
// The svd package trains a Funk-SVD style model by stochastic gradient
// descent; the dataset package ingests (user, item, rating) observations and
// builds the identifier index; the metrics package scores predictions with
// RMSE and MAE; visualization renders learning curves.
//
// A typical pipeline:
//
//	obs, err := dataset.LoadCSV("ratings.csv", dataset.WithHeader())
//	if err != nil { ... }
//	train, test, err := dataset.TrainTestSplit(obs, 0.25, 42)
//	if err != nil { ... }
//	ds, err := dataset.NewDataset(train)
//	if err != nil { ... }
//
//	m := svd.New(
//		svd.WithNFactors(100),
//		svd.WithNEpochs(20),
//		svd.WithRandomState(42),
//	)
//	if err := m.Fit(context.Background(), ds); err != nil { ... }
//
//	rmse, mae, err := m.Evaluate(test)
package recgo
