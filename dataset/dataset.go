// Package dataset provides the rating store for recommender training:
// raw (user, item, rating) observations, the bijection between external
// identifiers and dense internal indices, and train/test splitting.
package dataset

import (
	"github.com/YuminosukeSato/recgo/pkg/errors"
)

// Observation is a single rating event. Observations form a multiset:
// the same (user, item) pair may appear more than once, e.g. after
// re-rating, and every occurrence is visited during training.
type Observation struct {
	UserID string
	ItemID string
	Rating float64
}

// Pair identifies a (user, item) query for prediction.
type Pair struct {
	UserID string
	ItemID string
}

// Scale is the declared valid rating range of a data source, e.g. [1, 5]
// for MovieLens. It is used only for optional validation and prediction
// clipping, never for normalization.
type Scale struct {
	Min float64
	Max float64
}

// Index is a bijection between external user/item identifiers and dense
// zero-based internal indices. It is built once from the training
// observations, in first-seen order, and is immutable afterwards.
type Index struct {
	userIDs []string
	itemIDs []string
	users   map[string]int
	items   map[string]int
}

// newIndex builds the bijection from observations in first-seen order.
func newIndex(obs []Observation) *Index {
	idx := &Index{
		users: make(map[string]int),
		items: make(map[string]int),
	}
	for _, o := range obs {
		if _, ok := idx.users[o.UserID]; !ok {
			idx.users[o.UserID] = len(idx.userIDs)
			idx.userIDs = append(idx.userIDs, o.UserID)
		}
		if _, ok := idx.items[o.ItemID]; !ok {
			idx.items[o.ItemID] = len(idx.itemIDs)
			idx.itemIDs = append(idx.itemIDs, o.ItemID)
		}
	}
	return idx
}

// NewIndexFromIDs reconstructs an Index from ordered identifier tables,
// as stored in a serialized model. Position in the slice is the internal
// index.
func NewIndexFromIDs(userIDs, itemIDs []string) *Index {
	idx := &Index{
		userIDs: append([]string(nil), userIDs...),
		itemIDs: append([]string(nil), itemIDs...),
		users:   make(map[string]int, len(userIDs)),
		items:   make(map[string]int, len(itemIDs)),
	}
	for i, id := range idx.userIDs {
		idx.users[id] = i
	}
	for i, id := range idx.itemIDs {
		idx.items[id] = i
	}
	return idx
}

// UserIndex returns the internal index for a user identifier.
// The second return value is false for cold identifiers.
func (idx *Index) UserIndex(userID string) (int, bool) {
	i, ok := idx.users[userID]
	return i, ok
}

// ItemIndex returns the internal index for an item identifier.
func (idx *Index) ItemIndex(itemID string) (int, bool) {
	i, ok := idx.items[itemID]
	return i, ok
}

// UserID returns the external identifier for an internal user index.
func (idx *Index) UserID(i int) string { return idx.userIDs[i] }

// ItemID returns the external identifier for an internal item index.
func (idx *Index) ItemID(i int) string { return idx.itemIDs[i] }

// NumUsers returns the number of indexed users.
func (idx *Index) NumUsers() int { return len(idx.userIDs) }

// NumItems returns the number of indexed items.
func (idx *Index) NumItems() int { return len(idx.itemIDs) }

// UserIDs returns the user identifier table in index order.
func (idx *Index) UserIDs() []string { return append([]string(nil), idx.userIDs...) }

// ItemIDs returns the item identifier table in index order.
func (idx *Index) ItemIDs() []string { return append([]string(nil), idx.itemIDs...) }

// indexedObservation is an observation with identifiers resolved to
// internal indices.
type indexedObservation struct {
	user   int
	item   int
	rating float64
}

// Dataset is the immutable training view: indexed observations in insertion
// order, the identifier index, and the global mean rating. Insertion order
// is the documented visitation order of the SGD trainer, which makes
// training reproducible for a fixed seed and store.
type Dataset struct {
	index *Index
	obs   []indexedObservation
	mean  float64
}

// DatasetOption configures dataset construction.
type DatasetOption func(*datasetConfig)

type datasetConfig struct {
	strict bool
	scale  Scale
}

// WithStrictScale enables strict validation: construction fails with a
// ConfigurationError when any rating lies outside the given scale.
func WithStrictScale(scale Scale) DatasetOption {
	return func(c *datasetConfig) {
		c.strict = true
		c.scale = scale
	}
}

// NewDataset builds the training view from raw observations. At least one
// observation is required. The identifier index is assigned in first-seen
// order and the global mean is computed once here.
func NewDataset(obs []Observation, opts ...DatasetOption) (*Dataset, error) {
	var cfg datasetConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(obs) == 0 {
		return nil, errors.NewConfigurationError("observations", "at least one observation is required", 0)
	}
	if cfg.strict && cfg.scale.Min > cfg.scale.Max {
		return nil, errors.NewConfigurationError("scale", "min must not exceed max", cfg.scale)
	}

	idx := newIndex(obs)

	indexed := make([]indexedObservation, len(obs))
	var sum float64
	for i, o := range obs {
		if cfg.strict && (o.Rating < cfg.scale.Min || o.Rating > cfg.scale.Max) {
			return nil, errors.NewConfigurationError("observations",
				"rating outside the declared scale", o.Rating)
		}
		u, _ := idx.UserIndex(o.UserID)
		it, _ := idx.ItemIndex(o.ItemID)
		indexed[i] = indexedObservation{user: u, item: it, rating: o.Rating}
		sum += o.Rating
	}

	return &Dataset{
		index: idx,
		obs:   indexed,
		mean:  sum / float64(len(obs)),
	}, nil
}

// Index returns the identifier index of the training set.
func (d *Dataset) Index() *Index { return d.index }

// NumUsers returns the number of distinct users.
func (d *Dataset) NumUsers() int { return d.index.NumUsers() }

// NumItems returns the number of distinct items.
func (d *Dataset) NumItems() int { return d.index.NumItems() }

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.obs) }

// GlobalMean returns the arithmetic mean of all training ratings.
func (d *Dataset) GlobalMean() float64 { return d.mean }

// ForEach visits every observation once, in insertion order, with internal
// indices resolved. The sequence is restartable: each call starts from the
// beginning.
func (d *Dataset) ForEach(fn func(user, item int, rating float64)) {
	for _, o := range d.obs {
		fn(o.user, o.item, o.rating)
	}
}

// At returns the i-th observation in insertion order.
func (d *Dataset) At(i int) (user, item int, rating float64) {
	o := d.obs[i]
	return o.user, o.item, o.rating
}
