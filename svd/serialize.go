package svd

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/recgo/core/model"
	"github.com/YuminosukeSato/recgo/dataset"
	"github.com/YuminosukeSato/recgo/pkg/errors"
)

// modelSpec identifies the serialization format.
type modelSpec struct {
	Name          string `json:"name"`
	FormatVersion string `json:"format_version"`
}

// modelRecord is the complete trained-model snapshot: identifier tables in
// index order, all four parameter blocks, the global mean, and every
// hyperparameter needed to reproduce prediction behavior. Factor matrices
// are stored row-major. Go's float64 JSON encoding round-trips exactly, so
// an imported model predicts bit-identically to the exported one.
type modelRecord struct {
	Spec modelSpec `json:"model_spec"`

	NFactors    int            `json:"n_factors"`
	NEpochs     int            `json:"n_epochs"`
	LRBu        float64        `json:"lr_bu"`
	LRBi        float64        `json:"lr_bi"`
	LRPu        float64        `json:"lr_pu"`
	LRQi        float64        `json:"lr_qi"`
	RegBu       float64        `json:"reg_bu"`
	RegBi       float64        `json:"reg_bi"`
	RegPu       float64        `json:"reg_pu"`
	RegQi       float64        `json:"reg_qi"`
	Biased      bool           `json:"biased"`
	RandomState int64          `json:"random_state"`
	InitStdDev  float64        `json:"init_std_dev"`
	Clip        *dataset.Scale `json:"clip,omitempty"`

	GlobalMean  float64   `json:"global_mean"`
	UserBias    []float64 `json:"user_bias"`
	ItemBias    []float64 `json:"item_bias"`
	UserFactors []float64 `json:"user_factors"`
	ItemFactors []float64 `json:"item_factors"`
	UserIDs     []string  `json:"user_ids"`
	ItemIDs     []string  `json:"item_ids"`
}

const formatVersion = "1.0"

// ExportJSON writes the trained model to w as a structured JSON record.
func (s *SVD) ExportJSON(w io.Writer) error {
	if !s.state.IsFitted() {
		return errors.NewNotFittedError("SVD", "ExportJSON")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.record()); err != nil {
		return errors.Wrap(err, "svd: failed to encode model")
	}
	return nil
}

// ExportJSONFile writes the trained model to a JSON file.
func (s *SVD) ExportJSONFile(filename string) error {
	if !s.state.IsFitted() {
		return errors.NewNotFittedError("SVD", "ExportJSONFile")
	}
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "svd: failed to create %s", filename)
	}
	defer file.Close()
	return s.ExportJSON(file)
}

// ImportJSON loads a model exported by ExportJSON into s, replacing any
// existing state and marking the model fitted.
func (s *SVD) ImportJSON(r io.Reader) error {
	var rec modelRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return errors.Wrap(err, "svd: failed to decode model")
	}
	return s.restore(&rec)
}

// ImportJSONFile loads a model from a JSON file written by ExportJSONFile.
func (s *SVD) ImportJSONFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "svd: failed to open %s", filename)
	}
	defer file.Close()
	return s.ImportJSON(file)
}

func (s *SVD) record() *modelRecord {
	rec := &modelRecord{
		Spec:        modelSpec{Name: "SVD", FormatVersion: formatVersion},
		NFactors:    s.nFactors,
		NEpochs:     s.nEpochs,
		LRBu:        s.lrBu,
		LRBi:        s.lrBi,
		LRPu:        s.lrPu,
		LRQi:        s.lrQi,
		RegBu:       s.regBu,
		RegBi:       s.regBi,
		RegPu:       s.regPu,
		RegQi:       s.regQi,
		Biased:      s.biased,
		RandomState: s.randomState,
		InitStdDev:  s.initStdDev,
		GlobalMean:  s.mu,
		UserBias:    s.bu,
		ItemBias:    s.bi,
		UserFactors: s.p.RawMatrix().Data,
		ItemFactors: s.q.RawMatrix().Data,
		UserIDs:     s.index.UserIDs(),
		ItemIDs:     s.index.ItemIDs(),
	}
	if s.clipEnabled {
		scale := s.clipScale
		rec.Clip = &scale
	}
	return rec
}

func (s *SVD) restore(rec *modelRecord) error {
	if s.state == nil {
		// Zero-value destination, e.g. gob decoding into &SVD{}.
		s.state = model.NewStateManager()
	}
	if rec.Spec.Name != "SVD" {
		return errors.NewValueError("SVD.ImportJSON", "record is not an SVD model")
	}
	if rec.NFactors < 1 {
		return errors.NewValueError("SVD.ImportJSON", "record has no factor dimensions")
	}
	nUsers := len(rec.UserIDs)
	nItems := len(rec.ItemIDs)
	if nUsers == 0 || nItems == 0 {
		return errors.NewValueError("SVD.ImportJSON", "record has empty identifier tables")
	}
	if len(rec.UserFactors) != nUsers*rec.NFactors || len(rec.ItemFactors) != nItems*rec.NFactors {
		return errors.NewValueError("SVD.ImportJSON", "factor matrix size does not match identifier tables")
	}
	if len(rec.UserBias) != nUsers || len(rec.ItemBias) != nItems {
		return errors.NewValueError("SVD.ImportJSON", "bias array size does not match identifier tables")
	}

	s.nFactors = rec.NFactors
	s.nEpochs = rec.NEpochs
	s.lrBu, s.lrBi, s.lrPu, s.lrQi = rec.LRBu, rec.LRBi, rec.LRPu, rec.LRQi
	s.regBu, s.regBi, s.regPu, s.regQi = rec.RegBu, rec.RegBi, rec.RegPu, rec.RegQi
	s.biased = rec.Biased
	s.randomState = rec.RandomState
	s.initStdDev = rec.InitStdDev
	s.clipEnabled = rec.Clip != nil
	if rec.Clip != nil {
		s.clipScale = *rec.Clip
	}

	s.mu = rec.GlobalMean
	s.bu = rec.UserBias
	s.bi = rec.ItemBias
	s.p = mat.NewDense(nUsers, rec.NFactors, rec.UserFactors)
	s.q = mat.NewDense(nItems, rec.NFactors, rec.ItemFactors)
	s.index = dataset.NewIndexFromIDs(rec.UserIDs, rec.ItemIDs)

	s.state.SetDimensions(nUsers, nItems)
	s.state.SetFitted()
	return nil
}

// GobEncode implements gob.GobEncoder so trained models work with
// core/model.SaveModel. The gob payload wraps the same record as the JSON
// export.
func (s *SVD) GobEncode() ([]byte, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SVD", "GobEncode")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.record()); err != nil {
		return nil, errors.Wrap(err, "svd: gob encode failed")
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder for core/model.LoadModel.
func (s *SVD) GobDecode(data []byte) error {
	var rec modelRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return errors.Wrap(err, "svd: gob decode failed")
	}
	return s.restore(&rec)
}
