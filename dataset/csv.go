package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/recgo/pkg/errors"
	"github.com/YuminosukeSato/recgo/pkg/log"
)

// CSVOption configures CSV ingestion.
type CSVOption func(*csvConfig)

type csvConfig struct {
	comma  rune
	header bool
}

// WithComma sets the field separator (default ',').
func WithComma(comma rune) CSVOption {
	return func(c *csvConfig) { c.comma = comma }
}

// WithHeader skips the first row.
func WithHeader() CSVOption {
	return func(c *csvConfig) { c.header = true }
}

// LoadCSV reads observations from a CSV file. The first three columns are,
// in order: user identifier, item identifier, numeric rating. Column names
// are a caller convention; any further columns (e.g. MovieLens timestamps)
// are ignored.
func LoadCSV(filename string, opts ...CSVOption) ([]Observation, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: failed to open %s", filename)
	}
	defer file.Close()

	return LoadCSVReader(file, opts...)
}

// LoadCSVReader reads observations from an io.Reader in CSV form.
func LoadCSVReader(r io.Reader, opts ...CSVOption) ([]Observation, error) {
	cfg := csvConfig{comma: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var obs []Observation
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: csv read failed at row %d", row)
		}
		row++
		if cfg.header && row == 1 {
			continue
		}
		if len(record) < 3 {
			return nil, errors.NewValueError("LoadCSV",
				"each row needs at least user, item, and rating columns")
		}
		rating, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, errors.Wrapf(errors.NewValueError("LoadCSV", "unparseable rating"),
				"row %d: %q", row, record[2])
		}
		obs = append(obs, Observation{UserID: record[0], ItemID: record[1], Rating: rating})
	}

	log.GetLoggerWithName("dataset.csv").Debug("Loaded observations",
		log.RatingsKey, len(obs))

	return obs, nil
}
