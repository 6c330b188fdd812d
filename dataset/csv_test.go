package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVReader(t *testing.T) {
	in := "userId,movieId,rating,timestamp\n1,31,2.5,1260759144\n1,1029,3.0,1260759179\n7,50,4.5,851866058\n"

	obs, err := LoadCSVReader(strings.NewReader(in), WithHeader())
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, Observation{UserID: "1", ItemID: "31", Rating: 2.5}, obs[0])
	assert.Equal(t, Observation{UserID: "7", ItemID: "50", Rating: 4.5}, obs[2])
}

func TestLoadCSVReaderSemicolon(t *testing.T) {
	in := "10;200;4\n11;201;1.5\n"

	obs, err := LoadCSVReader(strings.NewReader(in), WithComma(';'))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "10", obs[0].UserID)
	assert.Equal(t, 1.5, obs[1].Rating)
}

func TestLoadCSVReaderBadRating(t *testing.T) {
	in := "1,31,good\n"

	_, err := LoadCSVReader(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestLoadCSVReaderShortRow(t *testing.T) {
	in := "1,31\n"

	_, err := LoadCSVReader(strings.NewReader(in))
	require.Error(t, err)
}
