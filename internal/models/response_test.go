package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloats_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Floats{1.5, math.NaN(), -2, math.Inf(1)})
	require.NoError(t, err)
	assert.Equal(t, "[1.5,null,-2,null]", string(data))

	data, err = json.Marshal(Floats{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	var nilFloats Floats
	data, err = json.Marshal(nilFloats)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestFloats_OmitEmpty(t *testing.T) {
	data, err := json.Marshal(ForecastLine{Method: "naive", Values: Floats{1}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "lower_bound")
	assert.Contains(t, string(data), `"values":[1]`)
}

func TestDecomposeResponse_NullEdges(t *testing.T) {
	resp := DecomposeResponse{
		Model: "additive",
		Trend: Floats{math.NaN(), 2, math.NaN()},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	trend := decoded["trend"].([]interface{})
	assert.Nil(t, trend[0])
	assert.Equal(t, 2.0, trend[1])
}
