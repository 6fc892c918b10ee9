package flowrec

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.702", FlowFromMilli(1702).String())
	assert.Equal(t, "0.200", FlowFromFloat(0.2).String())
	assert.Equal(t, "0.300", FlowFromFloat(0.1+0.2).String())
	assert.Equal(t, "-0.005", FlowFromMilli(-5).String())
	assert.Equal(t, "2.000", FlowFromMilli(2000).String())
	assert.Equal(t, NotAvailable, Flow{}.String())
	assert.True(t, math.IsNaN(Flow{}.Float64()))
	assert.InDelta(t, 1.702, FlowFromMilli(1702).Float64(), 1e-9)
}

func TestResultRowJSON(t *testing.T) {
	t.Parallel()

	row := ResultRow{Raw: "톨루엔(Toluene)", Key: "톨루엔", Before: FlowFromMilli(202), After: FlowFromMilli(200)}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"raw":"톨루엔(Toluene)","key":"톨루엔","before":0.202,"after":0.200}`, string(data))

	missing := ResultRow{Raw: "x", Key: "x"}
	data, err = json.Marshal(missing)
	require.NoError(t, err)
	assert.JSONEq(t, `{"raw":"x","key":"x","before":"N/A","after":"N/A"}`, string(data))

	var decoded ResultRow
	require.NoError(t, json.Unmarshal([]byte(`{"raw":"a","key":"a","before":1.5,"after":"N/A"}`), &decoded))
	assert.Equal(t, int64(1500), decoded.Before.Milli())
	assert.False(t, decoded.After.Valid())
	assert.False(t, decoded.Found())

	var f Flow
	require.NoError(t, json.Unmarshal([]byte(`"0.201"`), &f))
	assert.Equal(t, int64(201), f.Milli())
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &f))
	assert.Error(t, json.Unmarshal([]byte(`true`), &f))
}

func TestResultRowCells(t *testing.T) {
	t.Parallel()

	row := ResultRow{Raw: "미등록", Key: "미등록"}
	assert.Equal(t, []string{"미등록", "미등록", "N/A", "N/A"}, row.Cells())
	assert.Len(t, ResultHeader, len(row.Cells()))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown variant", mutate: func(c *Config) { c.Variant = "random" }},
		{name: "delta below resolution", mutate: func(c *Config) { c.Delta.Min = 0.0005 }},
		{name: "inverted delta", mutate: func(c *Config) { c.Delta.Max = 0.0015; c.Delta.Min = 0.002 }},
		{name: "negative window", mutate: func(c *Config) { c.HalfWindow = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
