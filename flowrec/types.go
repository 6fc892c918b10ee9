package flowrec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// NotAvailable is rendered in place of a flow when the key has no reference data.
const NotAvailable = "N/A"

// Variant selects the flow generation policy.
type Variant string

const (
	// VariantPerSample draws a base sample from the key's history and brackets it with a random delta.
	VariantPerSample Variant = "per-sample-delta-window"
	// VariantSingleMean draws both values from a fixed window around the key's mean.
	VariantSingleMean Variant = "single-mean-window"
)

// Valid reports whether v names a known policy.
func (v Variant) Valid() bool {
	switch v {
	case VariantPerSample, VariantSingleMean:
		return true
	default:
		return false
	}
}

// Flow is a flow rate with three decimals of precision, held in thousandths.
// The zero value is the "N/A" sentinel.
type Flow struct {
	milli int64
	valid bool
}

// FlowFromMilli builds a flow from a count of thousandths.
func FlowFromMilli(m int64) Flow {
	return Flow{milli: m, valid: true}
}

// FlowFromFloat rounds v to three decimals.
func FlowFromFloat(v float64) Flow {
	return FlowFromMilli(int64(math.Round(v * 1000)))
}

// Valid reports whether f holds a number.
func (f Flow) Valid() bool { return f.valid }

// Milli returns the value in thousandths.
func (f Flow) Milli() int64 { return f.milli }

// Float64 returns the value, or NaN for the sentinel.
func (f Flow) Float64() float64 {
	if !f.valid {
		return math.NaN()
	}
	return float64(f.milli) / 1000
}

// String renders the value with exactly three decimals.
func (f Flow) String() string {
	if !f.valid {
		return NotAvailable
	}
	m := f.milli
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%03d", sign, m/1000, m%1000)
}

// MarshalJSON encodes a number, or the string "N/A" for the sentinel.
func (f Flow) MarshalJSON() ([]byte, error) {
	if !f.valid {
		return json.Marshal(NotAvailable)
	}
	return []byte(f.String()), nil
}

// UnmarshalJSON accepts a number or "N/A".
func (f *Flow) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == NotAvailable {
			*f = Flow{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse flow %q: %w", s, err)
		}
		*f = FlowFromFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse flow: %w", err)
	}
	*f = FlowFromFloat(v)
	return nil
}

// ResultRow holds the recommendation for a single input line.
type ResultRow struct {
	Raw    string `json:"raw"`
	Key    string `json:"key"`
	Before Flow   `json:"before"`
	After  Flow   `json:"after"`
}

// Found reports whether the key resolved against the reference table.
func (r ResultRow) Found() bool {
	return r.Before.Valid() && r.After.Valid()
}

// Cells returns the row as display strings in column order.
func (r ResultRow) Cells() []string {
	return []string{r.Raw, r.Key, r.Before.String(), r.After.String()}
}

// ResultHeader is the column header used by the table views and CSV export.
var ResultHeader = []string{"입력 유해인자", "대표 유해인자", "측정 전 유량", "측정 후 유량"}

// DeltaConfig bounds the random gap between the before and after flows.
type DeltaConfig struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// LogConfig controls the zap logger built at startup.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr       string `json:"addr" mapstructure:"addr"`
	SessionTTL string `json:"sessionTTL" mapstructure:"sessionTTL"`
}

// ExportConfig controls CSV export.
type ExportConfig struct {
	BOM bool `json:"bom" mapstructure:"bom"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	DatasetPath string       `json:"datasetPath" mapstructure:"datasetPath"`
	Variant     Variant      `json:"variant" mapstructure:"variant"`
	Seed        uint64       `json:"seed" mapstructure:"seed"`
	Delta       DeltaConfig  `json:"delta" mapstructure:"delta"`
	HalfWindow  float64      `json:"halfWindow" mapstructure:"halfWindow"`
	Log         LogConfig    `json:"log" mapstructure:"log"`
	Server      ServerConfig `json:"server" mapstructure:"server"`
	Export      ExportConfig `json:"export" mapstructure:"export"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DatasetPath == "" {
		c.DatasetPath = "data/reference_flows.json"
	}
	if c.Variant == "" {
		c.Variant = VariantPerSample
	}
	if c.Delta.Min == 0 {
		c.Delta.Min = 0.001
	}
	if c.Delta.Max == 0 {
		c.Delta.Max = 0.003
	}
	if c.HalfWindow == 0 {
		c.HalfWindow = 0.002
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = "30m"
	}
}

// Validate rejects settings the recommender cannot honour.
func (c Config) Validate() error {
	if !c.Variant.Valid() {
		return fmt.Errorf("unknown variant %q", c.Variant)
	}
	if c.Delta.Min < 0.001 {
		return fmt.Errorf("delta.min must be at least 0.001, got %v", c.Delta.Min)
	}
	if c.Delta.Max < c.Delta.Min {
		return fmt.Errorf("delta.max %v is below delta.min %v", c.Delta.Max, c.Delta.Min)
	}
	if c.HalfWindow <= 0 {
		return fmt.Errorf("halfWindow must be positive, got %v", c.HalfWindow)
	}
	return nil
}
