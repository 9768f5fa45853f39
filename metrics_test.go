package forzadash

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestMetricNames(t *testing.T) {
	assert.Len(t, AllMetrics(), 28)
	seen := map[string]bool{}
	for _, m := range AllMetrics() {
		name := m.String()
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate metric %s", name)
		seen[name] = true

		parsed, err := ParseMetric(name)
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	assert.Equal(t, "UNKNOWN", Metric(-1).String())
	assert.Equal(t, "UNKNOWN", metricCount.String())

	_, err := ParseMetric("tyre_pressure")
	assert.Error(t, err)
}

func TestMetricUnits(t *testing.T) {
	assert.Equal(t, "km/h", MetricSpeed.Unit())
	assert.Equal(t, "%", MetricRPMPercent.Unit())
	assert.Equal(t, "", MetricGear.Unit())
	for key := range Units {
		_, err := ParseMetric(key)
		assert.NoError(t, err, key)
	}
}

// Every metric must have an accessor returning the same value as the json
// field of the same name.
func TestValuesGetMatchesJSON(t *testing.T) {
	m := Transform(sampleFields())
	data, err := json.Marshal(m.Values)
	require.NoError(t, err)
	fromJSON := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &fromJSON))

	reduced, err := json.Marshal(m.Reduce(AllMetrics()))
	require.NoError(t, err)
	fromGet := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(reduced, &fromGet))

	assert.Equal(t, fromJSON, fromGet)
}

func TestReduce(t *testing.T) {
	fields := sampleFields()
	fields[FieldRacePosition] = 0
	m := Transform(fields)

	assert.Equal(t, map[string]interface{}{
		"active":   "ON",
		"gear":     "10",
		"position": nil,
	}, m.Reduce([]Metric{MetricActive, MetricGear, MetricPosition}))
	assert.Nil(t, m.Values.Get(Metric(99)))
}
