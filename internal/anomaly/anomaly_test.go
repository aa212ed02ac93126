package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-finance/tradescan/internal/domain"
)

func withAmounts(amounts ...string) []domain.Shipment {
	docs := make([]domain.Shipment, len(amounts))
	for i, a := range amounts {
		docs[i] = domain.Shipment{Filename: string(rune('a'+i)) + ".pdf", Amount: a}
	}
	return docs
}

func TestValueSpikes(t *testing.T) {
	t.Run("large outlier is high", func(t *testing.T) {
		alerts := ValueSpikes(withAmounts("100", "102", "98", "5,000.00"))
		require.Len(t, alerts, 1)
		a := alerts[0]
		assert.Equal(t, TypeValueSpike, a.Type)
		assert.Equal(t, domain.SeverityHigh, a.Severity)
		assert.Equal(t, []string{"d.pdf"}, a.Documents)
		assert.Equal(t, 5000.0, a.Value)
		assert.Equal(t, 101.0, a.Median)
		assert.Greater(t, a.ZScore, 3.0)
	})

	t.Run("fewer than three amounts", func(t *testing.T) {
		assert.Empty(t, ValueSpikes(withAmounts("100", "5000")))
	})

	t.Run("missing amounts are skipped not zeroed", func(t *testing.T) {
		assert.Empty(t, ValueSpikes(withAmounts("100", "", "101", "n/a", "99")))
	})

	t.Run("identical amounts", func(t *testing.T) {
		assert.Empty(t, ValueSpikes(withAmounts("100", "100", "100")))
	})

	t.Run("zero MAD falls back to mean absolute deviation", func(t *testing.T) {
		alerts := ValueSpikes(withAmounts("100", "100", "100", "100", "900"))
		require.Len(t, alerts, 1)
		assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
	})

	t.Run("tiny deviations from equal amounts", func(t *testing.T) {
		assert.Empty(t, ValueSpikes(withAmounts("100", "100", "100", "100.01")))
		assert.Empty(t, ValueSpikes(withAmounts("100", "100", "101")))
	})

	t.Run("moderate outlier is medium", func(t *testing.T) {
		// median 100, MAD 10; 135 scores 0.6745*35/10 = 2.36
		alerts := ValueSpikes(withAmounts("90", "100", "110", "135", "95"))
		require.Len(t, alerts, 1)
		assert.Equal(t, domain.SeverityMedium, alerts[0].Severity)
		assert.InDelta(t, 2.36, alerts[0].ZScore, 0.01)
	})
}

func TestDetect_Variation(t *testing.T) {
	docs := []domain.Shipment{
		{Filename: "a", Exporter: "ABC Ltd", Mode: "Sea"},
		{Filename: "b", Exporter: "ABC Limited", Mode: "Sea"},
		{Filename: "c", Exporter: "", Mode: "Air"},
	}
	alerts := Detect(docs)
	require.Len(t, alerts, 2)

	assert.Equal(t, TypeExporterVariation, alerts[0].Type)
	assert.Equal(t, domain.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, []string{"ABC Ltd", "ABC Limited"}, alerts[0].Values)

	assert.Equal(t, TypeModeVariation, alerts[1].Type)
	assert.Equal(t, domain.SeverityLow, alerts[1].Severity)

	assert.Empty(t, Detect([]domain.Shipment{{Exporter: "ABC"}, {Exporter: "ABC"}}))
	assert.Empty(t, Detect(nil))
}
