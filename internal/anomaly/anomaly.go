// Package anomaly flags statistical outliers and naming/mode variation
// across the documents of one shipment.
package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Alert types.
const (
	TypeValueSpike        = "Value Spike"
	TypeExporterVariation = "Exporter Name Variation"
	TypeModeVariation     = "Transport Mode Variation"
)

const (
	// minSamples is the fewest amounts worth testing for outliers.
	minSamples = 3

	mediumZ = 2.0
	highZ   = 3.0

	// Consistency constants that put MAD and mean absolute deviation on
	// the scale of a standard deviation for normal data.
	madScale    = 0.6745
	meanADScale = 1.253314

	// minRelDeviation is the smallest distance from the median, as a
	// fraction of the median, that can count as a spike.
	minRelDeviation = 0.10
)

// Detect runs every pattern check over docs.
func Detect(docs []domain.Shipment) []domain.Alert {
	var alerts []domain.Alert
	alerts = append(alerts, ValueSpikes(docs)...)
	if a, ok := variation(docs, func(s domain.Shipment) string { return s.Exporter }); ok {
		a.Type = TypeExporterVariation
		a.Severity = domain.SeverityMedium
		a.Message = "Exporter names vary slightly across documents. Check for spoofing or formatting differences."
		alerts = append(alerts, a)
	}
	if a, ok := variation(docs, func(s domain.Shipment) string { return s.Mode }); ok {
		a.Type = TypeModeVariation
		a.Severity = domain.SeverityLow
		a.Message = "Different transport modes detected. Verify shipment consistency."
		alerts = append(alerts, a)
	}
	return alerts
}

type sample struct {
	doc    string
	amount float64
}

// ValueSpikes flags invoice amounts by modified z-score around the median.
// Documents without a parseable amount are left out.
func ValueSpikes(docs []domain.Shipment) []domain.Alert {
	var samples []sample
	for _, d := range docs {
		amt, ok := domain.ParseAmount(d.Amount)
		if !ok {
			continue
		}
		samples = append(samples, sample{doc: d.Filename, amount: amt.InexactFloat64()})
	}
	if len(samples) < minSamples {
		return nil
	}

	values := make([]float64, len(samples))
	var sum float64
	for i, s := range samples {
		values[i] = s.amount
		sum += s.amount
	}
	mean := sum / float64(len(values))
	med := median(values)

	deviations := make([]float64, len(values))
	var devSum float64
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
		devSum += deviations[i]
	}
	mad := median(deviations)
	meanAD := devSum / float64(len(deviations))

	z := func(v float64) float64 {
		switch {
		case mad > 0:
			return madScale * math.Abs(v-med) / mad
		case meanAD > 0:
			return math.Abs(v-med) / (meanADScale * meanAD)
		}
		return 0
	}

	var alerts []domain.Alert
	floor := minRelDeviation * math.Abs(med)
	for _, s := range samples {
		if math.Abs(s.amount-med) <= floor {
			continue
		}
		score := z(s.amount)
		if score <= mediumZ {
			continue
		}
		sev := domain.SeverityMedium
		if score > highZ {
			sev = domain.SeverityHigh
		}
		alerts = append(alerts, domain.Alert{
			Type:      TypeValueSpike,
			Severity:  sev,
			Message:   fmt.Sprintf("Invoice amount deviates significantly from average ($%.2f).", mean),
			Documents: []string{s.doc},
			Value:     s.amount,
			Mean:      round2(mean),
			Median:    round2(med),
			ZScore:    round2(score),
		})
	}
	return alerts
}

// variation reports the non-blank values when more than one distinct value exists.
func variation(docs []domain.Shipment, get func(domain.Shipment) string) (domain.Alert, bool) {
	var values []string
	distinct := make(map[string]struct{})
	for _, d := range docs {
		v := strings.TrimSpace(get(d))
		if v == "" {
			continue
		}
		values = append(values, v)
		distinct[v] = struct{}{}
	}
	if len(distinct) <= 1 {
		return domain.Alert{}, false
	}
	return domain.Alert{Values: values}, true
}

func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
