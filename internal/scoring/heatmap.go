package scoring

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

const (
	unknownExporter = "Unknown Exporter"
	unknownPort     = "Unknown Port"
)

// Heatmap aggregates a per-document risk heuristic by exporter and
// destination port. Cells are sorted by average risk, highest first.
func Heatmap(docs []domain.Shipment, regionKeywords []string) []domain.HeatmapCell {
	type key struct{ exporter, port string }
	type acc struct {
		sum   int
		count int
	}

	order := []key{}
	cells := map[key]*acc{}
	for _, d := range docs {
		k := key{strings.TrimSpace(d.Exporter), strings.TrimSpace(d.PortDest)}
		if k.exporter == "" {
			k.exporter = unknownExporter
		}
		if k.port == "" {
			k.port = unknownPort
		}
		c, ok := cells[k]
		if !ok {
			c = &acc{}
			cells[k] = c
			order = append(order, k)
		}
		c.sum += cellRisk(k.exporter, k.port, regionKeywords)
		c.count++
	}

	out := make([]domain.HeatmapCell, 0, len(order))
	for _, k := range order {
		c := cells[k]
		avg := float64(c.sum) / float64(c.count)
		out = append(out, domain.HeatmapCell{
			Exporter: k.exporter,
			Port:     k.port,
			AvgRisk:  math.Round(avg*10) / 10,
			Count:    c.count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgRisk > out[j].AvgRisk })
	return out
}

func cellRisk(exporter, port string, regionKeywords []string) int {
	if exporter == unknownExporter || port == unknownPort {
		return 90
	}
	text := strings.ToLower(port + " " + exporter)
	for _, k := range regionKeywords {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			return 95
		}
	}
	if strings.Contains(exporter, "Limited") || strings.Contains(exporter, "LLC") {
		return 55
	}
	h := fnv.New32a()
	h.Write([]byte(exporter + "|" + port))
	return 60 + int(h.Sum32()%30)
}
