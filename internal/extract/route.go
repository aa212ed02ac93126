package extract

import (
	"regexp"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

var (
	loadingPort = regexp.MustCompile(`(?i)port\s+of\s+loading\s*[:\-]?\s*([A-Za-z ,]+)`)
	destPort    = regexp.MustCompile(`(?i)port\s+of\s+(?:destination|discharge)\s*[:\-]?\s*([A-Za-z ,]+)`)

	modePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmode\s+of\s+transport\s*[:\-]?\s*([A-Za-z ]+)`),
		regexp.MustCompile(`(?i)\btransport\s*[:\-]\s*([A-Za-z ]+)`),
		regexp.MustCompile(`(?i)\bby\s+(sea|air|road|rail|courier)\b`),
	}

	loadingHeader   = regexp.MustCompile(`(?i).*loading\s*[:\-]?`)
	destHeader      = regexp.MustCompile(`(?i).*(?:destination|discharge)\s*[:\-]?`)
	transportHeader = regexp.MustCompile(`(?i).*\b(?:transport|by)\b\s*[:\-]?`)

	maritime = regexp.MustCompile(`(?i)\bport\b|nhava|harbou?r`)
)

// ResolveRoute finds the loading port, destination port and transport mode.
// Direct captures run first, then labeled port/transport lines; mode is
// inferred as "Sea" from a maritime loading port when both ports are known.
func ResolveRoute(lines []domain.LabeledLine, text string) domain.Route {
	r := domain.Route{
		PortLoading: cleanPlace(capture(loadingPort, text)),
		PortDest:    cleanPlace(capture(destPort, text)),
	}
	for _, re := range modePatterns {
		if r.Mode = strings.TrimSpace(capture(re, text)); r.Mode != "" {
			break
		}
	}

	if r.PortLoading == "" || r.PortDest == "" || r.Mode == "" {
		for _, l := range lines {
			low := strings.ToLower(l.Text)
			switch l.Label {
			case domain.LabelPort:
				if r.PortLoading == "" && strings.Contains(low, "loading") {
					r.PortLoading = cleanPlace(loadingHeader.ReplaceAllString(l.Text, ""))
				}
				if r.PortDest == "" && (strings.Contains(low, "destination") || strings.Contains(low, "discharge")) {
					r.PortDest = cleanPlace(destHeader.ReplaceAllString(l.Text, ""))
				}
			case domain.LabelTransport:
				if r.Mode == "" {
					r.Mode = strings.TrimSpace(transportHeader.ReplaceAllString(l.Text, ""))
				}
			}
		}
	}

	if r.Mode == "" && r.PortLoading != "" && r.PortDest != "" && maritime.MatchString(r.PortLoading) {
		r.Mode = "Sea"
	}
	return r
}

func cleanPlace(s string) string {
	return strings.Trim(strings.TrimSpace(s), ", ")
}
