// Package segment divides a generative model's raw output into a reasoning
// segment (intermediate step-by-step exposition) and a final segment (the
// user-facing payload). Upstream models are unreliable about honoring the
// requested delimiter, so detection is a chain of progressively looser
// strategies followed by a contamination safety check.
//
// Segment is a pure function of its input: no I/O, no shared state, safe to
// call concurrently.
package segment

import "strings"

// Tier identifies which detection strategy produced the split.
type Tier int

const (
	// TierNone means no boundary was detected anywhere; the whole input
	// was treated as the final segment.
	TierNone Tier = iota
	// TierExact means one of the requested delimiters matched verbatim.
	TierExact
	// TierStructural means an output-field heading was used as boundary.
	TierStructural
	// TierEmergency means the split happened after the last numbered
	// reasoning step because no other marker existed.
	TierEmergency
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierStructural:
		return "structural"
	case TierEmergency:
		return "emergency"
	default:
		return "none"
	}
}

// Result carries the two segments plus enough diagnostics for the caller to
// log what happened without re-parsing the input.
type Result struct {
	Reasoning string // exposed reasoning, may be empty
	Final     string // user-facing payload, never contains reasoning labels
	Tier      Tier   // which strategy found the boundary
	Repaired  bool   // contamination was detected and re-sliced away
	Degraded  bool   // no boundary found, or the split had to be abandoned
}

// strategies are tried in priority order; the first one that finds a
// boundary wins and the rest are skipped.
var strategies = []struct {
	tier Tier
	try  func(raw string) (reasoning, final string, ok bool)
}{
	{TierExact, splitExact},
	{TierStructural, splitStructural},
	{TierEmergency, splitEmergency},
}

// Segment splits raw model output at the best-available reasoning/final
// boundary. It is total: any input, including the empty string, yields a
// usable Result and never a panic or error.
func Segment(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		// Blank input has no boundary either; flag it like every other
		// undetectable case so caller logging stays uniform.
		return Result{Degraded: true}
	}

	res := Result{Tier: TierNone, Degraded: true, Final: strings.TrimSpace(raw)}
	for _, s := range strategies {
		if reasoning, final, ok := s.try(raw); ok {
			res = Result{Reasoning: reasoning, Final: final, Tier: s.tier}
			break
		}
	}

	return decontaminate(raw, res)
}

// splitAt slices raw around a marker occupying [start, end). keep decides
// whether the marker stays at the head of the final segment.
func splitAt(raw string, start, end int, keep bool) (string, string) {
	reasoning := strings.TrimSpace(raw[:start])
	if keep {
		return reasoning, strings.TrimSpace(raw[start:])
	}
	return reasoning, strings.TrimSpace(raw[end:])
}

// splitExact scans for the delimiters the prompt explicitly requested,
// most specific first. The first delimiter present anywhere wins, even if a
// looser one occurs earlier in the text.
func splitExact(raw string) (string, string, bool) {
	for _, d := range exactDelimiters {
		if idx := strings.Index(raw, d.marker); idx >= 0 {
			reasoning, final := splitAt(raw, idx, idx+len(d.marker), d.keepMarker)
			return reasoning, final, true
		}
	}
	return "", "", false
}

// splitStructural looks for output-field headings and splits at the earliest
// occurrence among all of them. Earliest-offset-wins keeps as little stray
// reasoning as possible in the final segment, at the cost of occasionally
// cutting into reasoning text that mentions a field name. That tradeoff is
// intentional; do not reorder to most-specific-wins.
func splitStructural(raw string) (string, string, bool) {
	idx, _, ok := earliestMarker(raw, structuralMarkers)
	if !ok {
		return "", "", false
	}
	reasoning, final := splitAt(raw, idx, idx, true)
	return reasoning, final, true
}

// splitEmergency fires when no marker survived at all: it assumes the model
// followed the numbered reasoning protocol and cuts right after the
// paragraph that carries the last step label.
func splitEmergency(raw string) (string, string, bool) {
	idx := strings.LastIndex(raw, lastStepLabel)
	if idx < 0 {
		return "", "", false
	}
	br := strings.Index(raw[idx:], "\n\n")
	if br < 0 {
		// Last step runs to the end of the text; nothing left to publish.
		return "", "", false
	}
	boundary := idx + br + len("\n\n")
	reasoning, final := splitAt(raw, boundary, boundary, true)
	if final == "" {
		return "", "", false
	}
	return reasoning, final, true
}

// earliestMarker returns the smallest offset at which any of the markers
// occurs, together with the matched marker.
func earliestMarker(s string, markers []string) (int, string, bool) {
	best := -1
	matched := ""
	for _, m := range markers {
		idx := strings.Index(s, m)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			matched = m
		}
	}
	return best, matched, best >= 0
}

func isContaminated(final string) bool {
	for _, m := range contaminationMarkers {
		if strings.Contains(final, m) {
			return true
		}
	}
	return false
}

// decontaminate enforces the core invariant: reasoning labels never reach
// the final segment. It runs on every result regardless of which tier
// produced it. One repair pass re-slices the final at the earliest genuine
// output heading; if the re-slice is still dirty the split is abandoned and
// the fixed sentinel replaces the payload, with a bounded preview of the
// original text kept as reasoning for diagnostics.
func decontaminate(raw string, res Result) Result {
	if !isContaminated(res.Final) {
		return res
	}

	if idx, _, ok := earliestMarker(res.Final, structuralMarkers); ok {
		candidate := strings.TrimSpace(res.Final[idx:])
		if candidate != "" && !isContaminated(candidate) {
			res.Final = candidate
			res.Repaired = true
			return res
		}
	}

	res.Final = SentinelFinal
	res.Reasoning = previewRunes(raw, rawPreviewRunes)
	res.Repaired = false
	res.Degraded = true
	return res
}

// previewRunes truncates s to at most n runes without splitting a rune.
func previewRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
