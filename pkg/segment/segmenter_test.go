package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRaw = "STEP1: analyze\n\nSTEP4: synthesize\n\n**FINAL_OUTPUT**\n**ログライン**：X\n**世界観**：Y"

func TestSegment_EmptyInput(t *testing.T) {
	res := Segment("")
	assert.Equal(t, "", res.Reasoning)
	assert.Equal(t, "", res.Final)
	assert.True(t, res.Degraded)

	res = Segment("   \n\t ")
	assert.Equal(t, "", res.Final)
	assert.True(t, res.Degraded)
}

func TestSegment_SentinelDelimiter(t *testing.T) {
	res := Segment(sampleRaw)

	assert.Equal(t, TierExact, res.Tier)
	assert.True(t, strings.HasPrefix(res.Final, "**ログライン**：X"))
	assert.Contains(t, res.Reasoning, "STEP1: analyze")
	assert.Contains(t, res.Reasoning, "STEP4: synthesize")
	assert.False(t, res.Degraded)
	assert.False(t, res.Repaired)

	for _, m := range contaminationMarkers {
		assert.NotContains(t, res.Final, m)
	}
}

func TestSegment_SentinelSplitsExactly(t *testing.T) {
	raw := "  some reasoning  **FINAL_OUTPUT**  the answer  "
	res := Segment(raw)

	assert.Equal(t, "some reasoning", res.Reasoning)
	assert.Equal(t, "the answer", res.Final)
}

func TestSegment_LooserDelimiterVariants(t *testing.T) {
	t.Run("bracketed sentinel", func(t *testing.T) {
		res := Segment("thinking...\n【FINAL_OUTPUT】\nidea text")
		assert.Equal(t, TierExact, res.Tier)
		assert.Equal(t, "idea text", res.Final)
	})

	t.Run("bare keyword", func(t *testing.T) {
		res := Segment("thinking...\nFINAL_OUTPUT\nidea text")
		assert.Equal(t, TierExact, res.Tier)
		assert.Equal(t, "idea text", res.Final)
	})
}

func TestSegment_StructuralScan(t *testing.T) {
	raw := "reasoning without any sentinel\n\n**ログライン**：宇宙船の話\n**世界観**：遠未来"
	res := Segment(raw)

	assert.Equal(t, TierStructural, res.Tier)
	assert.Equal(t, "reasoning without any sentinel", res.Reasoning)
	assert.True(t, strings.HasPrefix(res.Final, "**ログライン**"))
}

func TestSegment_StructuralEarliestOffsetWins(t *testing.T) {
	// 世界観 appears before ログライン; the split must happen at the
	// earlier offset even though ログライン is listed first.
	raw := "preamble\n世界観：海の底\nまだ続く\nログライン：何か"
	res := Segment(raw)

	assert.Equal(t, TierStructural, res.Tier)
	assert.Equal(t, "preamble", res.Reasoning)
	assert.True(t, strings.HasPrefix(res.Final, "世界観：海の底"))
	assert.Contains(t, res.Final, "ログライン：何か")
}

func TestSegment_EmergencyFallback(t *testing.T) {
	raw := "STEP1: read notes\nSTEP4: combine them into one idea\n\na lonely robot learns to dream"
	res := Segment(raw)

	assert.Equal(t, TierEmergency, res.Tier)
	assert.Equal(t, "a lonely robot learns to dream", res.Final)
	assert.Contains(t, res.Reasoning, "STEP4")
	assert.False(t, res.Degraded)
}

func TestSegment_NoMarkersAnywhere(t *testing.T) {
	raw := "  just a plain answer with no structure at all  "
	res := Segment(raw)

	assert.Equal(t, TierNone, res.Tier)
	assert.Equal(t, "", res.Reasoning)
	assert.Equal(t, strings.TrimSpace(raw), res.Final)
	assert.True(t, res.Degraded)
}

func TestSegment_ContaminationRepair(t *testing.T) {
	// The sentinel appears before the reasoning has actually ended, so the
	// naive split leaves STEP labels inside the final segment. Repair must
	// re-slice at the first genuine output heading.
	raw := "intro **FINAL_OUTPUT** but wait, STEP3 continues here\n\n**ログライン**：clean idea"
	res := Segment(raw)

	assert.True(t, res.Repaired)
	assert.True(t, strings.HasPrefix(res.Final, "**ログライン**：clean idea"))
	for _, m := range contaminationMarkers {
		assert.NotContains(t, res.Final, m)
	}
}

func TestSegment_IrreparableContamination(t *testing.T) {
	// The only output heading sits inside a contaminated zone: the text
	// after it still carries a step label, so no clean re-slice exists.
	raw := "FINAL_OUTPUT\nログライン：an idea but STEP2 leaked into it"
	res := Segment(raw)

	assert.Equal(t, SentinelFinal, res.Final)
	assert.True(t, res.Degraded)
	assert.False(t, res.Repaired)
	// Original text is preserved (bounded) for diagnostics.
	assert.Contains(t, res.Reasoning, "STEP2 leaked")
	for _, m := range contaminationMarkers {
		assert.NotContains(t, res.Final, m)
	}
}

func TestSegment_SentinelPreviewIsBounded(t *testing.T) {
	long := "FINAL_OUTPUT STEP1 " + strings.Repeat("あ", 2000)
	res := Segment(long)

	require.Equal(t, SentinelFinal, res.Final)
	assert.LessOrEqual(t, len([]rune(res.Reasoning)), rawPreviewRunes)
}

func TestSegment_FinalNeverContaminated(t *testing.T) {
	inputs := []string{
		"",
		sampleRaw,
		"STEP1 STEP2 STEP3 STEP4",
		"STEP4: done\n\nresult",
		"**FINAL_OUTPUT** STEP1 again",
		"no markers here",
		"FINAL_OUTPUT",
		"ログライン：STEP4",
		strings.Repeat("STEP1\n\nFINAL_OUTPUT\n\n", 10),
		"【FINAL_OUTPUT】\n**世界観**：STEP-free world",
	}
	for _, raw := range inputs {
		res := Segment(raw)
		for _, m := range contaminationMarkers {
			assert.NotContains(t, res.Final, m, "input: %q", raw)
		}
	}
}

func TestSegment_Idempotence(t *testing.T) {
	first := Segment(sampleRaw)
	require.NotEmpty(t, first.Final)

	second := Segment(first.Final)
	assert.Equal(t, "", second.Reasoning)
	assert.Equal(t, first.Final, second.Final)
}

func TestSegment_OnlyMarkers(t *testing.T) {
	// Inputs consisting of nothing but markers must not panic and must not
	// leak the markers into the final segment.
	for _, raw := range []string{"**FINAL_OUTPUT**", "STEP4", "FINAL_OUTPUT FINAL_OUTPUT"} {
		res := Segment(raw)
		for _, m := range contaminationMarkers {
			assert.NotContains(t, res.Final, m, "input: %q", raw)
		}
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "structural", TierStructural.String())
	assert.Equal(t, "emergency", TierEmergency.String())
	assert.Equal(t, "none", TierNone.String())
}
