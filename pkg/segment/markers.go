package segment

// delimiter is one candidate boundary marker. keepMarker controls how a
// match is interpreted: false means split-after (the marker is consumed and
// excluded from the final segment), true means split-before (the marker is
// part of the final content and stays at its start).
type delimiter struct {
	marker     string
	keepMarker bool
}

// exactDelimiters is the priority-ordered delimiter spec for the first
// detection tier. The decorated sentinel the prompt explicitly requests
// comes first, then progressively looser variants of it.
var exactDelimiters = []delimiter{
	{marker: "**FINAL_OUTPUT**"},
	{marker: "【FINAL_OUTPUT】"},
	{marker: "FINAL_OUTPUT"},
}

// structuralMarkers are headings of the expected output fields. They are the
// broader second-tier scan set and double as the "genuine final-section
// start" markers during contamination repair. All of them are part of the
// desired final content, so matches split before the marker.
var structuralMarkers = []string{
	"**ログライン**",
	"**世界観**",
	"ログライン：",
	"世界観：",
}

// contaminationMarkers are labels that belong to the reasoning protocol and
// must never surface in the final segment. Used only for the post-hoc
// safety check, never for the primary split.
var contaminationMarkers = []string{
	"STEP1",
	"STEP2",
	"STEP3",
	"STEP4",
	"FINAL_OUTPUT",
	"THINKING:",
}

// lastStepLabel marks the final stage of the reasoning protocol the prompt
// requests. The emergency tier splits after the paragraph that contains it.
const lastStepLabel = "STEP4"

// rawPreviewRunes bounds how much of the original input is preserved as
// diagnostic reasoning when a split is abandoned entirely.
const rawPreviewRunes = 500

// SentinelFinal replaces the final segment when contamination is detected
// and no clean re-slice exists. Leaked reasoning must never reach the
// user-facing output, so a fixed diagnostic string is published instead.
const SentinelFinal = "⚠️ アイデアの抽出に失敗しました。次回の投稿をお待ちください。"
