package llm

// StopReason constants define normalized reasons for LLM generation
// termination. All providers must normalize their native stop reasons
// to these values.
const (
	StopReasonStop   = "stop"   // Normal completion
	StopReasonLength = "length" // Output truncated due to token limit
)

// ContentBlock Type constants define the supported content block formats
// used throughout the generation pipeline.
const (
	BlockTypeText     = "text"     // Plain text content
	BlockTypeThinking = "thinking" // Internal reasoning/chain-of-thought
	BlockTypeError    = "error"    // Error message surfaced mid-stream
)

type contextKey string

// DebugDirContextKey carries the per-run identifier used to group raw chunk
// debug files of a single generation cycle.
const DebugDirContextKey contextKey = "llm_debug_dir"
