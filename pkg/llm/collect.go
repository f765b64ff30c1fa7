package llm

import (
	"context"
	"fmt"
	"strings"
)

// Collected is the fully drained form of one streamed generation.
type Collected struct {
	Text     string // concatenated text blocks (the raw answer)
	Thinking string // concatenated natively-tagged reasoning blocks
	Usage    *Usage
	Finish   string
}

// Collect drains a StreamChunk channel into whole-response strings. The
// segmentation heuristic downstream operates on complete text, so streaming
// granularity is collapsed here. Error blocks abort the collection unless
// text content already arrived, in which case the partial answer is kept.
func Collect(ctx context.Context, ch <-chan StreamChunk) (*Collected, error) {
	var text, thinking, errText strings.Builder
	out := &Collected{}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-ch:
			if !ok {
				if errText.Len() > 0 && text.Len() == 0 {
					return nil, fmt.Errorf("generation failed: %s", errText.String())
				}
				out.Text = text.String()
				out.Thinking = thinking.String()
				return out, nil
			}

			for _, block := range chunk.ContentBlocks {
				switch block.Type {
				case BlockTypeText:
					text.WriteString(block.Text)
				case BlockTypeThinking:
					thinking.WriteString(block.Text)
				case BlockTypeError:
					errText.WriteString(block.Text)
				}
			}

			if chunk.IsFinal {
				out.Usage = chunk.Usage
				out.Finish = chunk.FinishReason
			}
		}
	}
}
