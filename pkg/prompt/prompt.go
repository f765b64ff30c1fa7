// Package prompt assembles the generation prompt fed to the LLM. The prompt
// requests a fixed four-stage reasoning protocol followed by an explicit
// delimiter, which is what the segmenter downstream relies on.
package prompt

import (
	"fmt"
	"strings"

	"muse/pkg/vault"
)

// protocol is the instruction block. It pins the STEP1..STEP4 labels and the
// **FINAL_OUTPUT** delimiter; segmentation quality depends on the model
// following this shape, so the wording stays stable.
const protocol = `あなたは創作アイデアの発想支援AIです。以下のノート断片を素材として、新しい物語のアイデアを1つ生成してください。

必ず次の4段階の思考プロセスを順番に書き出してください：
STEP1: 各ノート断片の核となる概念を抽出する
STEP2: 概念同士の意外な組み合わせを探す
STEP3: 組み合わせから物語の葛藤・転換点を構想する
STEP4: アイデアを一つに統合する

思考プロセスを書き終えたら、必ず単独の行に **FINAL_OUTPUT** とだけ書き、その後に最終アイデアを以下の形式で出力してください：

**ログライン**：（物語を一文で要約）
**世界観**：（舞台設定を2〜3文で説明）

最終アイデア部分には STEP ラベルや思考プロセスを含めないでください。`

// Build constructs the full prompt from note fragments and recently
// published ideas. Recent ideas are listed so the model avoids repeating
// itself across cycles.
func Build(notes []vault.Note, recent []string) string {
	var b strings.Builder
	b.WriteString(protocol)
	b.WriteString("\n\n## ノート断片\n")

	for i, note := range notes {
		fmt.Fprintf(&b, "\n### 断片%d（%s）\n%s\n", i+1, note.Name, strings.TrimSpace(note.Content))
	}

	if len(recent) > 0 {
		b.WriteString("\n## 最近投稿したアイデア（これらと類似するアイデアは避けること）\n")
		for _, idea := range recent {
			b.WriteString("- ")
			b.WriteString(firstLine(idea))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// firstLine keeps the recent-ideas list compact. Only the logline matters
// for repeat avoidance.
func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
