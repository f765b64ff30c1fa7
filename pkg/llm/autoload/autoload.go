// Package autoload 透過 blank import 觸發各 LLM Provider 的 init() 註冊
package autoload

import (
	_ "muse/pkg/llm/gemini"
	_ "muse/pkg/llm/ollama"
	_ "muse/pkg/llm/openailm"
)
