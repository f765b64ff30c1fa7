// Package autoload 透過 blank import 觸發各 Channel Factory 的 init() 註冊
package autoload

import (
	_ "muse/pkg/channels/telegram"
	_ "muse/pkg/channels/web"
)
