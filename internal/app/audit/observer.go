package audit

import (
	"time"

	"github.com/John-Robertt/axer/internal/config"
	"github.com/John-Robertt/axer/internal/domain"
)

// Observer 用于把“审计进度/目录结果”从核心执行流程中解耦出来。
//
// 约束：
// - audit 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：事件可能来自多个 worker goroutine。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnListDone 在标题目录枚举完成时调用。
	OnListDone(folders int, dur time.Duration)
	// OnFolderDone 在某个标题目录审计完成时调用（用于每条结果的一行输出）。
	OnFolderDone(idx, total int, res domain.FolderResult, dur time.Duration)
	// OnProgress 用于 keepalive（通常由 CLI 自己 ticker 触发；audit 层不强制调用）。
	OnProgress(done, total, valid, invalid int, elapsed time.Duration)
}
