package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/John-Robertt/axer/internal/app/audit"
	"github.com/John-Robertt/axer/internal/config"
	"github.com/John-Robertt/axer/internal/domain"
)

var _ audit.Observer = (*scanUI)(nil)

// scanUI 是一个“简洁版”的交互终端进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：audit 层只发事件，CLI 决定如何展示
// - keepalive：长时间无目录完成时也会定期输出一行，降低等待焦虑
type scanUI struct {
	w          io.Writer
	withReport bool

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total   int
	done    int
	valid   int
	invalid int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newScanUI(w io.Writer, withReport bool) *scanUI {
	return &scanUI{
		w:                  w,
		withReport:         withReport,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *scanUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	fmt.Fprintf(p.w, "[%s] AXER scan\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", eff.Path)
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  check_size: %s\n", formatSizeCheck(eff))
	fmt.Fprintf(p.w, "  cache: %s\n", formatCacheMode(eff))
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 固定排除 cache/, output/\n", formatStringListJSON(eff.ExcludeDirs))

	if p.withReport {
		fmt.Fprintln(p.w, "输出:")
		fmt.Fprintf(p.w, "  report: %s\n", filepath.Join(eff.Path, "cache", "report.json"))
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
	p.mu.Unlock()
}

func (p *scanUI) OnListDone(folders int, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = folders
	fmt.Fprintf(p.w, "枚举: folders=%d (%s)\n\n", folders, formatShortDuration(dur))
	if p.total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}

	p.lastPrinted = time.Now()
}

func (p *scanUI) OnFolderDone(idx, total int, res domain.FolderResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// idx/total 由 audit 层给出；这里同时维护自己的计数，供 keepalive 使用。
	p.done = idx
	p.total = total

	status := okStyle.Render("OK")
	if res.Valid {
		p.valid++
	} else {
		p.invalid++
		status = failStyle.Render("FAIL")
	}

	cached := 0
	for i := range res.Files {
		if res.Files[i].Cached {
			cached++
		}
	}
	note := ""
	if cached > 0 {
		note = fmt.Sprintf(" cache=%d", cached)
	}

	fmt.Fprintf(p.w, "[%d/%d] %s %s files=%d%s (%s)\n",
		idx, total, res.Name, status, len(res.Files), note, formatShortDuration(dur),
	)
	if !res.Valid {
		for _, issue := range res.Issues {
			fmt.Fprintf(p.w, "  %s\n", issue)
		}
		for _, fr := range res.Files {
			for _, issue := range fr.Issues {
				fmt.Fprintf(p.w, "  %s: %s\n", fr.Name, issue)
			}
		}
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *scanUI) OnProgress(done, total, valid, invalid int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "进度: done=%d/%d valid=%d invalid=%d elapsed=%s\n",
		done, total, valid, invalid, formatElapsed(elapsed),
	)
	p.lastPrinted = time.Now()
}

func (p *scanUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				// 已完成：安全退出（OnFolderDone 会 close stopCh，但这里也做兜底）。
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}

				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d valid=%d invalid=%d elapsed=%s\n",
						p.done, p.total, p.valid, p.invalid, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-p.stopCh:
				return
			}
		}
	}()
}

// stop 兜底停止 keepalive（正常路径在最后一个目录完成时已停止）。
func (p *scanUI) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func formatSizeCheck(eff config.EffectiveConfig) string {
	if !eff.SizeCheck {
		return "off"
	}
	return fmt.Sprintf("on (tolerance %.0f%%)", eff.SizeTolerance*100)
}

func formatCacheMode(eff config.EffectiveConfig) string {
	if !eff.Cache {
		return "off"
	}
	if eff.CacheReadOnly {
		return "on (readonly)"
	}
	return "on"
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
