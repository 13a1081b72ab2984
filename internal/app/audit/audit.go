// Package audit 驱动整库审计：枚举标题目录、并发扫描、聚合报告、
// 读写扫描缓存。错误一律降级为报告内容，Execute 本身不失败。
package audit

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/John-Robertt/axer/internal/config"
	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/infra/cache"
	"github.com/John-Robertt/axer/internal/scan"
)

// Execute 对库根目录跑一次完整审计，返回对外稳定的 ScanReport。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.ScanReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 输出进度信息。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.ScanReport {
	started := time.Now().UTC()
	if obs != nil {
		obs.OnStart(eff)
	}

	report := domain.ScanReport{
		Path:      eff.Path,
		StartedAt: started,
		Folders:   make([]domain.FolderResult, 0, 64),
	}

	opts := scan.Options{
		SizeCheck:     eff.SizeCheck,
		SizeTolerance: eff.SizeTolerance,
	}

	var store *cache.Store
	if eff.Cache {
		store = cache.New(eff.Path, eff.CacheReadOnly)
		if err := store.Load(); err != nil {
			// 坏缓存不终止审计：按空缓存扫，结束后整体重写。
			log.Warn("加载扫描缓存失败", "err", err)
		}
		opts.Lookup = store.Lookup
		if !store.ReadOnly {
			opts.Record = store.Record
		}
	}

	listStarted := time.Now()
	folders, err := scan.ListTitleFolders(eff.Path, eff.ExcludeDirs)
	if err != nil {
		log.Warn("枚举标题目录失败", "path", eff.Path, "err", err)
		report.Folders = append(report.Folders, domain.FolderResult{
			Name:   eff.Path,
			Issues: []string{"Invalid path"},
		})
		report.FinishedAt = time.Now().UTC()
		report.Finalize()
		return report
	}
	if obs != nil {
		obs.OnListDone(len(folders), time.Since(listStarted))
	}

	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}

	type folderOut struct {
		res domain.FolderResult
		dur time.Duration
	}

	jobs := make(chan string)
	results := make(chan folderOut, len(folders))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				oneStarted := time.Now()
				res := scan.ScanFolder(filepath.Join(eff.Path, name), opts)
				results <- folderOut{res: res, dur: time.Since(oneStarted)}
			}
		}()
	}

	go func() {
	feed:
		for _, name := range folders {
			select {
			case jobs <- name:
			case <-ctx.Done():
				// 取消：不再派发新目录，已派发的扫完即收尾。
				break feed
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for out := range results {
		done++
		report.Folders = append(report.Folders, out.res)
		if obs != nil {
			obs.OnFolderDone(done, len(folders), out.res, out.dur)
		}
	}

	if store != nil && !store.ReadOnly {
		if err := store.Save(); err != nil {
			log.Warn("写入扫描缓存失败", "err", err)
		}
	}

	report.FinishedAt = time.Now().UTC()
	report.Finalize()
	return report
}
