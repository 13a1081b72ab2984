package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/axer/internal/asset"
	"github.com/John-Robertt/axer/internal/config"
	"github.com/John-Robertt/axer/internal/domain"
)

func texHeader(sig domain.Signature) []byte {
	h := make([]byte, asset.TextureHeaderSize)
	copy(h[asset.TextureHeaderSize-4:], sig[:])
	return h
}

func buildAsset(t *testing.T, slots map[domain.AssetSlot]domain.Signature, payload []byte) []byte {
	t.Helper()
	var a asset.Asset
	for slot, sig := range slots {
		if err := a.SetEntry(slot, texHeader(sig), payload); err != nil {
			t.Fatalf("构造测试容器失败（槽位 %d）：%v", slot, err)
		}
	}
	return asset.Encode(&a)
}

// writeTitleFolder 在 root 下写出一个完整的标题目录（四类资产齐全且有效）。
func writeTitleFolder(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}

	payload := []byte{1, 2, 3, 4}
	files := map[string][]byte{
		"BK" + id + ".asset": buildAsset(t, map[domain.AssetSlot]domain.Signature{
			domain.SlotBackground: domain.SigBackground,
		}, payload),
		"GC" + id + ".asset": buildAsset(t, map[domain.AssetSlot]domain.Signature{
			domain.SlotBoxart: domain.SigBoxart,
		}, payload),
		"GL" + id + ".asset": buildAsset(t, map[domain.AssetSlot]domain.Signature{
			domain.SlotIcon:   domain.SigIcon,
			domain.SlotBanner: domain.SigBanner,
		}, payload),
		"SS" + id + ".asset": func() []byte {
			slots := make(map[domain.AssetSlot]domain.Signature, 3)
			for i := 1; i <= 3; i++ {
				s, _ := domain.ScreenshotSlot(i)
				slots[s] = domain.SigScreenshot
			}
			return buildAsset(t, slots, payload)
		}(),
	}
	for name, b := range files {
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			t.Fatalf("写入测试文件失败：%v", err)
		}
	}
}

func TestExecute_FullLibrary(t *testing.T) {
	root := t.TempDir()
	// 乱序建目录，报告里必须按名字典序出现。
	for _, id := range []string{"CCCC0003", "AAAA0001", "BBBB0002"} {
		writeTitleFolder(t, root, id)
	}

	report := Execute(context.Background(), config.EffectiveConfig{
		Path:        root,
		Concurrency: 4,
	})

	if report.Path != root {
		t.Fatalf("报告路径不符：%q", report.Path)
	}
	if report.Summary.Total != 3 || report.Summary.Valid != 3 {
		t.Fatalf("汇总不符：%+v", report.Summary)
	}
	if report.Summary.Files != 12 || report.Summary.Issues != 0 {
		t.Fatalf("汇总不符：%+v", report.Summary)
	}

	want := []string{"AAAA0001", "BBBB0002", "CCCC0003"}
	for i, f := range report.Folders {
		if f.Name != want[i] {
			t.Fatalf("目录 %d 不符：%q != %q", i, f.Name, want[i])
		}
		if !f.Valid || len(f.Files) != 4 {
			t.Fatalf("目录结果不符：%+v", f)
		}
	}

	if report.StartedAt.Location() != time.UTC || report.FinishedAt.Location() != time.UTC {
		t.Fatalf("时间应为 UTC：%v %v", report.StartedAt, report.FinishedAt)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Fatalf("结束时间早于开始时间：%v < %v", report.FinishedAt, report.StartedAt)
	}
}

func TestExecute_MissingRootDegrades(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")

	report := Execute(context.Background(), config.EffectiveConfig{
		Path:        root,
		Concurrency: 2,
	})

	if len(report.Folders) != 1 {
		t.Fatalf("期望单条降级结果，实际 %+v", report.Folders)
	}
	f := report.Folders[0]
	if f.Name != root || f.Valid {
		t.Fatalf("降级结果不符：%+v", f)
	}
	if len(f.Issues) != 1 || f.Issues[0] != "Invalid path" {
		t.Fatalf("期望 Invalid path 问题，实际 %v", f.Issues)
	}
	if report.Summary.Total != 1 || report.Summary.Valid != 0 {
		t.Fatalf("汇总不符：%+v", report.Summary)
	}
}

func TestExecute_OneInvalidFolder(t *testing.T) {
	root := t.TempDir()
	writeTitleFolder(t, root, "AAAA0001")
	writeTitleFolder(t, root, "BBBB0002")
	// 第二个目录删掉 SS：数量检查应报目录级问题。
	if err := os.Remove(filepath.Join(root, "BBBB0002", "SSBBBB0002.asset")); err != nil {
		t.Fatalf("删文件失败：%v", err)
	}

	report := Execute(context.Background(), config.EffectiveConfig{
		Path:        root,
		Concurrency: 2,
	})

	if report.Summary.Total != 2 || report.Summary.Valid != 1 {
		t.Fatalf("汇总不符：%+v", report.Summary)
	}
	bad := report.Folders[1]
	if bad.Name != "BBBB0002" || bad.Valid {
		t.Fatalf("期望 BBBB0002 无效：%+v", bad)
	}
	if len(bad.Issues) != 1 || bad.Issues[0] != "Invalid asset count: found 3, expected 4" {
		t.Fatalf("目录问题不符：%v", bad.Issues)
	}
}

func TestExecute_CacheWriteAndHit(t *testing.T) {
	root := t.TempDir()
	writeTitleFolder(t, root, "AAAA0001")
	writeTitleFolder(t, root, "BBBB0002")

	eff := config.EffectiveConfig{Path: root, Concurrency: 2, Cache: true}

	first := Execute(context.Background(), eff)
	if first.Summary.Valid != 2 {
		t.Fatalf("首轮汇总不符：%+v", first.Summary)
	}
	for _, f := range first.Folders {
		for _, fr := range f.Files {
			if fr.Cached {
				t.Fatalf("首轮不应有缓存命中：%+v", fr)
			}
		}
	}

	cachePath := filepath.Join(root, "cache", "scan.json")
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("期望写出扫描缓存：%v", err)
	}

	// 第二轮：文件未变，全部命中。
	second := Execute(context.Background(), eff)
	if second.Summary.Valid != 2 {
		t.Fatalf("次轮汇总不符：%+v", second.Summary)
	}
	for _, f := range second.Folders {
		for _, fr := range f.Files {
			if !fr.Cached {
				t.Fatalf("次轮应全部命中缓存：%s/%s", f.Name, fr.Name)
			}
		}
	}

	// 改写一个文件（载荷变长，体积变化）：仅该文件重新扫描。
	bigger := buildAsset(t, map[domain.AssetSlot]domain.Signature{
		domain.SlotBackground: domain.SigBackground,
	}, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	if err := os.WriteFile(filepath.Join(root, "AAAA0001", "BKAAAA0001.asset"), bigger, 0o644); err != nil {
		t.Fatalf("改写测试文件失败：%v", err)
	}

	third := Execute(context.Background(), eff)
	for _, f := range third.Folders {
		for _, fr := range f.Files {
			fresh := f.Name == "AAAA0001" && fr.Name == "BKAAAA0001.asset"
			if fresh == fr.Cached {
				t.Fatalf("缓存命中状态不符：%s/%s cached=%v", f.Name, fr.Name, fr.Cached)
			}
		}
	}
}

func TestExecute_CacheReadOnlyNoWrite(t *testing.T) {
	root := t.TempDir()
	writeTitleFolder(t, root, "AAAA0001")

	report := Execute(context.Background(), config.EffectiveConfig{
		Path:          root,
		Concurrency:   1,
		Cache:         true,
		CacheReadOnly: true,
	})
	if report.Summary.Valid != 1 {
		t.Fatalf("汇总不符：%+v", report.Summary)
	}

	if _, err := os.Stat(filepath.Join(root, "cache", "scan.json")); !os.IsNotExist(err) {
		t.Fatalf("只读模式不应落盘缓存，Stat err=%v", err)
	}
}

func TestExecute_CorruptCacheDegrades(t *testing.T) {
	root := t.TempDir()
	writeTitleFolder(t, root, "AAAA0001")
	if err := os.MkdirAll(filepath.Join(root, "cache"), 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "cache", "scan.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("写入坏缓存失败：%v", err)
	}

	report := Execute(context.Background(), config.EffectiveConfig{
		Path:        root,
		Concurrency: 1,
		Cache:       true,
	})
	if report.Summary.Valid != 1 {
		t.Fatalf("坏缓存不应影响审计：%+v", report.Summary)
	}

	// 结束后缓存被整体重写为可解析内容。
	b, err := os.ReadFile(filepath.Join(root, "cache", "scan.json"))
	if err != nil {
		t.Fatalf("读取缓存失败：%v", err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		t.Fatalf("重写后的缓存不可解析：%v", err)
	}
}

type recordObserver struct {
	mu sync.Mutex

	startCalls  int
	listFolders int
	doneIdx     []int
	doneNames   []string
	doneTotal   int
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnListDone(folders int, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listFolders = folders
}

func (o *recordObserver) OnFolderDone(idx, total int, res domain.FolderResult, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.doneIdx = append(o.doneIdx, idx)
	o.doneNames = append(o.doneNames, res.Name)
	o.doneTotal = total
}

func (o *recordObserver) OnProgress(done, total, valid, invalid int, elapsed time.Duration) {
	// keepalive 由 CLI 触发；这里无需断言。
}

func TestExecuteWithObserver_EmitsEvents(t *testing.T) {
	root := t.TempDir()
	writeTitleFolder(t, root, "AAAA0001")
	writeTitleFolder(t, root, "BBBB0002")

	obs := &recordObserver{}
	_ = ExecuteWithObserver(context.Background(), config.EffectiveConfig{
		Path:        root,
		Concurrency: 1,
	}, obs)

	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 调用 1 次，实际 %d", obs.startCalls)
	}
	if obs.listFolders != 2 {
		t.Fatalf("期望枚举到 2 个目录，实际 %d", obs.listFolders)
	}
	if len(obs.doneIdx) != 2 || obs.doneIdx[0] != 1 || obs.doneIdx[1] != 2 {
		t.Fatalf("完成序号不符：%v", obs.doneIdx)
	}
	if obs.doneTotal != 2 {
		t.Fatalf("完成事件总数不符：%d", obs.doneTotal)
	}
	// 单 worker 下结果顺序与枚举顺序一致。
	if obs.doneNames[0] != "AAAA0001" || obs.doneNames[1] != "BBBB0002" {
		t.Fatalf("完成事件目录不符：%v", obs.doneNames)
	}
}

func TestExecute_CancelledContextReturns(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"AAAA0001", "BBBB0002", "CCCC0003"} {
		writeTitleFolder(t, root, id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := Execute(ctx, config.EffectiveConfig{
		Path:        root,
		Concurrency: 2,
	})
	// 取消只停止派发，不保证扫了几个；但必须正常收尾返回。
	if report.Summary.Total > 3 {
		t.Fatalf("汇总不符：%+v", report.Summary)
	}
}
