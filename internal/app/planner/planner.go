package planner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/title"
)

// sourceExts 是图源扩展名的优先级顺序（jpg 兜底）。
var sourceExts = []string{"png", "webp", "jpg"}

// ListImageNames 返回目录下全部普通文件名（字典序）。
// 只看文件名，不读内容；发现逻辑全部建立在这份列表上，保证确定性。
func ListImageNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// FindSource 在文件名列表中定位 base 的图源：
// 先找精确名 base.{png,webp,jpg}，再退回 base_001 前缀匹配
// （前缀与扩展名不区分大小写）。候选并列时取字典序最小者。
func FindSource(names []string, base string) (string, bool) {
	for _, ext := range sourceExts {
		want := base + "." + ext
		for _, n := range names {
			if n == want {
				return n, true
			}
		}
	}
	for _, ext := range sourceExts {
		prefix := base + "_001"
		suffix := "." + ext
		for _, n := range names {
			low := strings.ToLower(n)
			if strings.HasPrefix(low, prefix) && strings.HasSuffix(low, suffix) {
				return n, true
			}
		}
	}
	return "", false
}

// ScreenshotSources 返回 screenshot 前缀（不区分大小写）的文件名，保持字典序。
func ScreenshotSources(names []string) []string {
	out := make([]string, 0, 8)
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), "screenshot") {
			out = append(out, n)
		}
	}
	return out
}

// PlanFolder 为一个素材目录生成确定性的转换计划（不做任何写入）。
//
// 规则（类别固定顺序 GC/BK/GL/SS）：
// - 产物已存在且未指定 overwrite 时跳过；小于 RuntThreshold 的残次品除外
// - GL 要求 banner 与 icon 同时存在，缺一按未发现图源处理
// - 截图取 screenshot 前缀文件，超出槽位上限的记入 Excess
func PlanFolder(dir, titleID string, overwrite bool) (domain.FolderPlan, error) {
	names, err := ListImageNames(dir)
	if err != nil {
		return domain.FolderPlan{}, err
	}

	outDir := filepath.Join(dir, titleID)
	plan := domain.FolderPlan{
		Dir:     dir,
		TitleID: titleID,
		OutDir:  outDir,
	}

	for _, kind := range domain.Kinds() {
		outAbs := filepath.Join(outDir, string(kind)+titleID+title.Ext)

		rebuild := false
		if !overwrite {
			if fi, err := os.Stat(outAbs); err == nil {
				if fi.Size() >= domain.RuntThreshold {
					plan.Skipped = append(plan.Skipped, kind)
					continue
				}
				rebuild = true
			}
		}

		var sources []domain.SlotSource
		switch kind {
		case domain.KindBoxart:
			if n, ok := FindSource(names, "boxart"); ok {
				sources = []domain.SlotSource{{Slot: domain.SlotBoxart, SrcAbs: filepath.Join(dir, n)}}
			}
		case domain.KindBackground:
			if n, ok := FindSource(names, "background"); ok {
				sources = []domain.SlotSource{{Slot: domain.SlotBackground, SrcAbs: filepath.Join(dir, n)}}
			}
		case domain.KindBannerIcon:
			banner, okB := FindSource(names, "banner")
			icon, okI := FindSource(names, "icon")
			if okB && okI {
				sources = []domain.SlotSource{
					{Slot: domain.SlotBanner, SrcAbs: filepath.Join(dir, banner)},
					{Slot: domain.SlotIcon, SrcAbs: filepath.Join(dir, icon)},
				}
			}
		case domain.KindScreenshots:
			shots := ScreenshotSources(names)
			if len(shots) > domain.ScreenshotMax {
				plan.Excess = append(plan.Excess, shots[domain.ScreenshotMax:]...)
				shots = shots[:domain.ScreenshotMax]
			}
			for i, n := range shots {
				slot, _ := domain.ScreenshotSlot(i + 1)
				sources = append(sources, domain.SlotSource{Slot: slot, SrcAbs: filepath.Join(dir, n)})
			}
		}

		if len(sources) == 0 {
			plan.Missing = append(plan.Missing, kind)
			continue
		}

		plan.Jobs = append(plan.Jobs, domain.ConvertJob{
			Kind:    kind,
			OutAbs:  outAbs,
			Rebuild: rebuild,
			Sources: sources,
		})
	}

	return plan, nil
}
