// Package convert 把图源构建成 .asset 产物，单类命令与目录批处理共用。
//
// 构建路径固定为：解码图片（按需缩放到槽位尺寸）→ 编解码器压缩 →
// 写入容器槽位 → 序列化 → 原子发布。失败降级为类别级结果，
// 一个类别失败不影响其他类别。
package convert

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/John-Robertt/axer/internal/app/planner"
	"github.com/John-Robertt/axer/internal/asset"
	"github.com/John-Robertt/axer/internal/codec"
	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/infra/fsx"
	"github.com/John-Robertt/axer/internal/infra/imgx"
)

var errNoCodec = errors.New("convert: codec not configured")

// Options 聚合一次构建所需的外部能力与开关。
type Options struct {
	Codec      codec.Codec
	Compress   bool
	AutoResize bool
	Log        *log.Logger // nil 时用 log.Default()
}

func (o Options) logger() *log.Logger {
	if o.Log != nil {
		return o.Log
	}
	return log.Default()
}

// Result 是一种资产文件的构建结果。
type Result struct {
	Kind    domain.Kind
	Out     string
	Sources int
	Created bool
	Err     error
}

// FolderReport 汇总一次目录批处理。
type FolderReport struct {
	Plan    domain.FolderPlan
	Results []Result
	Created int
}

// BuildAsset 把图源逐槽导入为一个容器。
// 任何一个图源失败都中止并返回该图源的错误，容器不可再用。
func BuildAsset(opts Options, sources []domain.SlotSource) (*asset.Asset, error) {
	if opts.Codec == nil {
		return nil, errNoCodec
	}

	a := &asset.Asset{}
	for _, src := range sources {
		info := src.Slot.Info()
		pixels, w, h, err := imgx.LoadARGB(src.SrcAbs, info.Width, info.Height, opts.AutoResize)
		if err != nil {
			return nil, fmt.Errorf("读取图源 %s 失败：%w", filepath.Base(src.SrcAbs), err)
		}

		header, video, err := opts.Codec.Encode(pixels, w, h, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("编码 %s（槽位 %s）失败：%w", filepath.Base(src.SrcAbs), src.Slot, err)
		}

		if err := a.SetEntry(src.Slot, header, video); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Publish 序列化容器并原子落盘。replace=false 时目标已存在返回 os.ErrExist。
func Publish(a *asset.Asset, outAbs string) error {
	return publish(a, outAbs, true)
}

func publish(a *asset.Asset, outAbs string, replace bool) error {
	b := asset.Encode(a)
	dir := filepath.Dir(outAbs)
	name := filepath.Base(outAbs)
	if replace {
		return fsx.WriteFileAtomicReplace(dir, name, b)
	}
	return fsx.WriteFileAtomicNoOverwrite(dir, name, b)
}

// One 构建并发布单个资产文件（单类命令路径：background/boxart/…）。
// 单类命令总是替换既有产物。
func One(opts Options, sources []domain.SlotSource, outAbs string) error {
	a, err := BuildAsset(opts, sources)
	if err != nil {
		return err
	}
	return Publish(a, outAbs)
}

// ScreenshotSlotSources 把图片参数按顺序绑定到截图槽（1 起）。超出上限报错。
func ScreenshotSlotSources(paths []string) ([]domain.SlotSource, error) {
	if len(paths) > domain.ScreenshotMax {
		return nil, fmt.Errorf("截图数量 %d 超过上限 %d", len(paths), domain.ScreenshotMax)
	}
	out := make([]domain.SlotSource, 0, len(paths))
	for i, p := range paths {
		slot, _ := domain.ScreenshotSlot(i + 1)
		out = append(out, domain.SlotSource{Slot: slot, SrcAbs: p})
	}
	return out, nil
}

// Folder 执行目录批处理：规划失败整体失败，单类构建失败只影响该类。
func Folder(opts Options, dir, titleID string, overwrite bool) (FolderReport, error) {
	plan, err := planner.PlanFolder(dir, titleID, overwrite)
	if err != nil {
		return FolderReport{}, err
	}
	return ExecutePlan(opts, plan, overwrite), nil
}

// ExecutePlan 按计划逐类构建发布。
func ExecutePlan(opts Options, plan domain.FolderPlan, overwrite bool) FolderReport {
	lg := opts.logger()
	rep := FolderReport{Plan: plan}

	for _, k := range plan.Skipped {
		lg.Debug("产物已存在，跳过", "kind", k, "titleid", plan.TitleID)
	}
	for _, k := range plan.Missing {
		lg.Debug("未发现图源", "kind", k, "dir", plan.Dir)
	}
	for _, n := range plan.Excess {
		lg.Warn("截图超出槽位上限，忽略", "file", n)
	}

	for _, job := range plan.Jobs {
		res := Result{Kind: job.Kind, Out: job.OutAbs, Sources: len(job.Sources)}

		a, err := BuildAsset(opts, job.Sources)
		if err != nil {
			res.Err = err
			rep.Results = append(rep.Results, res)
			continue
		}

		// 规划阶段未见到产物时用不覆盖写，规划与发布之间的并发写入会安全失败。
		if err := publish(a, job.OutAbs, overwrite || job.Rebuild); err != nil {
			res.Err = err
			rep.Results = append(rep.Results, res)
			continue
		}

		res.Created = true
		rep.Created++
		rep.Results = append(rep.Results, res)
	}
	return rep
}
