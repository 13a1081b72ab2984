// Package extract 把 .asset 容器还原为图片文件。
//
// 输出布局（相对 OutRoot）：output/<titleid>/{background,boxart,banner,
// icon,screenshotN}.png。同名文件直接替换；截图在第一个空槽处停止，
// 其余类别逐槽独立（banner 失败不影响 icon）。
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/John-Robertt/axer/internal/asset"
	"github.com/John-Robertt/axer/internal/codec"
	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/infra/fsx"
	"github.com/John-Robertt/axer/internal/infra/imgx"
	"github.com/John-Robertt/axer/internal/title"
)

var (
	errNoCodec = errors.New("extract: codec not configured")

	// ErrAbsent 表示目标槽位未被占用。
	ErrAbsent = errors.New("extract: slot not populated")
)

// Options 聚合提取所需的外部能力。
type Options struct {
	Codec codec.Codec
	// OutRoot 是 output/ 目录的父目录；空值表示当前目录。
	OutRoot string
	Log     *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Log != nil {
		return o.Log
	}
	return log.Default()
}

// Result 是一个槽位的提取结果。
type Result struct {
	Slot domain.AssetSlot
	Out  string
	Err  error
}

type target struct {
	slot domain.AssetSlot
	base string
}

// targetsFor 返回类别要提取的槽位与输出文件名（按固定顺序）。
func targetsFor(kind domain.Kind) []target {
	switch kind {
	case domain.KindBackground:
		return []target{{domain.SlotBackground, "background"}}
	case domain.KindBoxart:
		return []target{{domain.SlotBoxart, "boxart"}}
	case domain.KindBannerIcon:
		return []target{{domain.SlotBanner, "banner"}, {domain.SlotIcon, "icon"}}
	case domain.KindScreenshots:
		out := make([]target, 0, domain.ScreenshotMax)
		for s := domain.SlotScreenshot1; s <= domain.SlotScreenshotEnd; s++ {
			out = append(out, target{s, fmt.Sprintf("screenshot%d", s.ScreenshotOrdinal())})
		}
		return out
	}
	return nil
}

// File 提取一个资产文件的全部目标槽位。
// 文件名不合法、容器结构损坏这类整体性失败直接返回错误；
// 单个槽位的缺席或解码失败记录在对应 Result.Err 中。
func File(opts Options, assetPath string) ([]Result, error) {
	if opts.Codec == nil {
		return nil, errNoCodec
	}

	name, err := title.Parse(assetPath)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(assetPath)
	if err != nil {
		return nil, err
	}
	a, err := asset.Decode(b)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(opts.OutRoot, "output", name.ID)
	lg := opts.logger()

	// 截图槽按连续段处理：第一个空槽之后不再看。
	stopOnAbsent := name.Kind == domain.KindScreenshots

	var results []Result
	for _, tg := range targetsFor(name.Kind) {
		e := &a.Entries[tg.slot]
		if !e.Populated() {
			if stopOnAbsent {
				break
			}
			results = append(results, Result{Slot: tg.slot, Err: ErrAbsent})
			continue
		}

		res := Result{Slot: tg.slot}
		out, err := renderPNG(opts.Codec, e)
		if err != nil {
			res.Err = err
			results = append(results, res)
			if stopOnAbsent {
				break
			}
			continue
		}

		fname := tg.base + ".png"
		if err := fsx.WriteFileAtomicReplace(outDir, fname, out); err != nil {
			res.Err = err
			results = append(results, res)
			if stopOnAbsent {
				break
			}
			continue
		}

		res.Out = filepath.Join(outDir, fname)
		lg.Debug("已提取", "slot", tg.slot, "out", res.Out)
		results = append(results, res)
	}
	return results, nil
}

// renderPNG 把一个条目过解码器并编码为 PNG 字节。
func renderPNG(c codec.Codec, e *asset.Entry) ([]byte, error) {
	pixels, w, h, err := c.Decode(e.TextureHeader[:], e.VideoData)
	if err != nil {
		return nil, err
	}
	return imgx.PNGFromBGRA(pixels, w, h)
}
