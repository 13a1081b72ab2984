package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/axer/internal/app/convert"
	"github.com/John-Robertt/axer/internal/codec"
	"github.com/John-Robertt/axer/internal/codec/native"
	"github.com/John-Robertt/axer/internal/config"
	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/title"
)

var backgroundCmd = &cobra.Command{
	Use:   "background <image> <titleid>",
	Short: "生成背景资产（BK<titleid>.asset）",
	Args:  exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildSingle(domain.KindBackground, args[1], []domain.SlotSource{
			{Slot: domain.SlotBackground, SrcAbs: args[0]},
		})
	},
}

var boxartCmd = &cobra.Command{
	Use:   "boxart <image> <titleid>",
	Short: "生成封面资产（GC<titleid>.asset）",
	Args:  exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildSingle(domain.KindBoxart, args[1], []domain.SlotSource{
			{Slot: domain.SlotBoxart, SrcAbs: args[0]},
		})
	},
}

var screenshotsCmd = &cobra.Command{
	Use:   "screenshots <image>... <titleid>",
	Short: "生成截图资产（SS<titleid>.asset，最多 20 张）",
	Args:  minArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := convert.ScreenshotSlotSources(args[:len(args)-1])
		if err != nil {
			return &usageError{Err: err, Usage: cmd.UsageString()}
		}
		return buildSingle(domain.KindScreenshots, args[len(args)-1], sources)
	},
}

var (
	bannerPath string
	iconPath   string

	bannericonCmd = &cobra.Command{
		Use:   "bannericon --banner <image> --icon <image> <titleid>",
		Short: "生成 banner/icon 资产（GL<titleid>.asset）",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bannerPath == "" || iconPath == "" {
				return &usageError{
					Err:   errors.New("--banner 与 --icon 都是必填项"),
					Usage: cmd.UsageString(),
				}
			}
			// banner 先导入，失败时的报错顺序与参考工具一致。
			return buildSingle(domain.KindBannerIcon, args[0], []domain.SlotSource{
				{Slot: domain.SlotBanner, SrcAbs: bannerPath},
				{Slot: domain.SlotIcon, SrcAbs: iconPath},
			})
		},
	}
)

var (
	folderOverwrite bool

	folderCmd = &cobra.Command{
		Use:   "folder <dir> <titleid>",
		Short: "批量处理目录：发现图源并生成全部四类资产到 <dir>/<titleid>/",
		Args:  exactArgs(2),
		RunE:  runFolder,
	}
)

func init() {
	bannericonCmd.Flags().StringVar(&bannerPath, "banner", "", "banner 图源（必填）")
	bannericonCmd.Flags().StringVar(&iconPath, "icon", "", "icon 图源（必填）")
	folderCmd.Flags().BoolVar(&folderOverwrite, "overwrite", false, "覆盖已存在的产物")
}

// buildSingle 是单类命令（background/boxart/screenshots/bannericon）的公共路径：
// 构建一个容器并发布到当前目录，总是替换既有产物。
func buildSingle(kind domain.Kind, titleID string, sources []domain.SlotSource) error {
	opts, _, err := convertOptions(config.CLIArgs{})
	if err != nil {
		return err
	}

	out := string(kind) + titleID + title.Ext
	if err := convert.One(opts, sources, out); err != nil {
		return fmt.Errorf("生成 %s 资产失败：%w", kindNoun(kind), err)
	}
	printCreated(kind, out, len(sources))
	return nil
}

func runFolder(cmd *cobra.Command, args []string) error {
	opts, eff, err := convertOptions(config.CLIArgs{
		Overwrite:    folderOverwrite,
		OverwriteSet: cmd.Flags().Changed("overwrite"),
	})
	if err != nil {
		return err
	}

	rep, err := convert.Folder(opts, args[0], args[1], eff.Overwrite)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range rep.Results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "生成 %s 资产失败：%v\n", kindNoun(res.Kind), res.Err)
			continue
		}
		printCreated(res.Kind, res.Out, res.Sources)
	}
	if rep.Created == 0 && failed == 0 {
		fmt.Println("No valid assets found in folder or all assets already exist.")
	}
	if failed > 0 {
		return errPartialFailure
	}
	return nil
}

// convertOptions 读取 cwd 下的可选 axer.json 并加载原生编解码库。
func convertOptions(cli config.CLIArgs) (convert.Options, config.EffectiveConfig, error) {
	eff, err := localEffective(cli)
	if err != nil {
		return convert.Options{}, config.EffectiveConfig{}, err
	}

	c, err := loadCodec(eff)
	if err != nil {
		return convert.Options{}, config.EffectiveConfig{}, err
	}

	return convert.Options{
		Codec:      c,
		Compress:   eff.CodecCompression,
		AutoResize: eff.AutoResize,
		Log:        log.Default(),
	}, eff, nil
}

func localEffective(cli config.CLIArgs) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	return config.LoadLocal(cwd, cli)
}

// loadCodec 打开配置指定的原生库；未配置时按平台默认库名在当前目录查找。
func loadCodec(eff config.EffectiveConfig) (codec.Codec, error) {
	lib := eff.CodecLibrary
	if lib == "" {
		lib = defaultCodecLibrary()
	}
	return native.Load(lib)
}

func defaultCodecLibrary() string {
	switch runtime.GOOS {
	case "windows":
		return "AuroraAsset.dll"
	case "darwin":
		return "libAuroraAsset.dylib"
	default:
		return "libAuroraAsset.so"
	}
}

// kindNoun 是人读输出里类别的叫法。
func kindNoun(k domain.Kind) string {
	switch k {
	case domain.KindBackground:
		return "background"
	case domain.KindBoxart:
		return "boxart"
	case domain.KindBannerIcon:
		return "banner/icon"
	case domain.KindScreenshots:
		return "screenshots"
	}
	return string(k)
}

func printCreated(kind domain.Kind, out string, sources int) {
	// 默认只展示文件名；--verbose 展示完整路径。
	shown := out
	if !verbose {
		shown = filepath.Base(out)
	}
	if kind == domain.KindScreenshots {
		fmt.Printf("已创建 screenshots 资产（%d 张）：%s\n", sources, shown)
		return
	}
	fmt.Printf("已创建 %s 资产：%s\n", kindNoun(kind), shown)
}
