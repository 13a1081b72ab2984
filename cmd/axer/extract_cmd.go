package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/axer/internal/app/extract"
	"github.com/John-Robertt/axer/internal/config"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.asset> <png|webp>",
	Short: "从资产文件提取图片到 output/<titleid>/",
	Long: `从资产文件提取图片到 output/<titleid>/。

文件名决定要提取的槽位：BK 背景、GC 封面、GL banner+icon、
SS 截图（到第一个空槽为止）。输出始终编码为 png；
webp 仅为兼容参数，不会产生 webp 文件。`,
	Args: exactArgs(2),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	switch strings.ToLower(args[1]) {
	case "png":
	case "webp":
		log.Warn("未内置 webp 编码器，输出仍为 png")
	default:
		return &usageError{
			Err:   fmt.Errorf("不支持的输出格式 %q（可选 png、webp）", args[1]),
			Usage: cmd.UsageString(),
		}
	}

	eff, err := localEffective(config.CLIArgs{})
	if err != nil {
		return err
	}
	c, err := loadCodec(eff)
	if err != nil {
		return err
	}

	results, err := extract.File(extract.Options{Codec: c, Log: log.Default()}, args[0])
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "提取 %s 失败：%v\n", res.Slot, res.Err)
			continue
		}
		fmt.Printf("已提取 %s：%s\n", res.Slot, res.Out)
	}
	if failed > 0 {
		return errPartialFailure
	}
	return nil
}
