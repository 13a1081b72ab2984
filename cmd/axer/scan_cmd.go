package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/axer/internal/app/audit"
	"github.com/John-Robertt/axer/internal/config"
	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/infra/fsx"
)

var (
	scanCheckSize  bool
	scanCache      bool
	scanCacheRO    bool
	scanWithReport bool

	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "审计资产库：对每个标题目录做结构与统计检查",
		Long: `审计资产库：对每个标题目录做结构与统计检查。

path 省略时从 <cwd>/axer.json 的 path 字段读取。
stdout 是交互终端时输出进度与摘要；被重定向时 stdout
只输出一个 JSON 报告，过程信息走 stderr。
全部目录通过时退出码为 0，存在无效目录时为 1。`,
		Args: rangeArgs(0, 1),
		RunE: runScan,
	}
)

func init() {
	f := scanCmd.Flags()
	f.BoolVar(&scanCheckSize, "check-size", false, "启用体积阈值检查（相对容差见 size_tolerance）")
	f.BoolVar(&scanCache, "cache", false, "读写扫描缓存（<path>/cache/scan.json）")
	f.BoolVar(&scanCacheRO, "cache-readonly", false, "只读缓存：命中复用，结束后不回写")
	f.BoolVar(&scanWithReport, "report", false, "额外写出 <path>/cache/report.json")
}

func runScan(cmd *cobra.Command, args []string) error {
	cli := config.CLIArgs{
		SizeCheck:     scanCheckSize,
		SizeCheckSet:  cmd.Flags().Changed("check-size"),
		Cache:         scanCache,
		CacheSet:      cmd.Flags().Changed("cache"),
		CacheReadOnly: scanCacheRO,
	}
	if len(args) == 1 {
		cli.Path = args[0]
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}
	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return err
	}

	progressW, interactive := pickProgressWriter()
	var obs audit.Observer
	var ui *scanUI
	if interactive {
		ui = newScanUI(progressW, scanWithReport)
		obs = ui
	}

	rep := audit.ExecuteWithObserver(cmd.Context(), eff, obs)
	if ui != nil {
		ui.stop()
	}

	reportFailed := false
	if scanWithReport {
		if err := writeReportFile(eff.Path, rep); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			reportFailed = true
		}
	}

	emitScanReport(rep)
	if interactive && scanWithReport && !reportFailed {
		fmt.Fprintf(progressW, "report: %s\n", filepath.Join(eff.Path, "cache", "report.json"))
	}

	if reportFailed || rep.Summary.Valid != rep.Summary.Total {
		return errScanInvalid
	}
	return nil
}

func emitScanReport(rep domain.ScanReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "Completed scan: %s\n",
			brightStyle.Render(fmt.Sprintf("%d/%d valid.", rep.Summary.Valid, rep.Summary.Total)))
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 ScanReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rep)
	fmt.Fprintf(os.Stderr, "Completed scan: %d/%d valid.\n", rep.Summary.Valid, rep.Summary.Total)
}

func writeReportFile(root string, rep domain.ScanReport) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Join(root, "cache"), "report.json", b)
}
