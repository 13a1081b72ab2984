package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// version 与参考工具链同步（--version 输出）。
var version = "1.0.2"

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:     "axer",
		Short:   "Aurora 资产文件工具：生成、提取与审计 .asset 容器",
		Version: version,
		// 输出与退出码由 main 统一处理（stdout 的 JSON 契约不允许 cobra 插嘴）。
		SilenceUsage:  true,
		SilenceErrors: true,
		// 未知子命令走自己的 RunE 报用法错误，而不是 cobra 的英文提示。
		Args: cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lg := log.NewWithOptions(os.Stderr, log.Options{Prefix: "axer"})
			if verbose {
				lg.SetLevel(log.DebugLevel)
			}
			log.SetDefault(lg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return &usageError{
				Err:   fmt.Errorf("未知命令：%q", args[0]),
				Usage: cmd.UsageString(),
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试信息")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{Err: err, Usage: cmd.UsageString()}
	})
	rootCmd.AddCommand(
		backgroundCmd, boxartCmd, screenshotsCmd, bannericonCmd,
		folderCmd, extractCmd, scanCmd,
	)
}

// 静默退出哨兵：失败详情已经打印或写入报告，main 只负责退出码。
var (
	errScanInvalid    = errors.New("scan: invalid assets found")
	errPartialFailure = errors.New("partial failure")
)

// usageError 标记用法错误（退出码 2，附带用法文本）。
type usageError struct {
	Err   error
	Usage string
}

func (e *usageError) Error() string { return e.Err.Error() }
func (e *usageError) Unwrap() error { return e.Err }

func main() {
	os.Exit(run())
}

func run() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var ue *usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n%s", ue.Err, ue.Usage)
		return 2
	case errors.Is(err, errScanInvalid), errors.Is(err, errPartialFailure):
		return 1
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{
				Err:   fmt.Errorf("需要 %d 个参数，实际 %d 个", n, len(args)),
				Usage: cmd.UsageString(),
			}
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return &usageError{
				Err:   fmt.Errorf("至少需要 %d 个参数，实际 %d 个", n, len(args)),
				Usage: cmd.UsageString(),
			}
		}
		return nil
	}
}

func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min || len(args) > max {
			return &usageError{
				Err:   fmt.Errorf("参数数量应在 %d 到 %d 之间，实际 %d 个", min, max, len(args)),
				Usage: cmd.UsageString(),
			}
		}
		return nil
	}
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
