package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 axer.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// DefaultConcurrency 是扫描并发的内置默认值（当配置未指定时）。
	DefaultConcurrency = 4
	// DefaultSizeTolerance 是体积阈值的内置相对容差。
	DefaultSizeTolerance = 0.01
)

// CLIArgs 只包含 CLI 暴露的入口项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --check-size=false 必须能覆盖
// 配置文件里的 checks.size=true。
type CLIArgs struct {
	Path string

	SizeCheck    bool
	SizeCheckSet bool

	Cache    bool
	CacheSet bool

	// CacheReadOnly 仅由 CLI 提供；为 true 时隐含启用缓存读取。
	CacheReadOnly bool

	Overwrite    bool
	OverwriteSet bool
}

// FileConfig 对应 axer.json 的解析结构。
type FileConfig struct {
	Path          string        `json:"path"`
	Concurrency   int           `json:"concurrency"`
	Checks        *ChecksConfig `json:"checks"`
	SizeTolerance float64       `json:"size_tolerance"`
	Codec         *CodecConfig  `json:"codec"`
	AutoResize    *bool         `json:"auto_resize"`
	Overwrite     bool          `json:"overwrite"`
	Cache         bool          `json:"cache"`
	ExcludeDirs   []string      `json:"exclude_dirs"`
}

type ChecksConfig struct {
	Size bool `json:"size"`
}

type CodecConfig struct {
	Library     string `json:"library"`
	Compression *bool  `json:"compression"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，
// 不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	Concurrency   int
	SizeCheck     bool
	SizeTolerance float64

	// CodecLibrary 是原生编解码库的路径；扫描不需要它，转换/提取需要。
	CodecLibrary     string
	CodecCompression bool

	AutoResize bool
	Overwrite  bool

	Cache         bool
	CacheReadOnly bool

	ExcludeDirs []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按文档约定发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/axer.json（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/axer.json（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：
// - path：CLI path > config path
// - checks.size / cache / overwrite：CLI 显式指定 > config > 默认
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/axer.json。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, "axer.json")

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(absPath, cli, fc, cfgPath)
	}

	// CLI 没给 path：必须读取 <cwd>/axer.json，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, "axer.json")
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(absPath, cli, fc, cfgPath)
}

// LoadLocal 读取 <cwd>/axer.json（可选，不要求存在、不要求 path 字段），
// 供转换/提取类命令取 codec 与开关配置。目标路径来自命令行参数本身。
func LoadLocal(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, "axer.json")
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	absPath := ""
	if strings.TrimSpace(fc.Path) != "" {
		absPath = absCleanFrom(cwdAbs, fc.Path)
	}
	return merge(absPath, cli, fc, cfgPath)
}

func merge(absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 文档约定：范围建议 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	// checks.size：CLI > config > 默认 false。
	sizeCheck := false
	if fc.Checks != nil {
		sizeCheck = fc.Checks.Size
	}
	if cli.SizeCheckSet {
		sizeCheck = cli.SizeCheck
	}

	tolerance := fc.SizeTolerance
	if tolerance == 0 {
		tolerance = DefaultSizeTolerance
	}
	if tolerance < 0 || tolerance >= 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath,
			Err: fmt.Errorf("size_tolerance 必须在 [0, 1) 区间，实际是 %v", fc.SizeTolerance)}
	}

	codecLibrary := ""
	codecCompression := true
	if fc.Codec != nil {
		codecLibrary = strings.TrimSpace(fc.Codec.Library)
		if fc.Codec.Compression != nil {
			codecCompression = *fc.Codec.Compression
		}
	}

	autoResize := true
	if fc.AutoResize != nil {
		autoResize = *fc.AutoResize
	}

	overwrite := fc.Overwrite
	if cli.OverwriteSet {
		overwrite = cli.Overwrite
	}

	// cache：CLI > config > 默认 false；--cache-readonly 隐含启用读取。
	cache := fc.Cache
	if cli.CacheSet {
		cache = cli.Cache
	}
	if cli.CacheReadOnly {
		cache = true
	}

	return EffectiveConfig{
		Path:             absPath,
		Concurrency:      concurrency,
		SizeCheck:        sizeCheck,
		SizeTolerance:    tolerance,
		CodecLibrary:     codecLibrary,
		CodecCompression: codecCompression,
		AutoResize:       autoResize,
		Overwrite:        overwrite,
		Cache:            cache,
		CacheReadOnly:    cli.CacheReadOnly,
		ExcludeDirs:      append([]string(nil), fc.ExcludeDirs...),
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
