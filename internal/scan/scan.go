package scan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/John-Robertt/axer/internal/asset"
	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/title"
)

// Options 控制审计中可选的统计类校验。零值即默认行为。
type Options struct {
	// SizeCheck 启用按前缀的文件体积阈值校验。
	// 阈值描述的是已知参考资产集，属回归启发式而非协议规则，默认关闭。
	SizeCheck bool
	// SizeTolerance 体积阈值的相对容差，<=0 时取 0.01。
	SizeTolerance float64
	// Lookup 在读取文件前按 (path, size, modUnix) 查询历史结果；
	// 命中则跳过读取与校验，返回结果标记 Cached。
	Lookup func(path string, size, modUnix int64) (domain.FileResult, bool)
	// Record 在一次真实扫描完成后登记结果（缓存写回钩子）；缓存命中不回调。
	Record func(path string, size, modUnix int64, res domain.FileResult)
}

func (o Options) tolerance() float64 {
	if o.SizeTolerance <= 0 {
		return 0.01
	}
	return o.SizeTolerance
}

var errShortHeader = errors.New("truncated header")

// ScanAsset 对单个资产文件做结构与统计审计。
//
// 规则（硬约束）：
// - 审计独立于解码器：逐条记录检查签名字节，不解析载荷内容
// - 魔数不符立即短路，问题列表只含 "Invalid magic"
// - 任何读失败都化为 "Read error" 条目，绝不向调用方返回 error
func ScanAsset(path string, opts Options) domain.FileResult {
	name := filepath.Base(path)
	res := domain.FileResult{Name: name}

	info, err := os.Stat(path)
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("Read error: %v", err))
		return res
	}
	res.Size = info.Size()

	if opts.Lookup != nil {
		if hit, ok := opts.Lookup(path, info.Size(), info.ModTime().Unix()); ok {
			hit.Name = name
			hit.Cached = true
			return hit
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("Read error: %v", err))
		return res
	}
	res.Size = int64(len(b))
	res.Digest = fmt.Sprintf("%016x", xxhash.Sum64(b))

	res.Issues = auditBytes(name, b, opts)
	res.Valid = len(res.Issues) == 0

	if opts.Record != nil {
		opts.Record(path, info.Size(), info.ModTime().Unix(), res)
	}
	return res
}

// auditBytes 按 scan_asset 的检查顺序走一遍整块文件内容。
func auditBytes(name string, b []byte, opts Options) []string {
	if len(b) < 4 {
		return []string{fmt.Sprintf("Read error: %v", errShortHeader)}
	}
	if binary.BigEndian.Uint32(b[0:4]) != asset.Magic {
		return []string{"Invalid magic"}
	}
	if len(b) < asset.HeaderSize {
		return []string{fmt.Sprintf("Read error: %v", errShortHeader)}
	}

	prefix := name
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	kind, known := domain.ParseKind(prefix)

	var issues []string
	if !known {
		issues = append(issues, fmt.Sprintf("Unknown asset prefix %q", prefix))
	}

	// 逐槽走记录表。表被截断时与顺序读一致：到哪算哪，不记问题。
	populated := 0
	for s := 0; s < domain.SlotCount; s++ {
		rec := asset.HeaderSize + s*asset.EntrySize
		if rec+asset.EntrySize > len(b) {
			break
		}
		if binary.BigEndian.Uint32(b[rec+4:rec+8]) == 0 {
			continue
		}
		populated++

		// 签名取记录第 60..64 字节，即内嵌纹理头的末 4 字节。
		var sig domain.Signature
		copy(sig[:], b[rec+60:rec+64])
		slot := domain.AssetSlot(s)
		if !known || !kind.Expects(slot) || sig != slot.Info().Signature {
			issues = append(issues, fmt.Sprintf("Invalid metadata at %d: %x", s, sig))
		}
	}

	// 前缀未知时没有期望条目数与体积阈值可言，跳过后两项。
	if !known {
		return issues
	}

	kindInfo, _ := kind.Info()
	if populated != kindInfo.ExpectedEntries {
		issues = append(issues, fmt.Sprintf("Expected %d entries, found %d", kindInfo.ExpectedEntries, populated))
	}

	if opts.SizeCheck {
		target := float64(kindInfo.SizeThreshold)
		size := float64(len(b))
		if size < target*(1-opts.tolerance()) || size > target*(1+opts.tolerance()) {
			issues = append(issues, fmt.Sprintf("Size mismatch for %s", prefix))
		}
	}
	return issues
}

// ScanFolder 审计一个标题目录。
//
// 目录有效当且仅当：恰好 4 个 .asset 文件；剥掉 2 字母前缀后文件名
// 一致；且 4 个文件全部通过 ScanAsset。前两个前置条件任一失败都会
// 短路返回目录级问题，跳过文件级检查。
func ScanFolder(dir string, opts Options) domain.FolderResult {
	res := domain.FolderResult{Name: filepath.Base(dir)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("Read error: %v", err))
		return res
	}

	files := make([]string, 0, 4)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), title.Ext) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	if len(files) != 4 {
		res.Issues = append(res.Issues, fmt.Sprintf("Invalid asset count: found %d, expected 4", len(files)))
		return res
	}

	suffixes := make(map[string]struct{}, 1)
	for _, f := range files {
		suffixes[f[2:]] = struct{}{}
	}
	if len(suffixes) > 1 {
		names := make([]string, 0, len(suffixes))
		for s := range suffixes {
			names = append(names, s)
		}
		sort.Strings(names)
		res.Issues = append(res.Issues, "Name mismatch: "+strings.Join(names, ", "))
		return res
	}

	res.Valid = true
	for _, f := range files {
		fr := ScanAsset(filepath.Join(dir, f), opts)
		res.Valid = res.Valid && fr.Valid
		res.Files = append(res.Files, fr)
	}
	return res
}

// ListTitleFolders 列出 root 的一级子目录名并应用目录排除规则。
//
// 规则（硬约束）：
// - 永久排除：<root>/output/ 与 <root>/cache/（工具自己的产物目录）
// - excludeDirs：来自配置文件，视为相对 root 的路径（绝对路径原样处理）
func ListTitleFolders(root string, excludeDirs []string) ([]string, error) {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if isExcluded(filepath.Join(root, e.Name()), excluded) {
			continue
		}
		dirs = append(dirs, e.Name())
	}
	return dirs, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	outputDir := filepath.Join(root, "output")
	cacheDir := filepath.Join(root, "cache")

	excluded := make([]string, 0, 2+len(excludeDirs))
	excluded = append(excluded, filepath.Clean(outputDir), filepath.Clean(cacheDir))

	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
