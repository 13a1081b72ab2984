package title

import (
	"path/filepath"
	"strings"

	"github.com/John-Robertt/axer/internal/domain"
)

// Ext 资产文件统一扩展名。
const Ext = ".asset"

// 文件名格式：<2 字母前缀><标题 ID>.asset，标题 ID 至少 4 字符。
const minNameLen = 2 + 4 + len(Ext)

// Name 是一个已解析的资产文件名。
type Name struct {
	Kind domain.Kind
	ID   string
}

// String 还原磁盘文件名。
func (n Name) String() string {
	return string(n.Kind) + n.ID + Ext
}

type InvalidNameError struct {
	// Kind: "bad_name" 或 "unknown_prefix"
	Kind string
	Name string
}

func (e *InvalidNameError) Error() string {
	switch e.Kind {
	case "bad_name":
		return "无法解析资产文件名：" + e.Name
	case "unknown_prefix":
		return "未知的资产前缀：" + e.Name
	default:
		return "invalid name"
	}
}

// Parse 从路径或文件名解析出类别前缀与标题 ID。
// 失败返回 *InvalidNameError（bad_name / unknown_prefix）。
func Parse(path string) (Name, error) {
	base := filepath.Base(path)
	if len(base) < minNameLen || !strings.HasSuffix(base, Ext) {
		return Name{}, &InvalidNameError{Kind: "bad_name", Name: base}
	}

	prefix := base[:2]
	k, ok := domain.ParseKind(prefix)
	if !ok {
		return Name{}, &InvalidNameError{Kind: "unknown_prefix", Name: base}
	}

	return Name{Kind: k, ID: base[2 : len(base)-len(Ext)]}, nil
}

// SplitBase 宽松拆分文件名，不校验前缀是否属于已知类别。
// 扫描器用它做同目录标题 ID 一致性检查。
func SplitBase(base string) (prefix, id string, ok bool) {
	if !strings.HasSuffix(base, Ext) {
		return "", "", false
	}
	stem := base[:len(base)-len(Ext)]
	if len(stem) < 2 {
		return "", "", false
	}
	return stem[:2], stem[2:], true
}
