package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// ScanReport 是 scan 的对外稳定输出（stdout JSON / cache/report.json）。
type ScanReport struct {
	Path string `json:"path"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ScanSummary    `json:"summary"`
	Folders []FolderResult `json:"folders"`
}

type ScanSummary struct {
	Valid  int `json:"valid"`
	Total  int `json:"total"`
	Files  int `json:"files"`
	Issues int `json:"issues"`
}

// FolderResult 是一个标题目录的审计结果。
//
// Issues 只放目录级问题（文件数量 / 命名不一致）；
// 目录级检查不通过时 Files 为空（逐文件检查被短路）。
type FolderResult struct {
	Name   string       `json:"name"`
	Valid  bool         `json:"valid"`
	Issues []string     `json:"issues"`
	Files  []FileResult `json:"files"`
}

// FileResult 是单个资产文件的审计结果。
//
// Digest 是文件全文的 xxh64（十六进制），用于跨次运行比对与缓存校验；
// Cached 表示该结果复用自缓存（size+mtime 未变）。
type FileResult struct {
	Name   string   `json:"name"`
	Valid  bool     `json:"valid"`
	Size   int64    `json:"size"`
	Digest string   `json:"digest"`
	Cached bool     `json:"cached"`
	Issues []string `json:"issues"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) 稳定排序：folders 按 Name 字典序，folder 内 files 按 Name 字典序
// 3) summary 由 folders 计算得出
func (r *ScanReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Folders, func(i, j int) bool {
		return r.Folders[i].Name < r.Folders[j].Name
	})
	for i := range r.Folders {
		sort.SliceStable(r.Folders[i].Files, func(a, b int) bool {
			return r.Folders[i].Files[a].Name < r.Folders[i].Files[b].Name
		})
	}

	var s ScanSummary
	for i := range r.Folders {
		f := &r.Folders[i]
		s.Total++
		if f.Valid {
			s.Valid++
		}
		s.Issues += len(f.Issues)
		for j := range f.Files {
			s.Files++
			s.Issues += len(f.Files[j].Issues)
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type Alias ScanReport
	return json.Marshal(Alias(r))
}
