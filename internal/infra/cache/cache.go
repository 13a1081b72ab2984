// Package cache 提供扫描结果的本地缓存。
//
// 缓存位于资产库根目录下的 cache/scan.json，按文件相对路径
// 记录上次扫描的结果。命中条件是路径、体积、修改时间三者完全
// 一致；任何一项变化都视为未命中并重新扫描。
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/John-Robertt/axer/internal/domain"
	"github.com/John-Robertt/axer/internal/infra/fsx"
)

// ErrReadOnly 表示缓存处于只读模式，拒绝写入。
var ErrReadOnly = errors.New("cache: read-only")

const (
	cacheDir  = "cache"
	cacheFile = "scan.json"
)

// Entry 是单个资产文件的缓存记录。
type Entry struct {
	Size    int64    `json:"size"`
	ModUnix int64    `json:"mtime_unix"`
	Digest  string   `json:"digest"`
	Valid   bool     `json:"valid"`
	Issues  []string `json:"issues,omitempty"`
}

type cacheData struct {
	Files map[string]Entry `json:"files"`
}

// Store 表示一个资产库的扫描缓存。
//
// 约束：
//   - Lookup 与 Record 可以被多个 worker 并发调用；
//   - ReadOnly 为 true 时 Save 返回 ErrReadOnly（--cache-readonly）；
//   - 键是相对库根目录的路径（正斜杠形式），库整体搬迁后仍然有效。
type Store struct {
	Root     string
	ReadOnly bool

	mu    sync.Mutex
	files map[string]Entry
}

// New 创建缓存存取器；root 为资产库根目录。
func New(root string, readOnly bool) *Store {
	return &Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
		files:    make(map[string]Entry),
	}
}

// Load 读取 cache/scan.json。文件不存在不算错误，视为空缓存。
func (s *Store) Load() error {
	b, err := os.ReadFile(filepath.Join(s.Root, cacheDir, cacheFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var data cacheData
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if data.Files != nil {
		s.files = data.Files
	}
	return nil
}

// Lookup 查询缓存。命中返回上次的扫描结果与 true；
// 体积或修改时间任何一项不一致都按未命中处理。
func (s *Store) Lookup(path string, size, modUnix int64) (domain.FileResult, bool) {
	key := s.key(path)

	s.mu.Lock()
	e, ok := s.files[key]
	s.mu.Unlock()

	if !ok || e.Size != size || e.ModUnix != modUnix {
		return domain.FileResult{}, false
	}

	res := domain.FileResult{
		Valid:  e.Valid,
		Digest: e.Digest,
		Size:   e.Size,
	}
	if len(e.Issues) > 0 {
		res.Issues = append([]string(nil), e.Issues...)
	}
	return res, true
}

// Record 登记一次扫描结果。只更新内存，Save 时落盘。
func (s *Store) Record(path string, size, modUnix int64, res domain.FileResult) {
	key := s.key(path)

	e := Entry{
		Size:    size,
		ModUnix: modUnix,
		Digest:  res.Digest,
		Valid:   res.Valid,
	}
	if len(res.Issues) > 0 {
		e.Issues = append([]string(nil), res.Issues...)
	}

	s.mu.Lock()
	s.files[key] = e
	s.mu.Unlock()
}

// Save 把缓存原子落盘到 cache/scan.json。只读模式下返回 ErrReadOnly。
func (s *Store) Save() error {
	if s.ReadOnly {
		return ErrReadOnly
	}

	s.mu.Lock()
	data := cacheData{Files: s.files}
	b, err := json.MarshalIndent(data, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return fsx.WriteFileAtomicReplace(filepath.Join(s.Root, cacheDir), cacheFile, b)
}

// key 把路径归一成相对库根目录的正斜杠形式。
// 无法相对化时退回原路径，缓存仍可用只是不可搬迁。
func (s *Store) key(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
