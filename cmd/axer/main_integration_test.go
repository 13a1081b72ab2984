package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/axer/internal/asset"
	"github.com/John-Robertt/axer/internal/domain"
)

func texHeader(sig domain.Signature) []byte {
	h := make([]byte, asset.TextureHeaderSize)
	copy(h[asset.TextureHeaderSize-4:], sig[:])
	return h
}

func buildAsset(t *testing.T, slots map[domain.AssetSlot]domain.Signature) []byte {
	t.Helper()
	var a asset.Asset
	for slot, sig := range slots {
		if err := a.SetEntry(slot, texHeader(sig), []byte{1, 2, 3, 4}); err != nil {
			t.Fatalf("构造测试容器失败（槽位 %d）：%v", slot, err)
		}
	}
	return asset.Encode(&a)
}

// writeTitleFolder 在 root 下写出一个完整的标题目录（四类资产齐全且有效）。
func writeTitleFolder(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}

	ssSlots := make(map[domain.AssetSlot]domain.Signature, 3)
	for i := 1; i <= 3; i++ {
		s, _ := domain.ScreenshotSlot(i)
		ssSlots[s] = domain.SigScreenshot
	}
	files := map[string][]byte{
		"BK" + id + ".asset": buildAsset(t, map[domain.AssetSlot]domain.Signature{
			domain.SlotBackground: domain.SigBackground,
		}),
		"GC" + id + ".asset": buildAsset(t, map[domain.AssetSlot]domain.Signature{
			domain.SlotBoxart: domain.SigBoxart,
		}),
		"GL" + id + ".asset": buildAsset(t, map[domain.AssetSlot]domain.Signature{
			domain.SlotIcon:   domain.SigIcon,
			domain.SlotBanner: domain.SigBanner,
		}),
		"SS" + id + ".asset": buildAsset(t, ssSlots),
	}
	for name, b := range files {
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			t.Fatalf("写入测试文件失败：%v", err)
		}
	}
}

func TestCLI_NoTTY_StdoutOnlyScanReportJSON(t *testing.T) {
	// 这个测试锁定对外契约：stdout 非 TTY 时只能输出一个 ScanReport JSON（进度/配置必须走 stderr 或直接禁用）。
	root := t.TempDir()
	writeTitleFolder(t, root, "FFFE07D1")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/axer", "scan", root)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	// stdout 必须是单个 JSON。
	var rep domain.ScanReport
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("stdout 不是合法的 ScanReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rep.Summary.Total != 1 || rep.Summary.Valid != 1 {
		t.Fatalf("报告汇总不符：%+v", rep.Summary)
	}
	// 进度/配置不应出现在 stdout。
	if strings.Contains(stdout.String(), "配置（生效）") || strings.Contains(stdout.String(), "进度:") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}

	// stderr 至少应包含最终摘要行。
	if !strings.Contains(stderr.String(), "Completed scan: 1/1 valid.") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}

func TestCLI_InvalidLibraryExitsOne(t *testing.T) {
	root := t.TempDir()
	writeTitleFolder(t, root, "FFFE07D1")
	// 删掉一个资产：数量检查失败，退出码应为 1。
	if err := os.Remove(filepath.Join(root, "FFFE07D1", "SSFFFE07D1.asset")); err != nil {
		t.Fatalf("删文件失败：%v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/axer", "scan", root)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	if err == nil || !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("期望退出码 1，实际 err=%v", err)
	}

	var rep domain.ScanReport
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("stdout 不是合法的 ScanReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rep.Summary.Valid != 0 || rep.Summary.Total != 1 {
		t.Fatalf("报告汇总不符：%+v", rep.Summary)
	}
	if !strings.Contains(stderr.String(), "Completed scan: 0/1 valid.") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}
