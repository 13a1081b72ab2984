package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/axer/internal/asset"
	"github.com/John-Robertt/axer/internal/codec/codectest"
	"github.com/John-Robertt/axer/internal/domain"
)

func testOpts() Options {
	return Options{Codec: codectest.Codec{}, Compress: true, AutoResize: false}
}

func writePNG(t *testing.T, path string, w, h int) *image.NRGBA {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(i*7 + 3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("编码 PNG 失败：%v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	return img
}

func TestOne_PublishesAsset(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "boxart.png")
	img := writePNG(t, src, 2, 2)

	out := filepath.Join(dir, "GCFFFE07D1.asset")
	sources := []domain.SlotSource{{Slot: domain.SlotBoxart, SrcAbs: src}}
	if err := One(testOpts(), sources, out); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("读取产物失败：%v", err)
	}
	a, err := asset.Decode(b)
	if err != nil {
		t.Fatalf("解码产物失败：%v", err)
	}
	if a.Flags != domain.FlagBoxart {
		t.Fatalf("期望 flags=0x04，实际=%#x", a.Flags)
	}

	e := &a.Entries[domain.SlotBoxart]
	if !e.Populated() {
		t.Fatalf("期望 boxart 槽位被占用")
	}
	// codectest 的视频数据是 ARGB 逐像素反转：[B G R A]。
	want := make([]byte, len(img.Pix))
	for i := 0; i < len(img.Pix); i += 4 {
		want[i] = img.Pix[i+2]
		want[i+1] = img.Pix[i+1]
		want[i+2] = img.Pix[i]
		want[i+3] = img.Pix[i+3]
	}
	if !bytes.Equal(e.VideoData, want) {
		t.Fatalf("视频数据不符")
	}
}

func TestOne_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "background.png")
	writePNG(t, src, 2, 2)

	out := filepath.Join(dir, "BKFFFE07D1.asset")
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	sources := []domain.SlotSource{{Slot: domain.SlotBackground, SrcAbs: src}}
	if err := One(testOpts(), sources, out); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("读取产物失败：%v", err)
	}
	if _, err := asset.Decode(b); err != nil {
		t.Fatalf("期望产物被替换为合法容器：%v", err)
	}
}

func TestBuildAsset_AutoResizeToSlotDims(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "background.png")
	writePNG(t, src, 2, 2)

	opts := testOpts()
	opts.AutoResize = true
	a, err := BuildAsset(opts, []domain.SlotSource{{Slot: domain.SlotBackground, SrcAbs: src}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	e := &a.Entries[domain.SlotBackground]
	if got := len(e.VideoData); got != 1280*720*4 {
		t.Fatalf("期望缩放到 1280x720，实际视频数据 %d 字节", got)
	}
	if w := binary.BigEndian.Uint32(e.TextureHeader[4:8]); w != 1280 {
		t.Fatalf("纹理头宽度期望 1280，实际 %d", w)
	}
}

func TestBuildAsset_SourceErrors(t *testing.T) {
	if _, err := BuildAsset(testOpts(), []domain.SlotSource{{Slot: domain.SlotIcon, SrcAbs: "/no/such.png"}}); err == nil {
		t.Fatalf("期望图源缺失报错")
	}
	if _, err := BuildAsset(Options{}, nil); !errors.Is(err, errNoCodec) {
		t.Fatalf("期望 errNoCodec，实际：%v", err)
	}
}

func TestScreenshotSlotSources(t *testing.T) {
	got, err := ScreenshotSlotSources([]string{"a.png", "b.png"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 || got[0].Slot != domain.SlotScreenshot1 || got[1].Slot != domain.SlotScreenshot1+1 {
		t.Fatalf("槽位绑定不符：%+v", got)
	}

	many := make([]string, domain.ScreenshotMax+1)
	for i := range many {
		many[i] = "x.png"
	}
	if _, err := ScreenshotSlotSources(many); err == nil {
		t.Fatalf("期望超上限报错")
	}
}

func TestFolder_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "boxart.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "screenshot1.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "screenshot2.png"), 2, 2)

	rep, err := Folder(testOpts(), dir, "FFFE07D1", false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if rep.Created != 2 {
		t.Fatalf("期望创建 2 个产物，实际 %d（%+v）", rep.Created, rep.Results)
	}
	if len(rep.Plan.Missing) != 2 {
		t.Fatalf("期望 BK/GL 缺图源，实际=%v", rep.Plan.Missing)
	}

	b, err := os.ReadFile(filepath.Join(dir, "FFFE07D1", "SSFFFE07D1.asset"))
	if err != nil {
		t.Fatalf("读取截图产物失败：%v", err)
	}
	a, err := asset.Decode(b)
	if err != nil {
		t.Fatalf("解码截图产物失败：%v", err)
	}
	if a.ScreenshotCount != 2 {
		t.Fatalf("期望截图计数 2，实际 %d", a.ScreenshotCount)
	}
	wantFlags := uint32(1<<5 | 1<<6)
	if a.Flags != wantFlags {
		t.Fatalf("期望 flags=%#x，实际=%#x", wantFlags, a.Flags)
	}
}

func TestFolder_NothingToDo(t *testing.T) {
	rep, err := Folder(testOpts(), t.TempDir(), "FFFE07D1", false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if rep.Created != 0 || len(rep.Results) != 0 {
		t.Fatalf("空目录期望零产出：%+v", rep)
	}
}

func TestExecutePlan_FailureIsolated(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "background.png")
	writePNG(t, src, 2, 2)

	plan := domain.FolderPlan{
		Dir:     dir,
		TitleID: "FFFE07D1",
		OutDir:  filepath.Join(dir, "FFFE07D1"),
		Jobs: []domain.ConvertJob{
			{
				Kind:    domain.KindBoxart,
				OutAbs:  filepath.Join(dir, "FFFE07D1", "GCFFFE07D1.asset"),
				Sources: []domain.SlotSource{{Slot: domain.SlotBoxart, SrcAbs: filepath.Join(dir, "missing.png")}},
			},
			{
				Kind:    domain.KindBackground,
				OutAbs:  filepath.Join(dir, "FFFE07D1", "BKFFFE07D1.asset"),
				Sources: []domain.SlotSource{{Slot: domain.SlotBackground, SrcAbs: src}},
			},
		},
	}

	rep := ExecutePlan(testOpts(), plan, false)
	if rep.Created != 1 {
		t.Fatalf("期望 1 个成功，实际 %d", rep.Created)
	}
	if rep.Results[0].Err == nil || rep.Results[1].Err != nil {
		t.Fatalf("期望第一个失败第二个成功：%+v", rep.Results)
	}
	if _, err := os.Stat(plan.Jobs[1].OutAbs); err != nil {
		t.Fatalf("期望背景产物存在：%v", err)
	}
}
