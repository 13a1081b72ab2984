// Package asset 实现 AXER 资产容器的内存模型与磁盘编解码。
//
// 磁盘布局（所有 u32 字段统一大端序）：
//
//	0    魔数（0x52584541，磁盘字节 52 58 45 41）
//	4    版本（恒为 1）
//	8    dataSize（全部条目 size 之和）
//	12   flags（按槽位语义置位）
//	16   screenshotCount（已占用截图槽的最大序号）
//	20   25 × 64 字节条目记录：offset(恒 0) / size / extendedInfo(恒 0) / 52 字节纹理头
//	     零填充至 2048 边界
//	2048 已占用槽位的 videoData，按槽位升序紧密拼接
//
// 记录里的 offset 字段历史上恒写 0，解码一律不信任它：
// 载荷位置按「对齐后的表尾 + 更低槽位 size 之和」重新计算。
package asset

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/John-Robertt/axer/internal/domain"
)

const (
	// Magic 是容器魔数；按大端序落盘后字节为 52 58 45 41。
	Magic uint32 = 0x52584541
	// Version 是当前唯一支持的容器版本。
	Version uint32 = 1

	// HeaderSize 是文件头长度（5 个 u32）。
	HeaderSize = 20
	// EntrySize 是单条记录长度。
	EntrySize = 64
	// TextureHeaderSize 是记录内嵌纹理头长度。
	TextureHeaderSize = 52
	// Alignment 是头表区与载荷区之间的对齐边界。
	Alignment = 2048
)

// DataOffset 是载荷区起始位置：表尾 20+25*64=1620 向上对齐到 2048。
const DataOffset = ((HeaderSize + domain.SlotCount*EntrySize + Alignment - 1) / Alignment) * Alignment

// 结构性失败的哨兵原因（FormatError.Err）。
var (
	ErrInvalidMagic   = errors.New("asset: invalid magic")
	ErrInvalidVersion = errors.New("asset: unsupported version")
	ErrTruncated      = errors.New("asset: truncated container")
	ErrHeaderLength   = errors.New("asset: texture header must be 52 bytes")
	ErrInvalidSlot    = errors.New("asset: slot out of range")
)

// FormatError 表示容器结构性错误（坏魔数/坏版本/截断/纹理头长度不符）。
// 对单次操作致命，不自动重试。
type FormatError struct {
	Op   string           // "decode" 或 "set-entry"
	Slot domain.AssetSlot // 相关槽位；-1 表示与具体槽位无关
	Err  error
}

func (e *FormatError) Error() string {
	if e.Slot >= 0 {
		return fmt.Sprintf("%s 失败（槽位 %d）：%v", e.Op, int(e.Slot), e.Err)
	}
	return fmt.Sprintf("%s 失败：%v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IsFormat 判断 err 是否为容器结构性错误。
func IsFormat(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

// Entry 是一个槽位的内存态。size 不单独存：恒等于 len(VideoData)。
type Entry struct {
	TextureHeader [TextureHeaderSize]byte
	VideoData     []byte
}

// Populated 判断槽位是否被占用（size > 0）。
func (e *Entry) Populated() bool { return len(e.VideoData) > 0 }

// Asset 是一个容器的内存态。
//
// 生命周期：空构造后通过 SetEntry 逐槽填充（导入路径），
// 或由 Decode 一次性解析（导出路径）；随后一次 Encode 或按槽查询，
// 用完即弃，不携带磁盘表示之外的身份。
type Asset struct {
	Flags           uint32
	ScreenshotCount uint32
	Entries         [domain.SlotCount]Entry
}

// SetEntry 把 (纹理头, videoData) 存入槽位，并重算该槽位所属的
// flag 位与截图计数。覆盖槽内旧数据；video 为空表示清空该槽。
//
// 唯一业务错误：header 长度不是 52 字节。槽位越界属调用方 bug，
// 同样以 FormatError 返回而不是 panic。
func (a *Asset) SetEntry(slot domain.AssetSlot, header, video []byte) error {
	if !slot.Valid() {
		return &FormatError{Op: "set-entry", Slot: slot, Err: ErrInvalidSlot}
	}
	if len(header) != TextureHeaderSize {
		return &FormatError{Op: "set-entry", Slot: slot, Err: ErrHeaderLength}
	}

	e := &a.Entries[slot]
	copy(e.TextureHeader[:], header)
	e.VideoData = append([]byte(nil), video...)

	a.recomputeFlag(slot)
	if slot.IsScreenshot() {
		a.recomputeScreenshotCount()
	}
	return nil
}

// DataSize 返回全部条目 size 之和（编码时的 dataSize 字段）。
func (a *Asset) DataSize() uint32 {
	var n uint32
	for i := range a.Entries {
		n += uint32(len(a.Entries[i].VideoData))
	}
	return n
}

// recomputeFlag 重算 slot 所属的 flag 位。
// 同一位可能由多个槽共享（icon/banner 共用 bit 0）：
// 只要还有同位槽被占用，该位就保持置位。
func (a *Asset) recomputeFlag(slot domain.AssetSlot) {
	flag := slot.Info().Flag
	if flag == 0 {
		return
	}
	populated := false
	for s := domain.AssetSlot(0); s < domain.SlotCount; s++ {
		if s.Info().Flag == flag && a.Entries[s].Populated() {
			populated = true
			break
		}
	}
	if populated {
		a.Flags |= flag
	} else {
		a.Flags &^= flag
	}
}

// recomputeScreenshotCount 取已占用截图槽的最大序号（允许不连续）。
func (a *Asset) recomputeScreenshotCount() {
	var max uint32
	for s := domain.SlotScreenshot1; s <= domain.SlotScreenshotEnd; s++ {
		if a.Entries[s].Populated() {
			max = uint32(s.ScreenshotOrdinal())
		}
	}
	a.ScreenshotCount = max
}

// Encode 把容器序列化为完整字节序列。
//
// dataSize 编码时现算；offset/extendedInfo 字段恒写 0。
// 编码是全函数：不做 I/O、不触碰编解码器，也没有失败路径。
func Encode(a *Asset) []byte {
	dataSize := a.DataSize()
	out := make([]byte, DataOffset+int(dataSize))

	be := binary.BigEndian
	be.PutUint32(out[0:4], Magic)
	be.PutUint32(out[4:8], Version)
	be.PutUint32(out[8:12], dataSize)
	be.PutUint32(out[12:16], a.Flags)
	be.PutUint32(out[16:20], a.ScreenshotCount)

	off := HeaderSize
	for i := range a.Entries {
		e := &a.Entries[i]
		// out[off:off+4]（offset 字段）与 out[off+8:off+12]（extendedInfo）保持零。
		be.PutUint32(out[off+4:off+8], uint32(len(e.VideoData)))
		copy(out[off+12:off+EntrySize], e.TextureHeader[:])
		off += EntrySize
	}

	// make 已零填充 [1620, 2048)；载荷按槽位升序紧密写入。
	pos := DataOffset
	for i := range a.Entries {
		pos += copy(out[pos:], a.Entries[i].VideoData)
	}
	return out
}

// Decode 从字节序列解析容器。纯结构解析：不校验载荷内容，不调用编解码器。
//
// 失败条件（FormatError）：总长 < 2048、魔数不符、版本不符、
// 某个已占用槽位的载荷超出文件末尾。size==0 的槽位是「缺席」，不是错误。
func Decode(b []byte) (*Asset, error) {
	if len(b) < Alignment {
		return nil, &FormatError{Op: "decode", Slot: -1, Err: ErrTruncated}
	}

	be := binary.BigEndian
	if be.Uint32(b[0:4]) != Magic {
		return nil, &FormatError{Op: "decode", Slot: -1, Err: ErrInvalidMagic}
	}
	if be.Uint32(b[4:8]) != Version {
		return nil, &FormatError{Op: "decode", Slot: -1, Err: ErrInvalidVersion}
	}

	a := &Asset{
		Flags:           be.Uint32(b[12:16]),
		ScreenshotCount: be.Uint32(b[16:20]),
	}

	// 载荷位置 = 对齐表尾 + 更低槽位 size 之和；记录里的 offset 字段不参与。
	pos := DataOffset
	for s := 0; s < domain.SlotCount; s++ {
		rec := HeaderSize + s*EntrySize
		size := int(be.Uint32(b[rec+4 : rec+8]))
		if size == 0 {
			continue
		}

		end := pos + size
		if end > len(b) {
			return nil, &FormatError{Op: "decode", Slot: domain.AssetSlot(s), Err: ErrTruncated}
		}

		e := &a.Entries[s]
		copy(e.TextureHeader[:], b[rec+12:rec+EntrySize])
		e.VideoData = append([]byte(nil), b[pos:end]...)
		pos = end
	}
	return a, nil
}
