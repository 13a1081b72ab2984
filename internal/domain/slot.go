package domain

import "fmt"

// AssetSlot 是条目表中的固定槽位（25 个，语义固定）。
//
// 槽位布局是磁盘格式的一部分，禁止调整：
// - 0..2：icon / banner / boxart
// - 3：保留槽（从未使用，但表中必须占位）
// - 4：background
// - 5..24：screenshot 1..20
type AssetSlot int

const (
	SlotIcon       AssetSlot = 0
	SlotBanner     AssetSlot = 1
	SlotBoxart     AssetSlot = 2
	SlotReserved   AssetSlot = 3
	SlotBackground AssetSlot = 4

	// SlotScreenshot1 是第一个截图槽；后续截图槽连续递增到 SlotScreenshotEnd。
	SlotScreenshot1   AssetSlot = 5
	SlotScreenshotEnd AssetSlot = 24

	// SlotCount 是条目表长度（不变量：序列化时必须恰好 25 条）。
	SlotCount = 25

	// ScreenshotMax 是截图槽数量上限。
	ScreenshotMax = 20
)

// 槽位占用时写入 flags 的固定位。icon 与 banner 共享同一位；
// 截图槽的位就是槽位下标本身（bit 5..24）。
const (
	FlagIconBanner uint32 = 0x01
	FlagBoxart     uint32 = 0x04
	FlagBackground uint32 = 0x10
)

// Signature 是纹理头末 4 字节的格式签名（审计用，容器本身不解释）。
type Signature [4]byte

// 已知资产集里观察到的签名常量。
var (
	SigIcon       = Signature{0x00, 0x07, 0xe0, 0x3f}
	SigBanner     = Signature{0x00, 0x0b, 0xe1, 0xa3}
	SigBoxart     = Signature{0x00, 0x4a, 0xe3, 0x83}
	SigBackground = Signature{0x00, 0x59, 0xe4, 0xff}
	SigScreenshot = Signature{0x00, 0x46, 0x23, 0xe7}
)

// SlotInfo 集中描述一个槽位的全部语义：占用时设置的 flag 位、
// 审计期望的签名、导入时的目标像素尺寸。
// 所有按槽分派的逻辑都查这张表，不允许散落的 if/switch。
type SlotInfo struct {
	Name      string
	Flag      uint32
	Signature Signature
	Width     int
	Height    int
}

var slotTable = [SlotCount]SlotInfo{
	SlotIcon:       {Name: "Icon", Flag: FlagIconBanner, Signature: SigIcon, Width: 64, Height: 64},
	SlotBanner:     {Name: "Banner", Flag: FlagIconBanner, Signature: SigBanner, Width: 420, Height: 96},
	SlotBoxart:     {Name: "Boxart", Flag: FlagBoxart, Signature: SigBoxart, Width: 900, Height: 600},
	SlotReserved:   {Name: "Reserved"},
	SlotBackground: {Name: "Background", Flag: FlagBackground, Signature: SigBackground, Width: 1280, Height: 720},
}

func init() {
	for s := SlotScreenshot1; s <= SlotScreenshotEnd; s++ {
		slotTable[s] = SlotInfo{
			Name:      fmt.Sprintf("Screenshot%d", s.ScreenshotOrdinal()),
			Flag:      1 << uint(s),
			Signature: SigScreenshot,
			Width:     1000,
			Height:    562,
		}
	}
}

// Valid 判断 s 是否是合法槽位下标。
func (s AssetSlot) Valid() bool { return s >= 0 && s < SlotCount }

// IsScreenshot 判断 s 是否为截图槽。
func (s AssetSlot) IsScreenshot() bool {
	return s >= SlotScreenshot1 && s <= SlotScreenshotEnd
}

// ScreenshotOrdinal 返回截图序号（1..20）；非截图槽返回 0。
func (s AssetSlot) ScreenshotOrdinal() int {
	if !s.IsScreenshot() {
		return 0
	}
	return int(s-SlotScreenshot1) + 1
}

// ScreenshotSlot 把截图序号（1..20）换回槽位。
func ScreenshotSlot(n int) (AssetSlot, bool) {
	if n < 1 || n > ScreenshotMax {
		return 0, false
	}
	return SlotScreenshot1 + AssetSlot(n-1), true
}

// Info 返回槽位语义表项；非法槽位返回零值。
func (s AssetSlot) Info() SlotInfo {
	if !s.Valid() {
		return SlotInfo{}
	}
	return slotTable[s]
}

func (s AssetSlot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("AssetSlot(%d)", int(s))
	}
	return slotTable[s].Name
}
