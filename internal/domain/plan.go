package domain

// RuntThreshold 是产物体积下限（字节）。已存在的 .asset 小于该值时
// 视为上次转换的残次品，即使未指定 overwrite 也重新构建。
const RuntThreshold = 10240

// SlotSource 把一个图源文件绑定到一个目标槽位。
type SlotSource struct {
	Slot   AssetSlot
	SrcAbs string
}

// ConvertJob 规划一种资产文件的构建（只描述输入输出；不做任何写入）。
//
// Sources 保持导入顺序：GL 先 banner 后 icon，失败报告按此顺序归因。
type ConvertJob struct {
	Kind    Kind
	OutAbs  string
	Rebuild bool // 产物已存在但小于 RuntThreshold：按残次品重建
	Sources []SlotSource
}

// FolderPlan 是对一个素材目录的确定性转换计划。
type FolderPlan struct {
	Dir     string
	TitleID string
	OutDir  string

	Jobs    []ConvertJob
	Skipped []Kind   // 产物已存在且未指定 overwrite
	Missing []Kind   // 未发现图源（GL 要求 banner 与 icon 齐备）
	Excess  []string // 超出截图槽上限被忽略的文件名
}
