package domain

// Kind 是资产文件的 2 字母类别前缀（文件名形如 <Kind><TitleID>.asset）。
//
// 约束：四种前缀是封闭集合；新增类别意味着磁盘命名约定变更，
// 必须同步调整审计期望表。
type Kind string

const (
	KindBackground  Kind = "BK" // 背景（槽位 4）
	KindBoxart      Kind = "GC" // 封面（槽位 2）
	KindBannerIcon  Kind = "GL" // banner + icon（槽位 0/1）
	KindScreenshots Kind = "SS" // 截图（槽位 5..9）
)

// KindInfo 描述一个类别的审计期望。
//
// - Slots 是该类别文件里应当被占用的槽位集合（配对表）；
//   占用了集合之外的槽位按 Invalid metadata 处理。
// - ExpectedEntries 是占用槽位数的期望值。
// - SizeThreshold 是对照参考资产集的文件总大小（字节）；
//   大小检查是可选回归启发式，默认关闭。
type KindInfo struct {
	Slots           []AssetSlot
	ExpectedEntries int
	SizeThreshold   int64
}

var kindTable = map[Kind]KindInfo{
	KindBackground: {
		Slots:           []AssetSlot{SlotBackground},
		ExpectedEntries: 1,
		SizeThreshold:   983040,
	},
	KindBoxart: {
		Slots:           []AssetSlot{SlotBoxart},
		ExpectedEntries: 1,
		SizeThreshold:   655360,
	},
	KindBannerIcon: {
		Slots:           []AssetSlot{SlotIcon, SlotBanner},
		ExpectedEntries: 2,
		SizeThreshold:   83968,
	},
	KindScreenshots: {
		// 参考资产集固定 5 张截图；槽位 10..24 对容器合法，
		// 但审计按未预期槽位报告。
		Slots: []AssetSlot{
			SlotScreenshot1, SlotScreenshot1 + 1, SlotScreenshot1 + 2,
			SlotScreenshot1 + 3, SlotScreenshot1 + 4,
		},
		ExpectedEntries: 5,
		SizeThreshold:   3276800,
	},
}

// ParseKind 解析 2 字母前缀；未知前缀返回 false。
func ParseKind(prefix string) (Kind, bool) {
	k := Kind(prefix)
	_, ok := kindTable[k]
	return k, ok
}

// Info 返回类别的审计期望；未知类别返回 false。
func (k Kind) Info() (KindInfo, bool) {
	info, ok := kindTable[k]
	return info, ok
}

// Expects 判断该类别文件里槽位 s 是否在配对表内。
func (k Kind) Expects(s AssetSlot) bool {
	info, ok := kindTable[k]
	if !ok {
		return false
	}
	for _, x := range info.Slots {
		if x == s {
			return true
		}
	}
	return false
}

// Kinds 返回全部类别（固定顺序：规划/报告遍历用）。
func Kinds() []Kind {
	return []Kind{KindBoxart, KindBackground, KindBannerIcon, KindScreenshots}
}
