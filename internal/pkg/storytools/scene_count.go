package storytools

import "math"

const (
	// DefaultClipSeconds 单个片段默认时长（秒）
	DefaultClipSeconds = 8
	// LongDurationMinutes 超过该时长（分钟）会给出提示
	LongDurationMinutes = 30
)

// SceneCount 根据总时长（分钟）和片段时长（秒）计算场景数
// 向上取整保证 场景数 × 片段时长 >= 总时长，至少 1 个
func SceneCount(durationMinutes float64, clipSeconds int) int {
	if durationMinutes <= 0 || clipSeconds <= 0 {
		return 0
	}

	// 先按微秒取整，避免 0.1 分钟这类输入的浮点误差导致多出一个场景
	totalSeconds := math.Round(durationMinutes*60*1e6) / 1e6
	n := int(math.Ceil(totalSeconds/float64(clipSeconds) - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// TotalSeconds 场景数对应的总时长（秒）
func TotalSeconds(sceneCount, clipSeconds int) int {
	return sceneCount * clipSeconds
}
