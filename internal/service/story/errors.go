package story

import "errors"

var (
	// ErrExpansionFailed 故事扩写在重试用尽后仍然失败（致命）
	ErrExpansionFailed = errors.New("story expansion failed")
	// ErrEmptyIdea 故事想法为空
	ErrEmptyIdea = errors.New("story idea is empty")
	// ErrInvalidDuration 时长不是正数
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	// ErrMissingInput 合并所需的输入文件不存在
	ErrMissingInput = errors.New("input file not found")
	// ErrMissingAudio 没有可用的旁白音频（TTS 没有返回音频，只有文本降级文件）
	ErrMissingAudio = errors.New("narration audio missing")
	// ErrInvalidRunID 运行ID不是单独一段目录名
	ErrInvalidRunID = errors.New("run id must be a single path segment")
	// ErrRunExists 运行目录已存在，拒绝覆盖之前的输出
	ErrRunExists = errors.New("run already exists")
)
