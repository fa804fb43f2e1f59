package storytools

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoJSON 响应中找不到 JSON 内容
	ErrNoJSON = errors.New("no JSON content in response")
	// ErrTooFewScenes 模型返回的场景数少于要求
	ErrTooFewScenes = errors.New("too few scenes in response")
)

// SceneOutline 扩写结果中的单个场景
type SceneOutline struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SceneDetails 单个场景的制作提示词
// 字段名与模型返回的 JSON 键保持一致
type SceneDetails struct {
	ImagePrompt             string `json:"IMAGE_PROMPT"`
	VideoPrompt             string `json:"VIDEO_PROMPT"`
	NarrationText           string `json:"NARRATION_TEXT"`
	NarrationVoiceDirection string `json:"NARRATION_VOICE_DIRECTION"`
	SoundFX                 string `json:"SOUND_FX"`
}

// sceneDetailsJSON 宽松解析：字段可能被模型写成数组或对象
type sceneDetailsJSON struct {
	ImagePrompt             flexText `json:"IMAGE_PROMPT"`
	VideoPrompt             flexText `json:"VIDEO_PROMPT"`
	NarrationText           flexText `json:"NARRATION_TEXT"`
	NarrationVoiceDirection flexText `json:"NARRATION_VOICE_DIRECTION"`
	SoundFX                 flexText `json:"SOUND_FX"`
}

// flexText 接受字符串、字符串数组或任意 JSON 值
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = flexText(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = flexText(strings.Join(list, "\n"))
		return nil
	}

	if string(data) == "null" {
		*t = ""
		return nil
	}

	// 对象等其他结构原样保留为紧凑 JSON
	*t = flexText(strings.TrimSpace(string(data)))
	return nil
}

var markdownFence = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// CleanJSONContent 清理 LLM 返回的 JSON 内容
// 移除 markdown 代码块标记（取第一个代码块），并去掉首尾空白
func CleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if matches := markdownFence.FindStringSubmatch(content); len(matches) > 1 {
		content = matches[1]
	}

	// 没有闭合的代码块标记
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	return strings.TrimSpace(content)
}

// extractJSON 截取从第一个 open 到最后一个 close 之间的内容
func extractJSON(content string, open, close byte) (string, bool) {
	start := strings.IndexByte(content, open)
	end := strings.LastIndexByte(content, close)
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// ParseSceneOutline 解析故事扩写结果
// 多于 want 个场景时截断；少于 want 个返回 ErrTooFewScenes
// 也接受 {"scenes": [...]} 形式的包装对象
func ParseSceneOutline(content string, want int) ([]SceneOutline, error) {
	cleaned := CleanJSONContent(content)

	var scenes []SceneOutline
	if raw, ok := extractJSON(cleaned, '[', ']'); ok && !strings.HasPrefix(cleaned, "{") {
		if err := json.Unmarshal([]byte(raw), &scenes); err != nil {
			return nil, fmt.Errorf("parse scene outline: %w", err)
		}
	} else if raw, ok := extractJSON(cleaned, '{', '}'); ok {
		var wrapped struct {
			Scenes []SceneOutline `json:"scenes"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("parse scene outline: %w", err)
		}
		scenes = wrapped.Scenes
	} else {
		return nil, ErrNoJSON
	}

	for i := range scenes {
		scenes[i].Title = strings.TrimSpace(scenes[i].Title)
		scenes[i].Description = strings.TrimSpace(scenes[i].Description)
		if scenes[i].Title == "" && scenes[i].Description == "" {
			return nil, fmt.Errorf("parse scene outline: scene %d is empty", i+1)
		}
		if scenes[i].Title == "" {
			scenes[i].Title = fmt.Sprintf("Scene %d", i+1)
		}
	}

	if len(scenes) < want {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrTooFewScenes, want, len(scenes))
	}
	if want > 0 && len(scenes) > want {
		scenes = scenes[:want]
	}

	return scenes, nil
}

// ParseSceneDetails 解析单个场景的制作提示词
// IMAGE_PROMPT、VIDEO_PROMPT、NARRATION_TEXT、SOUND_FX 必须非空，NARRATION_VOICE_DIRECTION 可为空
func ParseSceneDetails(content string) (*SceneDetails, error) {
	raw, ok := extractJSON(CleanJSONContent(content), '{', '}')
	if !ok {
		return nil, ErrNoJSON
	}

	var parsed sceneDetailsJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse scene details: %w", err)
	}

	details := &SceneDetails{
		ImagePrompt:             strings.TrimSpace(string(parsed.ImagePrompt)),
		VideoPrompt:             strings.TrimSpace(string(parsed.VideoPrompt)),
		NarrationText:           strings.TrimSpace(string(parsed.NarrationText)),
		NarrationVoiceDirection: strings.TrimSpace(string(parsed.NarrationVoiceDirection)),
		SoundFX:                 strings.TrimSpace(string(parsed.SoundFX)),
	}

	var missing []string
	if details.ImagePrompt == "" {
		missing = append(missing, "IMAGE_PROMPT")
	}
	if details.VideoPrompt == "" {
		missing = append(missing, "VIDEO_PROMPT")
	}
	if details.NarrationText == "" {
		missing = append(missing, "NARRATION_TEXT")
	}
	if details.SoundFX == "" {
		missing = append(missing, "SOUND_FX")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("parse scene details: missing %s", strings.Join(missing, ", "))
	}

	return details, nil
}
