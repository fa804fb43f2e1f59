package storytools

import (
	"fmt"
	"strconv"
	"strings"
)

// 提示词文件标签
const (
	LabelImagePrompt   = "IMAGE GENERATION PROMPT"
	LabelVideoPrompt   = "VIDEO GENERATION PROMPT"
	LabelSoundFXPrompt = "SOUND EFFECTS PROMPT"
)

// headerRule 提示词文件标题下的分隔线
var headerRule = strings.Repeat("=", 80)

// ExpandStoryPrompt 构造故事扩写提示词
// 要求模型只返回包含 sceneCount 个 {title, description} 的 JSON 数组
func ExpandStoryPrompt(idea string, sceneCount, clipSeconds int) string {
	var b strings.Builder
	b.WriteString("You are a professional storyteller and screenplay writer.\n\n")

	b.WriteString("User's Story Idea:\n")
	b.WriteString(strings.TrimSpace(idea))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Task: Expand this story into EXACTLY %d scenes. Each scene will be %d seconds long.\n\n", sceneCount, clipSeconds)

	b.WriteString("Requirements:\n")
	b.WriteString("1. Create a complete narrative arc with beginning, middle, and end\n")
	b.WriteString("2. Each scene should have:\n")
	b.WriteString("   - A clear title (2-5 words)\n")
	b.WriteString("   - A detailed description (2-3 sentences) that paints a vivid picture\n")
	b.WriteString("3. Maintain consistency and flow between scenes\n")
	b.WriteString("4. Include emotional beats and character development\n")
	b.WriteString("5. Make each scene visually interesting and cinematic\n")
	fmt.Fprintf(&b, "6. Ensure the story feels complete within the %d scenes\n\n", sceneCount)

	fmt.Fprintf(&b, "Return ONLY a JSON array with %d objects, each containing:\n", sceneCount)
	b.WriteString("- \"title\": Scene title\n")
	b.WriteString("- \"description\": Detailed scene description\n\n")

	b.WriteString("Example format:\n")
	b.WriteString(`[
  {
    "title": "Morning Awakening",
    "description": "Golden sunlight streams through the bedroom window. A young protagonist slowly opens their eyes, stretching as a new day full of possibilities begins."
  },
  ...
]`)
	b.WriteString("\n\n")
	b.WriteString("Do not wrap the JSON in markdown code fences and do not add any text before or after it.\n")
	fmt.Fprintf(&b, "Generate all %d scenes now.", sceneCount)

	return b.String()
}

// SceneDetailPrompt 构造单个场景的制作提示词请求
// 返回 JSON 对象：IMAGE_PROMPT、VIDEO_PROMPT、NARRATION_TEXT、NARRATION_VOICE_DIRECTION、SOUND_FX
func SceneDetailPrompt(title, description string, sceneNum, totalScenes, clipSeconds int) string {
	minWords, maxWords := NarrationWordRange(clipSeconds)

	var b strings.Builder
	fmt.Fprintf(&b, "Create ultra-detailed production prompts for this %d-second story scene:\n\n", clipSeconds)
	fmt.Fprintf(&b, "Scene %d of %d\n", sceneNum, totalScenes)
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Description: %s\n\n", description)

	b.WriteString("Generate the following with MAXIMUM detail:\n\n")

	b.WriteString("1. IMAGE_PROMPT: Ultra-detailed visual prompt (300+ words) including:\n")
	b.WriteString("   - Exact lighting conditions (time of day, light quality, color temperature, shadows, highlights)\n")
	b.WriteString("   - Precise camera angle, framing, composition (rule of thirds, golden ratio, etc.)\n")
	b.WriteString("   - Detailed environment description (every visible element, textures, materials)\n")
	b.WriteString("   - Color palette and mood (specific color codes, saturation, contrast)\n")
	b.WriteString("   - Character positioning, posture, expression, clothing details (if applicable)\n")
	b.WriteString("   - Background elements, props, and set dressing\n")
	b.WriteString("   - Artistic style (cinematic realism, stylized, atmospheric, etc.)\n")
	b.WriteString("   - Depth of field, focus points, bokeh quality\n")
	b.WriteString("   - Weather, atmosphere, air quality (fog, haze, clarity)\n\n")

	b.WriteString("2. VIDEO_PROMPT: Detailed animation/motion prompt (200+ words) including:\n")
	b.WriteString("   - Specific camera movements (smooth pan, tilt, dolly, crane, tracking shots)\n")
	b.WriteString("   - Speed and acceleration of camera movements\n")
	b.WriteString("   - Character movements, gestures, actions with precise timing\n")
	b.WriteString("   - Environmental animations (wind, particles, light changes, shadows)\n")
	b.WriteString("   - Transition effects (if applicable)\n")
	fmt.Fprintf(&b, "   - Pacing and rhythm within the %d seconds\n", clipSeconds)
	fmt.Fprintf(&b, "   - Key moments at %s timestamps\n", keyMoments(clipSeconds))
	b.WriteString("   - Cinematic techniques (slow motion, speed ramps, parallax)\n")
	b.WriteString("   - Movement flow and continuity\n\n")

	fmt.Fprintf(&b, "3. NARRATION_TEXT: Engaging %d-second narration (%d-%d words, 2-3 sentences)\n", clipSeconds, minWords, maxWords)
	b.WriteString("   - Warm, engaging storytelling voice\n")
	b.WriteString("   - Emotional resonance matching scene mood\n")
	b.WriteString("   - Connects to visual action\n")
	fmt.Fprintf(&b, "   - Proper pacing for %d-second delivery\n", clipSeconds)
	b.WriteString("   - Natural, conversational tone\n\n")

	b.WriteString("4. NARRATION_VOICE_DIRECTION: Detailed TTS voice direction including:\n")
	b.WriteString("   - Specific tone and emotion (e.g., \"warm and hopeful\", \"tense and urgent\")\n")
	b.WriteString("   - Pacing instructions (speed: slow/medium/fast, where to pause)\n")
	b.WriteString("   - Voice character (age, energy level, personality traits)\n")
	b.WriteString("   - Specific words or phrases to emphasize\n")
	b.WriteString("   - Volume dynamics (soft, building, powerful)\n")
	fmt.Fprintf(&b, "   - Overall emotional arc within the %d seconds\n\n", clipSeconds)

	b.WriteString("5. SOUND_FX: Comprehensive sound design (150+ words) including:\n")
	b.WriteString("   - Detailed ambient sounds (environment, room tone, nature)\n")
	b.WriteString("   - Action-specific sound effects with timing\n")
	b.WriteString("   - Foley details (footsteps, clothing, objects)\n")
	b.WriteString("   - Music style, instruments, tempo, mood\n")
	b.WriteString("   - Audio transitions and fades\n")
	b.WriteString("   - Spatial audio considerations (stereo positioning)\n")
	b.WriteString("   - Emotional impact through sound\n")
	b.WriteString("   - Volume levels and mixing notes\n\n")

	b.WriteString("Return ONLY a JSON object with these 5 fields as plain strings, no additional text.")

	return b.String()
}

// NarrationWordRange 按约 3 词/秒的语速估算旁白字数范围（8 秒对应 20-25 词）
func NarrationWordRange(clipSeconds int) (int, int) {
	minWords := clipSeconds * 5 / 2
	maxWords := clipSeconds*3 + 1
	if minWords < 3 {
		minWords = 3
	}
	if maxWords <= minWords {
		maxWords = minWords + 2
	}
	return minWords, maxWords
}

// keyMoments 把片段五等分的时间点，如 "0s, 2s, 4s, 6s, 8s"
func keyMoments(clipSeconds int) string {
	moments := make([]string, 0, 5)
	for i := 0; i <= 4; i++ {
		at := float64(clipSeconds) * float64(i) / 4
		moments = append(moments, strconv.FormatFloat(at, 'f', -1, 64)+"s")
	}
	return strings.Join(moments, ", ")
}

// TTSPrompt 构造带语气指令的 TTS 提示词
func TTSPrompt(voiceDirection, narration string, clipSeconds int) string {
	return fmt.Sprintf("Voice Direction: %s\n\nNarration: %s\n\nDeliver this narration with the specified voice direction, paced for %d seconds.",
		strings.TrimSpace(voiceDirection), strings.TrimSpace(narration), clipSeconds)
}

// FallbackSceneDetails 模型持续失败时，根据标题和描述生成模板化的场景提示词
func FallbackSceneDetails(title, description string, clipSeconds int) *SceneDetails {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	return &SceneDetails{
		ImagePrompt: fmt.Sprintf("Cinematic still, %s. %s "+
			"Dramatic natural lighting with soft shadows, rule-of-thirds composition, "+
			"richly detailed environment and textures, shallow depth of field, "+
			"cohesive color palette matching the mood, photorealistic, 16:9 frame.", title, description),
		VideoPrompt: fmt.Sprintf("%d-second cinematic shot of %s. %s "+
			"Slow, smooth camera push-in, subtle environmental motion (wind, particles, shifting light), "+
			"natural character movement, steady pacing that settles on the key moment at %ds.",
			clipSeconds, title, description, clipSeconds),
		NarrationText:           description,
		NarrationVoiceDirection: fmt.Sprintf("Warm, steady storytelling voice at a medium pace, paced for %d seconds.", clipSeconds),
		SoundFX: fmt.Sprintf("Ambient soundscape for %s: %s "+
			"Layered room tone or nature ambience, light foley matching the on-screen action, "+
			"a soft cinematic underscore that fades in and out.", title, description),
	}
}

// RenderPromptFile 渲染单个提示词文件的内容
//
//	SCENE 3: The Storm
//	================================================================================
//
//	IMAGE GENERATION PROMPT
//
//	<prompt text>
func RenderPromptFile(sceneNum int, title, label, text string) string {
	return fmt.Sprintf("SCENE %d: %s\n%s\n\n%s\n\n%s", sceneNum, title, headerRule, label, text)
}

// RenderNarrationFallback 渲染旁白降级文本文件
// ttsPrompt 和 cause 二选一：没有音频时写 TTS 提示词，出错时写错误信息
func RenderNarrationFallback(sceneNum int, title, narration, voiceDirection, ttsPrompt string, cause error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SCENE %d: %s\n\n", sceneNum, title)
	fmt.Fprintf(&b, "NARRATION TEXT:\n%s\n\n", narration)
	fmt.Fprintf(&b, "VOICE DIRECTION:\n%s\n\n", voiceDirection)
	if cause != nil {
		fmt.Fprintf(&b, "ERROR: %v\n", cause)
	} else {
		fmt.Fprintf(&b, "TTS PROMPT:\n%s\n", ttsPrompt)
	}
	return b.String()
}
