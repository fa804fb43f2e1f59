package storytools

import (
	"regexp"
	"strings"
)

var (
	// 括号内容，只有表演提示会被删除，其余原样朗读
	bracketed = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}|（[^）]*）|【[^】]*】`)
	// markdown 强调：去掉标记，保留文字
	emphasis        = regexp.MustCompile(`\*{1,2}([^*]+?)\*{1,2}`)
	extraSpaces     = regexp.MustCompile(`\s+`)
	spaceBeforePunc = regexp.MustCompile(`\s+([,.!?;:])`)
)

// cueWords 模型常夹带在旁白里的语气/停顿提示
var cueWords = map[string]bool{
	"pause": true, "pauses": true, "beat": true, "silence": true,
	"whisper": true, "whispers": true, "whispering": true, "whispered": true,
	"softly": true, "soft": true, "gently": true, "quietly": true, "slowly": true,
	"sigh": true, "sighs": true, "sighing": true,
	"laugh": true, "laughs": true, "laughing": true, "chuckles": true,
	"gasp": true, "gasps": true, "breath": true, "breathes": true, "inhales": true, "exhales": true,
	"excited": true, "excitedly": true, "sadly": true, "warmly": true, "dramatic": true, "dramatically": true,
	"tense": true, "urgently": true, "hopeful": true, "hopefully": true,
	"narrator": true, "music": true, "sfx": true,
}

// cueModifiers 只能和提示词一起出现的修饰词，如 [long pause]、(a soft sigh)
var cueModifiers = map[string]bool{
	"a": true, "long": true, "short": true, "brief": true, "small": true, "deep": true,
	"slight": true, "dramatic": true, "soft": true, "and": true, "then": true,
}

// isCue 括号内容是否整体为表演提示
func isCue(span string) bool {
	inner := strings.ToLower(strings.Trim(span, "()[]{}（）【】"))
	words := strings.FieldsFunc(inner, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '-' || r == '\t'
	})
	if len(words) == 0 || len(words) > 4 {
		return len(words) == 0
	}

	hasCue := false
	for _, w := range words {
		switch {
		case cueWords[w]:
			hasCue = true
		case cueModifiers[w]:
		default:
			return false
		}
	}
	return hasCue
}

// CleanNarration 去掉旁白中的表演提示和 markdown 标记，得到可直接朗读的文本
// 语气由 NARRATION_VOICE_DIRECTION 单独传给 TTS；括号里的普通插入语保留
func CleanNarration(text string) string {
	text = bracketed.ReplaceAllStringFunc(text, func(span string) string {
		if isCue(span) {
			return " "
		}
		return span
	})
	text = emphasis.ReplaceAllString(text, "$1")
	text = strings.NewReplacer("*", "", "&", " and ", "\"", "", "“", "", "”", "").Replace(text)
	text = extraSpaces.ReplaceAllString(text, " ")
	text = spaceBeforePunc.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
