// Package tts 封装文本转语音 HTTP 接口（火山引擎 openspeech、Gemini TTS）
package tts

import "fmt"

// Result TTS 生成结果
//
// 接口调用成功但响应中没有音频时 AudioData 为空、err 为 nil，
// 由调用方决定降级方式；传输或接口错误则通过 error 返回
type Result struct {
	AudioData  []byte  // 音频数据
	Format     string  // 文件格式: mp3 / wav
	SampleRate int     // 采样率
	Duration   float64 // 音频时长（秒，接口未返回时为 0）
}

// HasAudio 响应中是否带有音频数据
func (r *Result) HasAudio() bool {
	return r != nil && len(r.AudioData) > 0
}

// APIError 接口返回的非成功状态
type APIError struct {
	StatusCode int    // HTTP 状态码
	Code       int    // 业务错误码（火山引擎）
	Message    string // 错误信息或响应体
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("tts api error: %s (code: %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("tts api error: status %d: %s", e.StatusCode, e.Message)
}
