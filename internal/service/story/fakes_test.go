package story

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"storyreel/internal/pkg/retry"
	"storyreel/internal/pkg/storage/local"
	"storyreel/internal/pkg/storytools"
)

// fakeLLM 根据提示词类型返回扩写结果或场景详情
type fakeLLM struct {
	mu         sync.Mutex
	outline    func(call int) (string, error)
	details    func(call int) (string, error)
	outlineN   int
	detailsN   int
	lastPrompt string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPrompt = prompt

	if strings.HasPrefix(prompt, "You are a professional storyteller") {
		f.outlineN++
		if f.outline == nil {
			return "", errors.New("outline not configured")
		}
		return f.outline(f.outlineN)
	}

	f.detailsN++
	if f.details == nil {
		return validDetails(f.detailsN), nil
	}
	return f.details(f.detailsN)
}

// outlineJSON 生成 n 个场景的扩写响应
func outlineJSON(n int) string {
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, fmt.Sprintf(`{"title": "Scene Title %d", "description": "Description of scene %d."}`, i, i))
	}
	return "```json\n[" + strings.Join(parts, ",\n") + "]\n```"
}

func validDetails(call int) string {
	return fmt.Sprintf(`{
  "IMAGE_PROMPT": "image prompt %d",
  "VIDEO_PROMPT": "video prompt %d",
  "NARRATION_TEXT": "narration %d",
  "NARRATION_VOICE_DIRECTION": "warm and hopeful",
  "SOUND_FX": "sound fx %d"
}`, call, call, call, call)
}

// fakeTTS 按调用次数返回结果
type fakeTTS struct {
	mu       sync.Mutex
	respond  func(call int, req storytools.SpeechRequest) (*storytools.SpeechResult, error)
	calls    int
	requests []storytools.SpeechRequest
}

func (f *fakeTTS) Synthesize(ctx context.Context, req storytools.SpeechRequest) (*storytools.SpeechResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	if f.respond == nil {
		return &storytools.SpeechResult{AudioData: []byte("audio"), Format: "mp3"}, nil
	}
	return f.respond(f.calls, req)
}

type fakeImage struct {
	err error
}

func (f *fakeImage) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jpeg:" + prompt), nil
}

type fakeVideo struct {
	err     error
	seconds int
}

func (f *fakeVideo) GenerateVideo(ctx context.Context, image []byte, prompt string, seconds int) ([]byte, error) {
	f.seconds = seconds
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp4"), nil
}

// testSettings 不等待、不退避
func testSettings() Settings {
	return Settings{
		RunID:       "run-test",
		ClipSeconds: 8,
		LLMRetry:    retry.Policy{MaxAttempts: 3},
		TTSRetry:    retry.Policy{MaxAttempts: 2},
	}
}

func newTestRun(t *testing.T) (*Run, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := local.NewLocalStorage(dir, "")
	if err != nil {
		t.Fatalf("create local storage: %v", err)
	}
	return NewRun("run-test", store), filepath.Join(dir, "run-test")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
