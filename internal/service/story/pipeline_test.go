package story

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	storymodel "storyreel/internal/model/story"
	"storyreel/internal/pkg/storage/local"
	"storyreel/internal/pkg/storytools"
)

func TestPipeline_Run(t *testing.T) {
	Convey("完整流水线", t, func() {
		dir := t.TempDir()
		store, err := local.NewLocalStorage(dir, "")
		So(err, ShouldBeNil)
		ctx := context.Background()
		runDir := filepath.Join(dir, "run-test")

		llm := &fakeLLM{outline: func(int) (string, error) { return outlineJSON(4), nil }}

		Convey("第 2 个场景没有音频时继续处理后续场景", func() {
			tts := &fakeTTS{respond: func(call int, _ storytools.SpeechRequest) (*storytools.SpeechResult, error) {
				if call == 2 {
					return &storytools.SpeechResult{}, nil
				}
				return &storytools.SpeechResult{AudioData: []byte("mp3"), Format: "mp3"}, nil
			}}
			pipeline := NewPipeline(Deps{Storage: store, LLM: llm, TTS: tts}, testSettings())

			summary, err := pipeline.Run(ctx, "A robot learns to dance", 0.5)
			So(err, ShouldBeNil)
			So(summary.RunID, ShouldEqual, "run-test")
			So(summary.Scenes, ShouldEqual, 4)
			So(summary.PromptFiles, ShouldHaveLength, 12)
			So(summary.PromptFallbacks, ShouldEqual, 0)
			So(summary.AudioFiles, ShouldResemble, []string{
				"narration/narration_01.mp3",
				"narration/narration_03.mp3",
				"narration/narration_04.mp3",
			})
			So(summary.FallbackFiles, ShouldResemble, []string{"narration/narration_02.txt"})
			So(summary.StoryLocation, ShouldEqual, filepath.Join(runDir, "story_data", "expanded_story.json"))
			So(summary.PromptsLocation, ShouldEqual, filepath.Join(runDir, "story_data", "all_scene_prompts.json"))

			for _, name := range []string{"scene_01_IMAGE.txt", "scene_04_VIDEO.txt", "scene_02_SOUNDFX.txt"} {
				So(fileExists(filepath.Join(runDir, "prompts", name)), ShouldBeTrue)
			}
			So(fileExists(filepath.Join(runDir, "narration", "narration_02.txt")), ShouldBeTrue)
			So(fileExists(filepath.Join(runDir, "narration", "narration_02.mp3")), ShouldBeFalse)

			Convey("all_scene_prompts.json 记录每个场景的提示词和旁白状态", func() {
				var scenes []*storymodel.Scene
				So(json.Unmarshal([]byte(readFile(t, summary.PromptsLocation)), &scenes), ShouldBeNil)
				So(scenes, ShouldHaveLength, 4)
				So(scenes[0].ImagePrompt, ShouldEqual, "image prompt 1")
				So(scenes[1].NarrationStatus, ShouldEqual, storymodel.NarrationFallback)
				So(scenes[3].NarrationAudioKey, ShouldEqual, "narration/narration_04.mp3")
			})
		})

		Convey("开启素材阶段", func() {
			settings := testSettings()
			settings.Assets = true
			pipeline := NewPipeline(Deps{Storage: store, LLM: llm, TTS: &fakeTTS{}, Image: &fakeImage{}, Video: &fakeVideo{}}, settings)

			summary, err := pipeline.Run(ctx, "idea", 0.5)
			So(err, ShouldBeNil)
			So(summary.Images, ShouldEqual, 4)
			So(summary.Videos, ShouldEqual, 4)
			So(fileExists(filepath.Join(runDir, "videos", "clip_03.mp4")), ShouldBeTrue)
		})

		Convey("扩写失败是致命错误", func() {
			failing := &fakeLLM{outline: func(int) (string, error) { return "", errors.New("bad key") }}
			pipeline := NewPipeline(Deps{Storage: store, LLM: failing, TTS: &fakeTTS{}}, testSettings())

			summary, err := pipeline.Run(ctx, "idea", 0.5)
			So(errors.Is(err, ErrExpansionFailed), ShouldBeTrue)
			So(summary, ShouldBeNil)
			_, statErr := os.Stat(filepath.Join(runDir, "prompts"))
			So(os.IsNotExist(statErr), ShouldBeTrue)
		})

		Convey("未指定运行ID时按时间生成", func() {
			settings := testSettings()
			settings.RunID = ""
			pipeline := NewPipeline(Deps{Storage: store, LLM: llm, TTS: &fakeTTS{}}, settings)
			pipeline.now = func() time.Time { return time.Date(2025, 1, 15, 14, 30, 22, 0, time.Local) }

			summary, err := pipeline.Run(ctx, "idea", 0.5)
			So(err, ShouldBeNil)
			So(summary.RunID, ShouldStartWith, "20250115-143022-")
			So(fileExists(filepath.Join(dir, summary.RunID, "story_data", "expanded_story.json")), ShouldBeTrue)
		})

		Convey("运行ID必须是输出目录下的一段目录名", func() {
			for _, runID := range []string{"../escaped", "nested/run", "..", "   "} {
				settings := testSettings()
				settings.RunID = runID
				summary, err := NewPipeline(Deps{Storage: store, LLM: llm, TTS: &fakeTTS{}}, settings).Run(ctx, "idea", 0.5)
				So(errors.Is(err, ErrInvalidRunID), ShouldBeTrue)
				So(summary, ShouldBeNil)
			}
			So(llm.outlineN, ShouldEqual, 0)
			So(fileExists(filepath.Join(filepath.Dir(dir), "escaped")), ShouldBeFalse)
		})

		Convey("同一个运行ID不能重复使用", func() {
			first, err := NewPipeline(Deps{Storage: store, LLM: llm, TTS: &fakeTTS{}}, testSettings()).Run(ctx, "first idea", 0.5)
			So(err, ShouldBeNil)
			story := readFile(t, first.StoryLocation)

			summary, err := NewPipeline(Deps{Storage: store, LLM: llm, TTS: &fakeTTS{}}, testSettings()).Run(ctx, "second idea", 0.5)
			So(errors.Is(err, ErrRunExists), ShouldBeTrue)
			So(summary, ShouldBeNil)
			So(llm.outlineN, ShouldEqual, 1)
			So(readFile(t, first.StoryLocation), ShouldEqual, story)
		})

		Convey("运行目录已存在但为空时同样拒绝", func() {
			So(os.MkdirAll(runDir, 0o755), ShouldBeNil)
			_, err := NewPipeline(Deps{Storage: store, LLM: llm, TTS: &fakeTTS{}}, testSettings()).Run(ctx, "idea", 0.5)
			So(errors.Is(err, ErrRunExists), ShouldBeTrue)
		})

		Convey("缺少存储", func() {
			_, err := NewPipeline(Deps{LLM: llm}, testSettings()).Run(ctx, "idea", 1)
			So(err, ShouldNotBeNil)
		})
	})
}
