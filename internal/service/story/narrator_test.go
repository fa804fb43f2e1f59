package story

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	storymodel "storyreel/internal/model/story"
	"storyreel/internal/pkg/storytools"
)

func newNarratedScene() *storymodel.Scene {
	return &storymodel.Scene{
		Number:                  2,
		Title:                   "First Steps",
		NarrationText:           "It had never danced before.",
		NarrationVoiceDirection: "soft and curious",
	}
}

func TestNarrator_Synthesize(t *testing.T) {
	Convey("旁白合成", t, func() {
		run, runDir := newTestRun(t)
		ctx := context.Background()

		Convey("有音频时写入 narration_NN.<format>", func() {
			tts := &fakeTTS{respond: func(int, storytools.SpeechRequest) (*storytools.SpeechResult, error) {
				return &storytools.SpeechResult{AudioData: []byte("RIFFdata"), Format: "wav"}, nil
			}}
			scene := newNarratedScene()

			So(NewNarrator(run, tts, nil, testSettings()).Synthesize(ctx, scene), ShouldBeNil)
			So(scene.NarrationStatus, ShouldEqual, storymodel.NarrationAudio)
			So(scene.NarrationAudioKey, ShouldEqual, "narration/narration_02.wav")
			So(readFile(t, filepath.Join(runDir, "narration", "narration_02.wav")), ShouldEqual, "RIFFdata")

			So(tts.requests, ShouldHaveLength, 1)
			So(tts.requests[0].Text, ShouldEqual, "It had never danced before.")
			So(tts.requests[0].Prompt, ShouldEqual, storytools.TTSPrompt("soft and curious", "It had never danced before.", 8))
		})

		Convey("发给 TTS 的文本只去掉表演提示，保留强调和插入语", func() {
			tts := &fakeTTS{}
			scene := newNarratedScene()
			scene.NarrationText = "(softly) She was *very* happy (and a little scared) to dance."

			So(NewNarrator(run, tts, nil, testSettings()).Synthesize(ctx, scene), ShouldBeNil)
			So(tts.requests, ShouldHaveLength, 1)
			So(tts.requests[0].Text, ShouldEqual, "She was very happy (and a little scared) to dance.")
		})

		Convey("没有音频时不重试，写入带 TTS 提示词的文本文件", func() {
			tts := &fakeTTS{respond: func(int, storytools.SpeechRequest) (*storytools.SpeechResult, error) {
				return &storytools.SpeechResult{}, nil
			}}
			scene := newNarratedScene()

			So(NewNarrator(run, tts, nil, testSettings()).Synthesize(ctx, scene), ShouldBeNil)
			So(tts.calls, ShouldEqual, 1)
			So(scene.NarrationStatus, ShouldEqual, storymodel.NarrationFallback)
			So(scene.NarrationFallbackKey, ShouldEqual, "narration/narration_02.txt")

			content := readFile(t, filepath.Join(runDir, "narration", "narration_02.txt"))
			So(content, ShouldStartWith, "SCENE 2: First Steps\n\nNARRATION TEXT:\nIt had never danced before.\n")
			So(content, ShouldContainSubstring, "VOICE DIRECTION:\nsoft and curious")
			So(content, ShouldContainSubstring, "TTS PROMPT:\nVoice Direction: soft and curious")
			So(content, ShouldNotContainSubstring, "ERROR:")
			So(fileExists(filepath.Join(runDir, "narration", "narration_02.mp3")), ShouldBeFalse)
		})

		Convey("接口持续失败时重试后写入带错误信息的文本文件", func() {
			tts := &fakeTTS{respond: func(int, storytools.SpeechRequest) (*storytools.SpeechResult, error) {
				return nil, errors.New("service unavailable")
			}}
			scene := newNarratedScene()

			So(NewNarrator(run, tts, nil, testSettings()).Synthesize(ctx, scene), ShouldBeNil)
			So(tts.calls, ShouldEqual, 2)
			So(scene.NarrationStatus, ShouldEqual, storymodel.NarrationFallback)

			content := readFile(t, filepath.Join(runDir, "narration", "narration_02.txt"))
			So(content, ShouldContainSubstring, "ERROR: ")
			So(content, ShouldContainSubstring, "service unavailable")
			So(content, ShouldNotContainSubstring, "TTS PROMPT")
		})

		Convey("失败一次后重试成功", func() {
			tts := &fakeTTS{respond: func(call int, _ storytools.SpeechRequest) (*storytools.SpeechResult, error) {
				if call == 1 {
					return nil, errors.New("timeout")
				}
				return &storytools.SpeechResult{AudioData: []byte("mp3"), Format: "mp3"}, nil
			}}
			scene := newNarratedScene()

			So(NewNarrator(run, tts, nil, testSettings()).Synthesize(ctx, scene), ShouldBeNil)
			So(tts.calls, ShouldEqual, 2)
			So(scene.NarrationAudioKey, ShouldEqual, "narration/narration_02.mp3")
		})

		Convey("旁白文本为空时直接降级", func() {
			tts := &fakeTTS{}
			scene := newNarratedScene()
			scene.NarrationText = "  "

			So(NewNarrator(run, tts, nil, testSettings()).Synthesize(ctx, scene), ShouldBeNil)
			So(tts.calls, ShouldEqual, 0)
			So(scene.NarrationStatus, ShouldEqual, storymodel.NarrationFallback)
		})

		Convey("ctx 取消时返回错误且不写文件", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			scene := newNarratedScene()

			err := NewNarrator(run, &fakeTTS{}, nil, testSettings()).Synthesize(cancelled, scene)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(fileExists(filepath.Join(runDir, "narration", "narration_02.txt")), ShouldBeFalse)
		})
	})
}

func TestAssetGenerator_Generate(t *testing.T) {
	Convey("素材生成", t, func() {
		run, runDir := newTestRun(t)
		ctx := context.Background()
		scene := &storymodel.Scene{Number: 1, Title: "Dawn", ImagePrompt: "sunrise", VideoPrompt: "slow pan"}

		Convey("图片和视频都写入运行目录", func() {
			video := &fakeVideo{}
			So(NewAssetGenerator(run, &fakeImage{}, video, nil, testSettings()).Generate(ctx, scene), ShouldBeNil)
			So(scene.ImageKey, ShouldEqual, "images/clip_01.jpeg")
			So(scene.VideoKey, ShouldEqual, "videos/clip_01.mp4")
			So(readFile(t, filepath.Join(runDir, "images", "clip_01.jpeg")), ShouldEqual, "jpeg:sunrise")
			So(video.seconds, ShouldEqual, 8)
		})

		Convey("图片失败时跳过，不返回错误", func() {
			So(NewAssetGenerator(run, &fakeImage{err: errors.New("rejected")}, &fakeVideo{}, nil, testSettings()).Generate(ctx, scene), ShouldBeNil)
			So(scene.ImageKey, ShouldBeEmpty)
			So(scene.VideoKey, ShouldBeEmpty)
		})

		Convey("视频失败时保留图片", func() {
			So(NewAssetGenerator(run, &fakeImage{}, &fakeVideo{err: errors.New("task failed")}, nil, testSettings()).Generate(ctx, scene), ShouldBeNil)
			So(scene.ImageKey, ShouldNotBeEmpty)
			So(scene.VideoKey, ShouldBeEmpty)
		})
	})
}
