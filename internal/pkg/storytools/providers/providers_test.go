package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"storyreel/internal/pkg/storytools"
	"storyreel/internal/pkg/tts"
)

// fakeChatModel 只实现 Generate，Stream/BindTools 不会被调用
type fakeChatModel struct {
	model.ChatModel
	reply    *schema.Message
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.received = input
	return f.reply, f.err
}

var (
	_ storytools.LLMProvider   = (*EinoProvider)(nil)
	_ storytools.LLMProvider   = (*ArkProvider)(nil)
	_ storytools.TTSProvider   = (*VolcengineTTSProvider)(nil)
	_ storytools.TTSProvider   = (*GeminiTTSProvider)(nil)
	_ storytools.ImageProvider = (*ArkImageProvider)(nil)
	_ storytools.VideoProvider = (*ArkVideoProvider)(nil)
)

func TestEinoProvider_Generate(t *testing.T) {
	Convey("EinoProvider", t, func() {
		ctx := context.Background()

		Convey("以用户消息发送提示词并返回内容", func() {
			fake := &fakeChatModel{reply: schema.AssistantMessage(`[{"title":"A"}]`, nil)}
			text, err := NewEinoProvider(fake).Generate(ctx, "expand this")
			So(err, ShouldBeNil)
			So(text, ShouldEqual, `[{"title":"A"}]`)
			So(fake.received, ShouldHaveLength, 1)
			So(fake.received[0].Role, ShouldEqual, schema.User)
			So(fake.received[0].Content, ShouldEqual, "expand this")
		})

		Convey("空响应视为错误", func() {
			fake := &fakeChatModel{reply: schema.AssistantMessage("", nil)}
			_, err := NewEinoProvider(fake).Generate(ctx, "x")
			So(err, ShouldNotBeNil)
		})

		Convey("模型错误被包装返回", func() {
			boom := errors.New("rate limited")
			_, err := NewEinoProvider(&fakeChatModel{err: boom}).Generate(ctx, "x")
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("chatModel 为 nil", func() {
			_, err := NewEinoProvider(nil).Generate(ctx, "x")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTTSProviders_NilClient(t *testing.T) {
	Convey("客户端为 nil 时返回错误", t, func() {
		_, err := NewVolcengineTTSProvider(nil).Synthesize(context.Background(), storytools.SpeechRequest{Text: "hi"})
		So(err, ShouldNotBeNil)
		_, err = NewGeminiTTSProvider(nil).Synthesize(context.Background(), storytools.SpeechRequest{Prompt: "hi"})
		So(err, ShouldNotBeNil)
	})
}

func TestTTSProviders_RequestText(t *testing.T) {
	Convey("不同 TTS 使用请求中的不同字段", t, func() {
		var gotText string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if contents, ok := body["contents"].([]any); ok {
				part := contents[0].(map[string]any)["parts"].([]any)[0].(map[string]any)
				gotText = part["text"].(string)
				w.Write([]byte(`{"candidates":[]}`))
				return
			}
			gotText = body["request"].(map[string]any)["text"].(string)
			w.Write([]byte(`{"code":3000}`))
		}))
		defer server.Close()

		req := storytools.SpeechRequest{Text: "It begins.", Prompt: "Voice Direction: soft\n\nNarration: It begins."}

		Convey("Gemini 发送带指令的提示词", func() {
			client, err := tts.NewGeminiClient(tts.GeminiConfig{APIURL: server.URL, APIKey: "k"})
			So(err, ShouldBeNil)
			result, err := NewGeminiTTSProvider(client).Synthesize(context.Background(), req)
			So(err, ShouldBeNil)
			So(result.HasAudio(), ShouldBeFalse)
			So(gotText, ShouldEqual, req.Prompt)
		})

		Convey("火山引擎只发送旁白原文", func() {
			client, err := tts.NewVolcengineClient(tts.VolcengineConfig{APIURL: server.URL, AccessToken: "t"})
			So(err, ShouldBeNil)
			result, err := NewVolcengineTTSProvider(client).Synthesize(context.Background(), req)
			So(err, ShouldBeNil)
			So(result.HasAudio(), ShouldBeFalse)
			So(gotText, ShouldEqual, req.Text)
		})
	})
}
