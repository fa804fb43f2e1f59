package tts

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVolcengineClient_Synthesize(t *testing.T) {
	Convey("火山引擎 TTS", t, func() {
		var gotAuth string
		var gotBody map[string]map[string]any
		respond := `{"code":3000,"message":"Success","data":"` + base64.StdEncoding.EncodeToString([]byte("mp3-bytes")) + `","addition":{"duration":"1500"}}`

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Write([]byte(respond))
		}))
		defer server.Close()

		client, err := NewVolcengineClient(VolcengineConfig{APIURL: server.URL, AccessToken: "tok", AppID: "app"})
		So(err, ShouldBeNil)

		Convey("成功返回解码后的音频", func() {
			result, err := client.Synthesize(context.Background(), "Once upon a time")
			So(err, ShouldBeNil)
			So(result.HasAudio(), ShouldBeTrue)
			So(string(result.AudioData), ShouldEqual, "mp3-bytes")
			So(result.Format, ShouldEqual, "mp3")
			So(result.Duration, ShouldEqual, 1.5)

			So(gotAuth, ShouldEqual, "Bearer; tok")
			So(gotBody["app"]["appid"], ShouldEqual, "app")
			So(gotBody["audio"]["voice_type"], ShouldEqual, DefaultVolcengineVoice)
			So(gotBody["request"]["text"], ShouldEqual, "Once upon a time")
		})

		Convey("没有 data 时返回空结果", func() {
			respond = `{"code":3000,"message":"Success"}`
			result, err := client.Synthesize(context.Background(), "hi")
			So(err, ShouldBeNil)
			So(result.HasAudio(), ShouldBeFalse)
		})

		Convey("业务码非 3000 时返回 APIError", func() {
			respond = `{"code":3050,"message":"voice not found"}`
			_, err := client.Synthesize(context.Background(), "hi")
			So(err, ShouldNotBeNil)

			var apiErr *APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Code, ShouldEqual, 3050)
			So(err.Error(), ShouldContainSubstring, "voice not found")
		})
	})

	Convey("HTTP 非 200 返回 APIError", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("unauthorized"))
		}))
		defer server.Close()

		client, err := NewVolcengineClient(VolcengineConfig{APIURL: server.URL, AccessToken: "tok"})
		So(err, ShouldBeNil)

		_, err = client.Synthesize(context.Background(), "hi")
		var apiErr *APIError
		So(errors.As(err, &apiErr), ShouldBeTrue)
		So(apiErr.StatusCode, ShouldEqual, http.StatusUnauthorized)
	})

	Convey("缺少 access token 时创建失败", t, func() {
		_, err := NewVolcengineClient(VolcengineConfig{})
		So(err, ShouldNotBeNil)
	})
}

func TestGeminiClient_Synthesize(t *testing.T) {
	Convey("Gemini TTS", t, func() {
		pcm := []byte{0x01, 0x02, 0x03, 0x04}
		var gotPath, gotKey string
		var gotBody geminiRequest
		respond := `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16;codec=pcm;rate=24000","data":"` +
			base64.StdEncoding.EncodeToString(pcm) + `"}}]}}]}`

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-goog-api-key")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Write([]byte(respond))
		}))
		defer server.Close()

		client, err := NewGeminiClient(GeminiConfig{APIURL: server.URL + "/", APIKey: "gk"})
		So(err, ShouldBeNil)

		Convey("PCM 封装为 WAV", func() {
			result, err := client.Synthesize(context.Background(), "Say warmly: hello")
			So(err, ShouldBeNil)
			So(result.HasAudio(), ShouldBeTrue)
			So(result.Format, ShouldEqual, "wav")
			So(result.SampleRate, ShouldEqual, 24000)
			So(result.AudioData, ShouldHaveLength, 44+len(pcm))
			So(string(result.AudioData[:4]), ShouldEqual, "RIFF")
			So(string(result.AudioData[44:]), ShouldEqual, string(pcm))

			So(gotPath, ShouldEqual, "/models/"+DefaultGeminiModel+":generateContent")
			So(gotKey, ShouldEqual, "gk")
			So(gotBody.GenerationConfig.ResponseModalities, ShouldResemble, []string{"AUDIO"})
			So(gotBody.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName, ShouldEqual, DefaultGeminiVoice)
			So(gotBody.Contents[0].Parts[0].Text, ShouldEqual, "Say warmly: hello")
		})

		Convey("没有 inlineData 时返回空结果", func() {
			respond = `{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]},"finishReason":"OTHER"}]}`
			result, err := client.Synthesize(context.Background(), "hi")
			So(err, ShouldBeNil)
			So(result.HasAudio(), ShouldBeFalse)
		})
	})

	Convey("缺少 API Key 时创建失败", t, func() {
		_, err := NewGeminiClient(GeminiConfig{})
		So(err, ShouldNotBeNil)
	})
}

func TestWrapPCM16(t *testing.T) {
	Convey("WAV 头字段", t, func() {
		pcm := make([]byte, 100)
		wav := WrapPCM16(pcm, 24000, 1)

		So(wav, ShouldHaveLength, 144)
		So(string(wav[0:4]), ShouldEqual, "RIFF")
		So(binary.LittleEndian.Uint32(wav[4:8]), ShouldEqual, uint32(136))
		So(string(wav[8:12]), ShouldEqual, "WAVE")
		So(binary.LittleEndian.Uint16(wav[22:24]), ShouldEqual, uint16(1))
		So(binary.LittleEndian.Uint32(wav[24:28]), ShouldEqual, uint32(24000))
		So(binary.LittleEndian.Uint32(wav[28:32]), ShouldEqual, uint32(48000))
		So(binary.LittleEndian.Uint16(wav[34:36]), ShouldEqual, uint16(16))
		So(string(wav[36:40]), ShouldEqual, "data")
		So(binary.LittleEndian.Uint32(wav[40:44]), ShouldEqual, uint32(100))
	})
}
