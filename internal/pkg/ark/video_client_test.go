package ark

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVideoClient_GenerateVideoFromImage(t *testing.T) {
	Convey("VideoClient 提交任务、轮询并下载视频", t, func() {
		var polls int32
		var created videoTaskRequest

		mux := http.NewServeMux()
		var server *httptest.Server
		mux.HandleFunc("/contents/generations/tasks", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&created)
			w.Write([]byte(`{"id":"task-1"}`))
		})
		mux.HandleFunc("/contents/generations/tasks/task-1", func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&polls, 1) < 2 {
				w.Write([]byte(`{"status":"running"}`))
				return
			}
			w.Write([]byte(`{"status":"succeeded","content":{"video_url":"` + server.URL + `/files/clip.mp4"}}`))
		})
		mux.HandleFunc("/files/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("mp4-bytes"))
		})
		server = httptest.NewServer(mux)
		defer server.Close()

		client, err := NewVideoClient(&VideoConfig{
			APIKey:       "test-key",
			BaseURL:      server.URL + "/",
			PollInterval: 10 * time.Millisecond,
		})
		So(err, ShouldBeNil)

		data, err := client.GenerateVideoFromImage(context.Background(), []byte("jpeg"), 20, "slow dolly in")
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, "mp4-bytes")
		So(atomic.LoadInt32(&polls), ShouldEqual, int32(2))

		Convey("请求体包含提示词、首帧图片并截断时长", func() {
			So(created.Model, ShouldEqual, DefaultVideoModel)
			So(created.Duration, ShouldEqual, maxVideoSeconds)
			So(created.Ratio, ShouldEqual, DefaultVideoRatio)
			So(created.Content, ShouldHaveLength, 2)
			So(created.Content[0].Text, ShouldEqual, "slow dolly in")
			So(strings.HasPrefix(created.Content[1].ImageURL["url"], "data:image/jpeg;base64,"), ShouldBeTrue)
		})
	})

	Convey("任务失败时返回错误", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.Write([]byte(`{"id":"task-2"}`))
				return
			}
			w.Write([]byte(`{"status":"failed"}`))
		}))
		defer server.Close()

		client, err := NewVideoClient(&VideoConfig{APIKey: "k", BaseURL: server.URL, PollInterval: time.Millisecond})
		So(err, ShouldBeNil)

		_, err = client.GenerateVideoFromImage(context.Background(), []byte("jpeg"), 8, "")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "failed")
	})

	Convey("缺少 API Key 时创建失败", t, func() {
		_, err := NewVideoClient(&VideoConfig{})
		So(err, ShouldNotBeNil)
	})
}
