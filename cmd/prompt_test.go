package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCollectInput(t *testing.T) {
	Convey("交互式输入", t, func() {
		var out bytes.Buffer

		Convey("命令行参数齐全时不读取输入", func() {
			idea, minutes, err := collectInput(strings.NewReader(""), &out, "robot", 2, 8, false)
			So(err, ShouldBeNil)
			So(idea, ShouldEqual, "robot")
			So(minutes, ShouldEqual, 2.0)
			So(out.String(), ShouldBeEmpty)
		})

		Convey("重复询问直到输入有效", func() {
			in := strings.NewReader("\nA robot learns to dance\nabc\n-1\n1.5\nyes\n")
			idea, minutes, err := collectInput(in, &out, "", 0, 8, false)
			So(err, ShouldBeNil)
			So(idea, ShouldEqual, "A robot learns to dance")
			So(minutes, ShouldEqual, 1.5)
			So(out.String(), ShouldContainSubstring, "Please provide a story idea!")
			So(out.String(), ShouldContainSubstring, "Please enter a valid number!")
			So(out.String(), ShouldContainSubstring, "Duration must be greater than 0!")
			So(out.String(), ShouldContainSubstring, "Number of clips: 12 clips x 8 seconds each")
		})

		Convey("超过 30 分钟需要再次确认", func() {
			in := strings.NewReader("45\nno\n2\ny\n")
			_, minutes, err := collectInput(in, &out, "idea", 0, 8, false)
			So(err, ShouldBeNil)
			So(minutes, ShouldEqual, 2.0)
			So(out.String(), ShouldContainSubstring, "Recommended: 1-5 minutes")
		})

		Convey("拒绝确认时取消", func() {
			_, _, err := collectInput(strings.NewReader("idea\n1\nno\n"), &out, "", 0, 8, false)
			So(errors.Is(err, errCancelled), ShouldBeTrue)
		})

		Convey("--yes 跳过确认", func() {
			idea, _, err := collectInput(strings.NewReader("idea\n1\n"), &out, "", 0, 8, true)
			So(err, ShouldBeNil)
			So(idea, ShouldEqual, "idea")
			So(out.String(), ShouldNotContainSubstring, "Proceed with this configuration?")
		})

		Convey("输入提前结束", func() {
			_, _, err := collectInput(strings.NewReader(""), &out, "", 0, 8, false)
			So(err, ShouldNotBeNil)
		})
	})
}
