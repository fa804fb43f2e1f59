package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storyreel/internal/pkg/storytools"
)

// errCancelled 用户在确认环节取消
var errCancelled = errors.New("cancelled by user")

// prompter 交互式读取故事想法、时长和确认
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// readLine 读取一行，输入结束且没有内容时返回 io.EOF
func (p *prompter) readLine(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return line, nil
}

// askIdea 直到输入非空的故事想法
func (p *prompter) askIdea() (string, error) {
	fmt.Fprintln(p.out, "Tell me your story idea:")
	fmt.Fprintln(p.out, "  (a brief concept, a detailed plot, or anything in between)")
	for {
		idea, err := p.readLine("Your story: ")
		if err != nil {
			return "", err
		}
		if idea != "" {
			return idea, nil
		}
		fmt.Fprintln(p.out, "Please provide a story idea!")
	}
}

// askDuration 直到输入正数的分钟数，超过 30 分钟需要额外确认
func (p *prompter) askDuration() (float64, error) {
	fmt.Fprintln(p.out, "How long should your story video be? (minutes, e.g. 1, 2, 3.5)")
	for {
		raw, err := p.readLine("Duration (in minutes): ")
		if err != nil {
			return 0, err
		}
		minutes, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a valid number!")
			continue
		}
		if minutes <= 0 {
			fmt.Fprintln(p.out, "Duration must be greater than 0!")
			continue
		}
		if minutes > storytools.LongDurationMinutes {
			fmt.Fprintln(p.out, "That's quite long! Recommended: 1-5 minutes")
			ok, err := p.confirm("  Continue anyway? (yes/no): ")
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
		}
		return minutes, nil
	}
}

// confirm 只有 yes / y 视为确认
func (p *prompter) confirm(label string) (bool, error) {
	answer, err := p.readLine(label)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "yes" || answer == "y", nil
}

// printBreakdown 输出场景拆分预览
func (p *prompter) printBreakdown(idea string, minutes float64, clipSeconds int) {
	scenes := storytools.SceneCount(minutes, clipSeconds)
	rule := strings.Repeat("=", 80)

	fmt.Fprintln(p.out, rule)
	fmt.Fprintln(p.out, "STORY BREAKDOWN")
	fmt.Fprintln(p.out, rule)
	fmt.Fprintf(p.out, "Duration: %g minutes (%d seconds)\n", minutes, int(minutes*60))
	fmt.Fprintf(p.out, "Number of clips: %d clips x %d seconds each\n", scenes, clipSeconds)
	fmt.Fprintf(p.out, "Story idea: %s\n", truncate(idea, 80))
	fmt.Fprintln(p.out, rule)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
