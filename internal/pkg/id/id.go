package id

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// NewRunID 生成运行目录名，格式: 20060102-150405-xxxxxxxx
// 时间前缀保证目录按时间排序，uuid 片段避免同一秒内冲突
func NewRunID(now time.Time) string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.Format("20060102-150405") + "-" + short
}

// IsValidRunID 运行ID会直接作为 output_dir 下的目录名，必须是单独一段干净的路径
func IsValidRunID(runID string) bool {
	if runID == "" || strings.TrimSpace(runID) != runID {
		return false
	}
	if runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return false
	}
	return filepath.Base(runID) == runID
}
