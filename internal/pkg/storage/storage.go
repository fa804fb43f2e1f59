package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// Storage 存储接口
// key 一律使用 "/" 分隔的相对路径，例如 "<run_id>/prompts/scene_01_IMAGE.txt"
type Storage interface {
	// Upload 写入文件，返回文件位置（本地路径或访问URL）
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Exists 检查 key 是否存在（本地存储对目录同样生效）
	Exists(ctx context.Context, key string) (bool, error)

	// GetStorageType 获取存储类型
	GetStorageType() string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
)

var contentTypes = map[string]string{
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
	".sh":   "text/x-shellscript",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
}

// ContentType 根据文件扩展名获取 Content-Type
func ContentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}
