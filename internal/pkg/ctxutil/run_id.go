package ctxutil

import "context"

// runIDKeyType 使用私有类型避免与其他 context key 冲突
type runIDKeyType struct{}

var runIDKey = runIDKeyType{}

// WithRunID 将运行ID注入到 context 中，流水线开始时调用
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID 从 context 中解析运行ID
func GetRunID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
