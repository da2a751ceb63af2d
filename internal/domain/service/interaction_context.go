package service

import (
	"context"
	"strings"
)

type interactionCtxKey string

const (
	interactionCtxKeyUser   interactionCtxKey = "interaction_user"
	interactionCtxKeySource interactionCtxKey = "interaction_source"
)

// WithUser 在 context 中标记发起调用的用户，用于交互记录归属
func WithUser(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		return nil
	}
	u := strings.TrimSpace(userID)
	if u == "" {
		return ctx
	}
	return context.WithValue(ctx, interactionCtxKeyUser, u)
}

// WithSource 标记调用来源（例如 api、question_paper）
func WithSource(ctx context.Context, source string) context.Context {
	if ctx == nil {
		return nil
	}
	s := strings.TrimSpace(source)
	if s == "" {
		return ctx
	}
	return context.WithValue(ctx, interactionCtxKeySource, s)
}

// UserFromContext 未设置时返回空字符串
func UserFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(interactionCtxKeyUser).(string)
	return s
}

// SourceFromContext 未设置时返回 "api"
func SourceFromContext(ctx context.Context) string {
	if ctx == nil {
		return "api"
	}
	s, ok := ctx.Value(interactionCtxKeySource).(string)
	if !ok || s == "" {
		return "api"
	}
	return s
}
