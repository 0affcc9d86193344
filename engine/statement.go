package engine

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const statementIdKey contextKey = "statementId"

func NewStatementId() string {
	return uuid.NewString()
}

func WithStatementId(ctx context.Context, statementId string) context.Context {
	return context.WithValue(ctx, statementIdKey, statementId)
}

func StatementIdFromContext(ctx context.Context) string {
	v, ok := ctx.Value(statementIdKey).(string)
	if !ok {
		return ""
	}
	return v
}
