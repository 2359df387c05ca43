package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normaliseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrUserIDRequired
	}
	return id, nil
}
