package controller

import "context"

type contextKey int

const (
	identityCtxKey contextKey = iota
)

func (c controller) getIdentityFromCtx(ctx context.Context) identity {
	id, ok := ctx.Value(identityCtxKey).(identity)
	if !ok {
		return identity{}
	}

	return id
}
