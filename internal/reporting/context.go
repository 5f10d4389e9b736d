package reporting

import (
	"context"
	"maps"
	"time"
)

type metaContextKey struct{}

type Meta struct {
	tags      map[string]string
	extras    map[string]string
	playerID  string
	startedAt time.Time
}

func MetaFromContext(ctx context.Context) Meta {
	meta, ok := ctx.Value(metaContextKey{}).(Meta)
	if !ok {
		return Meta{
			tags:      make(map[string]string),
			extras:    make(map[string]string),
			playerID:  "",
			startedAt: time.Time{},
		}
	}
	return Meta{
		tags:      maps.Clone(meta.tags),
		extras:    maps.Clone(meta.extras),
		playerID:  meta.playerID,
		startedAt: meta.startedAt,
	}
}

func addMetaToContext(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaContextKey{}, meta)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	meta := MetaFromContext(ctx)
	meta.startedAt = startedAt

	return addMetaToContext(ctx, meta)
}

func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	meta := MetaFromContext(ctx)

	for key, value := range extras {
		meta.extras[key] = value
	}

	return addMetaToContext(ctx, meta)
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	meta := MetaFromContext(ctx)

	for key, value := range tags {
		meta.tags[key] = value
	}

	return addMetaToContext(ctx, meta)
}

func SetPlayerIDInContext(ctx context.Context, playerID string) context.Context {
	meta := MetaFromContext(ctx)
	meta.playerID = playerID

	return addMetaToContext(ctx, meta)
}
