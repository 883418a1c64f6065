package feed

import (
	"context"

	"github.com/jrsteele09/go-shared-list/items"
	"github.com/rs/zerolog/log"
)

// PublishFunc announces a confirmed write on a push channel.
type PublishFunc func(ctx context.Context, op string) error

// NotifyWrites announces every successful write to repo through publish. It is
// used when the backend has no trigger of its own feeding the channel, as with Redis.
// Publish failures are logged; the write has already happened.
func NotifyWrites(repo items.Repo, publish PublishFunc) items.Repo {
	return &notifyingRepo{Repo: repo, publish: publish}
}

type notifyingRepo struct {
	items.Repo
	publish PublishFunc
}

func (r *notifyingRepo) Insert(ctx context.Context, item items.NewItem) (*items.ListItem, error) {
	created, err := r.Repo.Insert(ctx, item)
	if err == nil {
		r.announce(ctx, OpInsert)
	}
	return created, err
}

func (r *notifyingRepo) UpdateText(ctx context.Context, id, text string) error {
	return r.after(ctx, OpUpdate, r.Repo.UpdateText(ctx, id, text))
}

func (r *notifyingRepo) SetCompleted(ctx context.Context, id string, completed bool) error {
	return r.after(ctx, OpUpdate, r.Repo.SetCompleted(ctx, id, completed))
}

func (r *notifyingRepo) Delete(ctx context.Context, id string) error {
	return r.after(ctx, OpDelete, r.Repo.Delete(ctx, id))
}

func (r *notifyingRepo) DeleteAll(ctx context.Context) error {
	return r.after(ctx, OpDelete, r.Repo.DeleteAll(ctx))
}

func (r *notifyingRepo) after(ctx context.Context, op string, err error) error {
	if err == nil {
		r.announce(ctx, op)
	}
	return err
}

func (r *notifyingRepo) announce(ctx context.Context, op string) {
	if err := r.publish(ctx, op); err != nil {
		log.Err(err).Str("op", op).Msg("Error publishing change")
	}
}
