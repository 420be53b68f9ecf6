package service

import (
	"context"
	"errors"
	"fmt"

	"likeboard/app/config"
	"likeboard/app/repositories"
	"likeboard/app/repositories/postgres"
	"likeboard/app/routes"
)

// storage is an opened backend together with the hook that releases it.
type storage struct {
	repos routes.Repositories
	// exactly one of badger or pg is set
	badger *repositories.Store
	pg     *postgres.Store
}

var errBadgerOnly = errors.New("command is only supported by the badger driver")

func openStorage(ctx context.Context, cfg config.StorageConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		store, err := repositories.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger database at %s: %w", cfg.Path, err)
		}
		return &storage{
			badger: store,
			repos: routes.Repositories{
				Users:    store.Users,
				Posts:    store.Posts,
				Likes:    store.Likes,
				Comments: store.Comments,
			},
		}, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		return &storage{
			pg: store,
			repos: routes.Repositories{
				Users:    store.Users,
				Posts:    store.Posts,
				Likes:    store.Likes,
				Comments: store.Comments,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// clear removes every user, post, like and comment.
func (s *storage) clear(ctx context.Context) error {
	if s.pg != nil {
		return s.pg.Clear(ctx)
	}
	return s.badger.Clear()
}

func (s *storage) Close() error {
	if s.pg != nil {
		return s.pg.Close()
	}
	return s.badger.Close()
}
