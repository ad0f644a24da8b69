package loaders

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	AuthorLoader *dataloader.Loader[string, *entities.ReviewAuthor]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(userRepo repositories.UserRepository) *Loaders {
	return &Loaders{
		AuthorLoader: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.ReviewAuthor] {
			results := make([]*dataloader.Result[*entities.ReviewAuthor], len(keys))
			users, err := userRepo.GetByIDs(ctx, keys)

			userMap := make(map[string]*entities.User)
			if err == nil {
				for _, u := range users {
					userMap[u.ID] = u
				}
			}

			for i, key := range keys {
				switch u, ok := userMap[key]; {
				case err != nil:
					results[i] = &dataloader.Result[*entities.ReviewAuthor]{Error: err}
				case ok:
					results[i] = &dataloader.Result[*entities.ReviewAuthor]{Data: &entities.ReviewAuthor{ID: u.ID, Name: u.Name}}
				default:
					// unknown authors still render, without a name
					results[i] = &dataloader.Result[*entities.ReviewAuthor]{Data: &entities.ReviewAuthor{ID: key}}
				}
			}
			return results
		}),
	}
}

// LoadAuthors resolves the authors of ids in one batch, preserving order
func (l *Loaders) LoadAuthors(ctx context.Context, ids []string) ([]*entities.ReviewAuthor, error) {
	thunks := make([]dataloader.Thunk[*entities.ReviewAuthor], len(ids))
	for i, id := range ids {
		thunks[i] = l.AuthorLoader.Load(ctx, id)
	}

	authors := make([]*entities.ReviewAuthor, len(ids))
	for i, thunk := range thunks {
		author, err := thunk()
		if err != nil {
			return nil, err
		}
		authors[i] = author
	}
	return authors, nil
}

// For returns the loaders for a given context, or nil when none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
