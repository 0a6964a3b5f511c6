package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type userRepository struct {
	mu    sync.RWMutex
	users []*model.User
}

// NewUserRepository returns a directory holding copies of seed, in order.
func NewUserRepository(seed []*model.User) repository.UserRepository {
	r := &userRepository{}
	for _, u := range seed {
		c := *u
		r.users = append(r.users, &c)
	}
	return r
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.EmailMatches(email) {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.ID == user.ID || u.EmailMatches(user.Email) {
			return repository.ErrDuplicate
		}
	}
	c := *user
	r.users = append(r.users, &c)
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID == user.ID {
			c := *user
			r.users[i] = &c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}
