package repo

import (
	"slices"

	"go-gin-mock-users/internal/domain"
)

// UserRepo is an ordered in-memory user list. Insertion order is creation
// order. It is not safe for concurrent use; the owning store locks around it.
type UserRepo struct{ users []domain.User }

func NewUserRepo(seed []domain.User) *UserRepo {
	return &UserRepo{users: slices.Clone(seed)}
}

func (r *UserRepo) Len() int { return len(r.users) }

func (r *UserRepo) Create(u domain.User) { r.users = append(r.users, u) }

func (r *UserRepo) FindByID(id string) (domain.User, bool) {
	i := r.indexOf(id)
	if i < 0 {
		return domain.User{}, false
	}
	return r.users[i], true
}

// Replace overwrites the first record with u.ID. It reports whether one matched.
func (r *UserRepo) Replace(u domain.User) bool {
	i := r.indexOf(u.ID)
	if i < 0 {
		return false
	}
	r.users[i] = u
	return true
}

// Delete removes every record with the id and returns how many went.
func (r *UserRepo) Delete(id string) int {
	before := len(r.users)
	r.users = slices.DeleteFunc(r.users, func(u domain.User) bool { return u.ID == id })
	return before - len(r.users)
}

func (r *UserRepo) List() []domain.User { return slices.Clone(r.users) }

func (r *UserRepo) Filter(keep func(domain.User) bool) []domain.User {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

func (r *UserRepo) Reset(seed []domain.User) { r.users = slices.Clone(seed) }

func (r *UserRepo) indexOf(id string) int {
	return slices.IndexFunc(r.users, func(u domain.User) bool { return u.ID == id })
}
