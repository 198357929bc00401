// Package auth keeps the allow-list of users that may run privileged commands.
package auth

import "sort"

type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

type Repository interface {
	LoadAll() ([]User, error)
	Upsert(user User) error
	Remove(userID string) error
}

type Service struct {
	repo         Repository
	allowedUsers map[string]User
}

// NewWithRepo merges the users persisted in repo with the initial IDs from
// the environment. A nil repo keeps the allow-list in memory only.
func NewWithRepo(repo Repository, initial []string) (*Service, error) {
	s := &Service{repo: repo, allowedUsers: make(map[string]User)}
	if repo != nil {
		users, err := repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			s.allowedUsers[u.ID] = u
		}
	}
	for _, id := range initial {
		if id == "" {
			continue
		}
		if _, ok := s.allowedUsers[id]; !ok {
			s.allowedUsers[id] = User{ID: id}
		}
	}
	return s, nil
}

func (s *Service) IsAllowed(userID string) bool {
	_, ok := s.allowedUsers[userID]
	return ok
}

func (s *Service) Upsert(user User) error {
	if s.allowedUsers == nil {
		s.allowedUsers = make(map[string]User)
	}
	s.allowedUsers[user.ID] = user
	if s.repo != nil {
		return s.repo.Upsert(user)
	}
	return nil
}

func (s *Service) Remove(userID string) error {
	delete(s.allowedUsers, userID)
	if s.repo != nil {
		return s.repo.Remove(userID)
	}
	return nil
}

// List returns the allow-list ordered by ID.
func (s *Service) List() []User {
	out := make([]User, 0, len(s.allowedUsers))
	for _, u := range s.allowedUsers {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
