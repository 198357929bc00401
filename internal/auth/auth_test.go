package auth

import (
	"os"
	"path/filepath"
	"testing"
)

type memRepo struct{ users []User }

func (m *memRepo) LoadAll() ([]User, error) { return append([]User{}, m.users...), nil }
func (m *memRepo) Upsert(u User) error {
	for i, x := range m.users {
		if x.ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	m.users = append(m.users, u)
	return nil
}
func (m *memRepo) Remove(id string) error {
	out := make([]User, 0, len(m.users))
	for _, x := range m.users {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.users = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{users: []User{{ID: "10", Username: "alice"}}}
	svc, err := NewWithRepo(repo, []string{"20", ""})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if !svc.IsAllowed("10") {
		t.Fatalf("repo preload not effective")
	}
	if !svc.IsAllowed("20") {
		t.Fatalf("initial env list not merged")
	}
	if svc.IsAllowed("30") || svc.IsAllowed("") {
		t.Fatalf("unexpected allowed")
	}

	if err := svc.Upsert(User{ID: "30", Username: "bob"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !svc.IsAllowed("30") {
		t.Fatalf("upsert not effective")
	}

	if err := svc.Remove("10"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if svc.IsAllowed("10") {
		t.Fatalf("remove not effective")
	}

	lst := svc.List()
	if len(lst) != 2 || lst[0].ID != "20" || lst[1].ID != "30" {
		t.Fatalf("unexpected list: %+v", lst)
	}
}

func TestFileRepo_CRUD(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "admins.json")
	repo, err := NewFileRepository(p)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	items, err := repo.LoadAll()
	if err != nil || len(items) != 0 {
		t.Fatalf("missing file should load empty: %v %+v", err, items)
	}

	if err := repo.Upsert(User{ID: "1", Username: "alice"}); err != nil {
		t.Fatalf("upsert1: %v", err)
	}
	if err := repo.Upsert(User{ID: "2", Username: "bob"}); err != nil {
		t.Fatalf("upsert2: %v", err)
	}
	if err := repo.Upsert(User{ID: "1", Username: "alice2"}); err != nil {
		t.Fatalf("upsert1 again: %v", err)
	}
	items, _ = repo.LoadAll()
	if len(items) != 2 || items[0].Username != "alice2" {
		t.Fatalf("unexpected items: %+v", items)
	}

	if err := repo.Remove("1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, _ = repo.LoadAll()
	if len(items) != 1 || items[0].ID != "2" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestFileRepo_CorruptFileIsAnError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "admins.json")
	if err := os.WriteFile(p, []byte("{oops"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo, _ := NewFileRepository(p)
	if _, err := NewWithRepo(repo, nil); err == nil {
		t.Fatalf("corrupt allow-list must not load silently")
	}
}
