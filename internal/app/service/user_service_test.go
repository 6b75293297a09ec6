package service

import (
	"context"
	"errors"
	"testing"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"
)

func seedUser(t *testing.T, repo *fakeUserRepo, id, email string, role model.Role, verified bool) {
	t.Helper()
	err := repo.Create(context.Background(), &model.User{
		ID: id, Email: email, Name: "User " + id, Role: role,
		HashedPassword: "x", IsVerified: verified,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
}

func TestVerifyUserFlipsFlagDespiteMailFailure(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "u1", "new@example.com", model.RoleViewer, false)
	// nil redis client makes the enqueue a no-op; verification must still land.
	svc := NewUserService(repo, NewMailService(nil))

	user, err := svc.VerifyUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !user.IsVerified {
		t.Fatal("user not marked verified")
	}
	if user.HashedPassword != "" {
		t.Fatal("hashed password leaked in response")
	}

	stored, err := repo.FindByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if !stored.IsVerified {
		t.Fatal("verification not persisted")
	}
}

func TestVerifyUnknownUser(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), NewMailService(nil))
	if _, err := svc.VerifyUser(context.Background(), "nope"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListUsersUnverifiedFilter(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "u1", "a@example.com", model.RoleViewer, true)
	seedUser(t, repo, "u2", "b@example.com", model.RoleEditor, false)
	svc := NewUserService(repo, NewMailService(nil))

	all, err := svc.ListUsers(context.Background(), false)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all users = %d, want 2", len(all))
	}
	for _, u := range all {
		if u.HashedPassword != "" {
			t.Fatalf("hashed password leaked for %s", u.Email)
		}
	}

	unverified, err := svc.ListUsers(context.Background(), true)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(unverified) != 1 || unverified[0].Email != "b@example.com" {
		t.Fatalf("unverified = %+v", unverified)
	}
}

func TestUpdateUserPatchesFields(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "u1", "a@example.com", model.RoleViewer, false)
	svc := NewUserService(repo, NewMailService(nil))

	name := "Renamed"
	role := "editor"
	user, err := svc.UpdateUser(context.Background(), "u1", UpdateUserRequest{Name: &name, Role: &role})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if user.Name != "Renamed" || user.Role != model.RoleEditor {
		t.Fatalf("patched user = %+v", user)
	}
	// Untouched fields survive.
	if user.Email != "a@example.com" || user.IsVerified {
		t.Fatalf("unpatched fields changed: %+v", user)
	}
}

func TestUpdateUserRejectsUnknownRole(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "u1", "a@example.com", model.RoleViewer, false)
	svc := NewUserService(repo, NewMailService(nil))

	role := "manager"
	_, err := svc.UpdateUser(context.Background(), "u1", UpdateUserRequest{Role: &role})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "u1", "a@example.com", model.RoleViewer, true)
	svc := NewUserService(repo, NewMailService(nil))

	user, err := svc.DeleteUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if user.Email != "a@example.com" {
		t.Fatalf("deleted user = %+v", user)
	}
	if _, err := repo.FindByID(context.Background(), "u1"); !errors.Is(err, common.ErrNotFound) {
		t.Fatal("user still present after delete")
	}
}
