package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintech_index/internal/common"
	"fintech_index/internal/common/security"
	"fintech_index/internal/domain/model"
	"fintech_index/internal/platform/config"
)

type fakeUserRepo struct {
	byEmail map[string]*model.User
	byID    map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*model.User{},
		byID:    map[string]*model.User{},
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, exists := r.byEmail[user.Email]; exists {
		return common.ErrConflict
	}
	u := *user
	r.byEmail[u.Email] = &u
	r.byID[u.ID] = &u
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := r.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := r.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, onlyUnverified bool) ([]model.User, error) {
	users := []model.User{}
	for _, u := range r.byID {
		if onlyUnverified && u.IsVerified {
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	u, ok := r.byID[user.ID]
	if !ok {
		return common.ErrNotFound
	}
	u.Name = user.Name
	u.Role = user.Role
	u.IsVerified = user.IsVerified
	return nil
}

func (r *fakeUserRepo) SetVerified(ctx context.Context, id string) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.IsVerified = true
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	return u, nil
}

func initTestJWT(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: time.Hour,
	}
	security.InitJWT()
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	initTestJWT(t)
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "a@example.com", Password: "pw", Name: "A", Role: "admin",
	})
	if !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("register as admin: err = %v, want ErrForbidden", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	initTestJWT(t)
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "a@example.com", Password: "pw", Name: "A", Role: "manager",
	})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("register with unknown role: err = %v, want ErrBadRequest", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	initTestJWT(t)
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	req := RegisterRequest{Email: "dup@example.com", Password: "pw", Name: "A", Role: "viewer"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(ctx, req)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("second register: err = %v, want ErrConflict", err)
	}
}

func TestRegisterIssuesNoTokenAndStartsUnverified(t *testing.T) {
	initTestJWT(t)
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email: "new@example.com", Password: "pw", Name: "New", Role: "editor",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.User.IsVerified {
		t.Fatal("freshly registered user must not be verified")
	}
	stored := repo.byEmail["new@example.com"]
	if stored == nil || stored.HashedPassword == "" || stored.HashedPassword == "pw" {
		t.Fatal("password must be stored hashed")
	}
}

func TestLoginUnverifiedFailsRegardlessOfPassword(t *testing.T) {
	initTestJWT(t)
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "u@example.com", Password: "correct", Name: "U", Role: "viewer",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for _, password := range []string{"correct", "wrong"} {
		_, err := svc.Login(ctx, LoginRequest{Email: "u@example.com", Password: password})
		if !errors.Is(err, common.ErrForbidden) {
			t.Fatalf("login (password=%q) err = %v, want ErrForbidden", password, err)
		}
	}
}

func TestLoginVerifiedUser(t *testing.T) {
	initTestJWT(t)
	repo := newFakeUserRepo()
	svc := NewAuthService(repo)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Email: "v@example.com", Password: "pw", Name: "V", Role: "editor",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := repo.SetVerified(ctx, resp.User.ID); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	// Wrong password stays a generic 401.
	if _, err := svc.Login(ctx, LoginRequest{Email: "v@example.com", Password: "nope"}); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("wrong password err = %v, want ErrUnauthorized", err)
	}

	authed, err := svc.Login(ctx, LoginRequest{Email: "v@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if authed.Token == "" {
		t.Fatal("login response missing token")
	}
	if authed.User.HashedPassword != "" {
		t.Fatal("login response must not expose the password hash")
	}

	// The issued token round-trips the identity claims.
	tok, err := security.TokenAuth.Decode(authed.Token)
	if err != nil {
		t.Fatalf("decode token: %v", err)
	}
	claims, err := tok.AsMap(ctx)
	if err != nil {
		t.Fatalf("token claims: %v", err)
	}
	if claims["user_id"] != resp.User.ID || claims["role"] != "editor" || claims["email"] != "v@example.com" {
		t.Fatalf("token claims mismatch: %v", claims)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	initTestJWT(t)
	svc := NewAuthService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "pw"})
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("unknown user err = %v, want ErrUnauthorized", err)
	}
}
