package application

import (
	"context"
	"errors"
	"testing"
)

func newTestUserService(users *fakeUserRepo) *UserService {
	n := 0
	gen := func() string {
		n++
		return "u-new"
	}
	hash := func(password string) (string, error) {
		return "hash:" + password, nil
	}
	return NewUserService(users, hash, gen)
}

var admin = Principal{UserID: "u-admin", Privileged: true}

func TestCreateUser_Success(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestUserService(users)

	created, err := svc.CreateUser(context.Background(), CreateUserParams{
		Principal:   admin,
		Email:       " Ana@Example.com ",
		DisplayName: "Ana Souza",
		Password:    "s3cret-pwd",
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if created.Email != "ana@example.com" {
		t.Errorf("Email = %q, want normalized lowercase", created.Email)
	}
	if users.rows["u-new"].PasswordHash != "hash:s3cret-pwd" {
		t.Errorf("stored hash = %q", users.rows["u-new"].PasswordHash)
	}
}

func TestCreateUser_RequiresPrivilege(t *testing.T) {
	svc := newTestUserService(newFakeUserRepo())

	_, err := svc.CreateUser(context.Background(), CreateUserParams{
		Principal:   Principal{UserID: "u-1"},
		Email:       "ana@example.com",
		DisplayName: "Ana",
		Password:    "s3cret-pwd",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name      string
		params    CreateUserParams
		wantField string
	}{
		{
			name:      "missing email",
			params:    CreateUserParams{Principal: admin, DisplayName: "Ana", Password: "s3cret-pwd"},
			wantField: "email",
		},
		{
			name:      "malformed email",
			params:    CreateUserParams{Principal: admin, Email: "not-an-email", DisplayName: "Ana", Password: "s3cret-pwd"},
			wantField: "email",
		},
		{
			name:      "missing display name",
			params:    CreateUserParams{Principal: admin, Email: "ana@example.com", Password: "s3cret-pwd"},
			wantField: "display_name",
		},
		{
			name:      "short password",
			params:    CreateUserParams{Principal: admin, Email: "ana@example.com", DisplayName: "Ana", Password: "short"},
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestUserService(newFakeUserRepo())

			_, err := svc.CreateUser(context.Background(), tt.params)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if _, ok := vErr.FieldErrors[tt.wantField]; !ok {
				t.Errorf("no error for field %q: %v", tt.wantField, vErr.FieldErrors)
			}
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "u-1", "ana@example.com", "pw", false, false)
	svc := newTestUserService(users)

	_, err := svc.CreateUser(context.Background(), CreateUserParams{
		Principal:   admin,
		Email:       "ana@example.com",
		DisplayName: "Ana",
		Password:    "s3cret-pwd",
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("error = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateUser_TogglesFlags(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "u-1", "ana@example.com", "pw", false, false)
	svc := newTestUserService(users)

	privileged := true
	disabled := true
	updated, err := svc.UpdateUser(context.Background(), UpdateUserParams{
		Principal:  admin,
		UserID:     "u-1",
		Privileged: &privileged,
		Disabled:   &disabled,
	})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if !updated.Privileged || !updated.Disabled {
		t.Errorf("updated = %+v", updated)
	}
}

func TestUpdateUser_CannotDisableSelf(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "u-admin", "admin@example.com", "pw", true, false)
	svc := newTestUserService(users)

	disabled := true
	_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
		Principal: admin,
		UserID:    "u-admin",
		Disabled:  &disabled,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestListUsers(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "u-2", "bia@example.com", "pw", false, false)
	seedUser(users, "u-1", "ana@example.com", "pw", true, false)
	svc := newTestUserService(users)

	listed, err := svc.ListUsers(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("ListUsers returned %d users, want 2", len(listed))
	}
	if listed[0].Email != "ana@example.com" || listed[1].Email != "bia@example.com" {
		t.Errorf("ListUsers order = %q, %q", listed[0].Email, listed[1].Email)
	}

	if _, err := svc.ListUsers(context.Background(), Principal{UserID: "u-2"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unprivileged ListUsers error = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteUser(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "u-admin", "admin@example.com", "pw", true, false)
	seedUser(users, "u-1", "ana@example.com", "pw", false, false)
	svc := newTestUserService(users)
	ctx := context.Background()

	if err := svc.DeleteUser(ctx, Principal{UserID: "u-1"}, "u-admin"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unprivileged delete error = %v, want ErrUnauthorized", err)
	}
	if err := svc.DeleteUser(ctx, admin, "u-admin"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("self delete error = %v, want ErrUnauthorized", err)
	}
	if err := svc.DeleteUser(ctx, admin, "u-1"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, ok := users.rows["u-1"]; ok {
		t.Error("user still present after delete")
	}
	if err := svc.DeleteUser(ctx, admin, "u-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestUserService(users)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, " Admin@Escola.example ", "Direção", "s3cret-pwd"); err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}
	created, ok := users.rows["u-new"]
	if !ok {
		t.Fatal("bootstrap admin not persisted")
	}
	if created.Email != "admin@escola.example" || !created.Privileged {
		t.Errorf("bootstrap admin = %+v", created)
	}
	if created.PasswordHash != "hash:s3cret-pwd" {
		t.Errorf("stored hash = %q", created.PasswordHash)
	}

	// A second run leaves the existing account untouched.
	if err := svc.EnsureAdmin(ctx, "admin@escola.example", "Outro Nome", "other-pwd"); err != nil {
		t.Fatalf("second EnsureAdmin returned error: %v", err)
	}
	if len(users.rows) != 1 {
		t.Errorf("repo holds %d users, want 1", len(users.rows))
	}
	if users.rows["u-new"].DisplayName != "Direção" {
		t.Errorf("existing admin was rewritten: %+v", users.rows["u-new"])
	}
}

func TestEnsureAdmin_NoConfiguredEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestUserService(users)

	if err := svc.EnsureAdmin(context.Background(), "", "", ""); err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}
	if len(users.rows) != 0 {
		t.Error("EnsureAdmin created a user without a configured email")
	}
}

func TestEnsureAdmin_ShortPassword(t *testing.T) {
	svc := newTestUserService(newFakeUserRepo())

	err := svc.EnsureAdmin(context.Background(), "admin@escola.example", "", "short")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if _, ok := vErr.FieldErrors["password"]; !ok {
		t.Errorf("no error for password field: %v", vErr.FieldErrors)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	svc := newTestUserService(newFakeUserRepo())

	privileged := true
	_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
		Principal:  admin,
		UserID:     "missing",
		Privileged: &privileged,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
