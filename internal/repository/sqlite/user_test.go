package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/msomdec/account-portal/internal/domain"
	"github.com/msomdec/account-portal/internal/repository/sqlite"
)

func newUser(username, email string) *domain.User {
	return &domain.User{
		Username:       username,
		Email:          email,
		PasswordHash:   "hashedpw",
		Region:         "EU",
		ProfilePicture: domain.DefaultProfilePicture,
	}
}

func TestUserRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := newUser("alice", "alice@example.com")
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("expected email alice@example.com, got %q", got.Email)
	}
	if got.PasswordHash != "hashedpw" {
		t.Fatalf("expected password hash to round trip, got %q", got.PasswordHash)
	}
	if got.Region != "EU" {
		t.Fatalf("expected region EU, got %q", got.Region)
	}
	if got.ProfilePicture != domain.DefaultProfilePicture {
		t.Fatalf("expected default profile picture, got %q", got.ProfilePicture)
	}
}

func TestUserRepository_Create_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("dup", "one@example.com")); err != nil {
		t.Fatalf("Create user1: %v", err)
	}

	err := repo.Create(ctx, newUser("dup", "two@example.com"))
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected duplicate username to be a conflict, got %v", err)
	}
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("first", "dup@example.com")); err != nil {
		t.Fatalf("Create user1: %v", err)
	}

	err := repo.Create(ctx, newUser("second", "dup@example.com"))
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_Create_ConcurrentSameUsername(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := string(rune('a'+i)) + "@example.com"
			if err := repo.Create(ctx, newUser("racer", email)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrDuplicateUsername) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful create, got %d", successes)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("bob", "bob@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.Username != "bob" {
		t.Fatalf("expected username bob, got %q", got.Username)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByUsername(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByUsername: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByEmail: expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newUser("carol", "carol@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pic := "/uploads/profile-carol.png"
	if err := repo.Update(ctx, "carol", domain.UserPatch{ProfilePicture: &pic}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByUsername(ctx, "carol")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.ProfilePicture != pic {
		t.Fatalf("expected profile picture %q, got %q", pic, got.ProfilePicture)
	}
	if got.Email != "carol@example.com" {
		t.Fatalf("expected email to be untouched, got %q", got.Email)
	}

	// An empty patch leaves the picture alone.
	if err := repo.Update(ctx, "carol", domain.UserPatch{}); err != nil {
		t.Fatalf("Update empty patch: %v", err)
	}
	got, _ = repo.GetByUsername(ctx, "carol")
	if got.ProfilePicture != pic {
		t.Fatalf("expected profile picture to survive empty patch, got %q", got.ProfilePicture)
	}
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)

	pic := "/uploads/profile-ghost.png"
	err := repo.Update(context.Background(), "ghost", domain.UserPatch{ProfilePicture: &pic})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
