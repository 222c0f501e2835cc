package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/quotes-api/internal/apperror"
	"github.com/sakif/quotes-api/internal/model"
)

// newTestDB returns a throwaway in-memory database.
// t.Cleanup closes it when the test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user and fails the test on error.
func createTestUser(t *testing.T, db *DB, identifier, email string) *model.User {
	t.Helper()
	user := &model.User{
		Identifier: identifier,
		Email:      email,
		SecretHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5",
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "moira_b", "moira@example.com")

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	got, err := db.GetByIdentifier(context.Background(), "moira_b")
	if err != nil {
		t.Fatalf("GetByIdentifier() error = %v", err)
	}
	if got.Email != "moira@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "moira@example.com")
	}
	if got.LastCall != 0 {
		t.Errorf("LastCall = %d, want 0 at creation", got.LastCall)
	}
}

func TestUserCreate_DuplicateIdentifier(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")

	duplicate := &model.User{
		Identifier: "moira_b",
		Email:      "other@example.com",
		SecretHash: "hash",
	}
	err := db.Create(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate identifier error = %v, want ErrConflict", err)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")

	duplicate := &model.User{
		Identifier: "claire_r",
		Email:      "moira@example.com",
		SecretHash: "hash",
	}
	err := db.Create(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() duplicate email error = %v, want ErrConflict", err)
	}
}

func TestGetByIdentifier_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByIdentifier(context.Background(), "nobody")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByIdentifier() error = %v, want ErrNotFound", err)
	}
}

func TestExistenceChecks(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")
	ctx := context.Background()

	if ok, _ := db.IdentifierExists(ctx, "moira_b"); !ok {
		t.Error("IdentifierExists() = false for existing identifier")
	}
	if ok, _ := db.IdentifierExists(ctx, "nobody"); ok {
		t.Error("IdentifierExists() = true for missing identifier")
	}
	if ok, _ := db.EmailExists(ctx, "moira@example.com"); !ok {
		t.Error("EmailExists() = false for existing email")
	}
	if ok, _ := db.EmailExists(ctx, "nobody@example.com"); ok {
		t.Error("EmailExists() = true for missing email")
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")
	ctx := context.Background()

	if err := db.UpdateEmail(ctx, "moira_b", "new@example.com"); err != nil {
		t.Fatalf("UpdateEmail() error = %v", err)
	}

	got, err := db.GetByIdentifier(ctx, "moira_b")
	if err != nil {
		t.Fatalf("GetByIdentifier() error = %v", err)
	}
	if got.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "new@example.com")
	}
}

func TestUpdateEmail_MissingUser(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateEmail(context.Background(), "nobody", "new@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateEmail() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSecretHash(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")
	ctx := context.Background()

	if err := db.UpdateSecretHash(ctx, "moira_b", "newhash"); err != nil {
		t.Fatalf("UpdateSecretHash() error = %v", err)
	}
	got, _ := db.GetByIdentifier(ctx, "moira_b")
	if got.SecretHash != "newhash" {
		t.Errorf("SecretHash = %q, want %q", got.SecretHash, "newhash")
	}
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")
	ctx := context.Background()

	if err := db.Delete(ctx, "moira_b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.GetByIdentifier(ctx, "moira_b"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByIdentifier() after delete error = %v, want ErrNotFound", err)
	}

	if err := db.Delete(ctx, "moira_b"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// RATE LIMIT TIMESTAMP TESTS
// =========================================================================

func TestTouchLastCall(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")
	ctx := context.Background()

	now := time.Now().UnixMilli()

	// First call: last_call is 0, so any now >= minGap passes.
	ok, err := db.TouchLastCall(ctx, "moira_b", now, 1000)
	if err != nil {
		t.Fatalf("TouchLastCall() error = %v", err)
	}
	if !ok {
		t.Fatal("TouchLastCall() first call = false, want true")
	}

	// 400ms later: inside the window, must be refused and leave the
	// timestamp untouched.
	ok, err = db.TouchLastCall(ctx, "moira_b", now+400, 1000)
	if err != nil {
		t.Fatalf("TouchLastCall() error = %v", err)
	}
	if ok {
		t.Fatal("TouchLastCall() within window = true, want false")
	}
	got, _ := db.GetByIdentifier(ctx, "moira_b")
	if got.LastCall != now {
		t.Errorf("LastCall = %d after refused call, want unchanged %d", got.LastCall, now)
	}

	// 1000ms later: exactly at the boundary, admitted again.
	ok, err = db.TouchLastCall(ctx, "moira_b", now+1000, 1000)
	if err != nil {
		t.Fatalf("TouchLastCall() error = %v", err)
	}
	if !ok {
		t.Fatal("TouchLastCall() at window boundary = false, want true")
	}
	got, _ = db.GetByIdentifier(ctx, "moira_b")
	if got.LastCall != now+1000 {
		t.Errorf("LastCall = %d, want %d", got.LastCall, now+1000)
	}
}

// Two requests with the same timestamp: the conditional UPDATE admits the
// first and refuses the second — the check and the set are one statement.
func TestTouchLastCall_CheckThenSetIsAtomic(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "moira_b", "moira@example.com")
	ctx := context.Background()

	now := time.Now().UnixMilli()

	first, err := db.TouchLastCall(ctx, "moira_b", now, 1000)
	if err != nil {
		t.Fatalf("TouchLastCall() error = %v", err)
	}
	second, err := db.TouchLastCall(ctx, "moira_b", now, 1000)
	if err != nil {
		t.Fatalf("TouchLastCall() error = %v", err)
	}

	if !first || second {
		t.Errorf("admissions = (%v, %v), want exactly one winner (true, false)", first, second)
	}
}
