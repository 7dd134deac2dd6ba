package services

import (
	"testing"
	"time"

	"github.com/anonto42/pinpost/backend/internal/models"
)

func TestTokenIssueAndVerify(t *testing.T) {
	ts := NewTokenService("secret", 0)
	want := models.Identity{ID: 7, Name: "ada", Email: "ada@example.com"}

	token, err := ts.Issue(want)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}
}

func TestTokenIssueIsDeterministicWithoutTTL(t *testing.T) {
	ts := NewTokenService("secret", 0)
	id := models.Identity{ID: 1, Name: "a", Email: "a@example.com"}
	first, _ := ts.Issue(id)
	second, _ := ts.Issue(id)
	if first != second {
		t.Fatalf("expected identical tokens")
	}
}

func TestTokenVerifyRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenService("other", 0).Issue(models.Identity{ID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = NewTokenService("secret", 0).Verify(token)
	assertKind(t, err, KindUnauthenticated)
	if err.Error() != "Invalid token" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	ts := NewTokenService("secret", 0)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ts.Verify(token); KindOf(err) != KindUnauthenticated {
			t.Fatalf("token %q: expected unauthenticated, got %v", token, err)
		}
	}
}

func TestTokenExpires(t *testing.T) {
	ts := NewTokenService("secret", time.Minute)
	ts.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := ts.Issue(models.Identity{ID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = ts.Verify(token)
	assertKind(t, err, KindUnauthenticated)
	if err.Error() != "Token expired" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
