package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestAccess(t *testing.T) {
	userID := uuid.New()

	scoped := AsUser(userID)
	if scoped.Privileged() {
		t.Fatal("scoped access must not be privileged")
	}
	if scoped.UserID() != userID {
		t.Fatalf("expected user %s, got %s", userID, scoped.UserID())
	}
	if scoped.String() != "user:"+userID.String() {
		t.Fatalf("unexpected string %q", scoped.String())
	}

	service := AsService()
	if !service.Privileged() {
		t.Fatal("service access must be privileged")
	}
	if service.String() != "service" {
		t.Fatalf("unexpected string %q", service.String())
	}
}

func TestExecTx_RejectsZeroAccess(t *testing.T) {
	s := &store{}
	err := s.ExecTx(context.Background(), Access{}, func(Querier) error {
		t.Fatal("fn must not run without access")
		return nil
	})
	if !errors.Is(err, ErrNoAccess) {
		t.Fatalf("expected ErrNoAccess, got %v", err)
	}

	if err := s.ExecTx(context.Background(), AsUser(uuid.Nil), func(Querier) error { return nil }); !errors.Is(err, ErrNoAccess) {
		t.Fatalf("expected ErrNoAccess for nil user, got %v", err)
	}
}
