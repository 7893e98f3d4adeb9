package utils

import (
	"errors"
	"io"
	"testing"

	"gorm.io/gorm"
)

func TestNotFoundOrClassifiesPersistenceErrors(t *testing.T) {
	if got := NotFoundOr(gorm.ErrRecordNotFound); !errors.Is(got, ErrorRecordNotFound) {
		t.Fatalf("missing row should map to the not-found kind; got %v", got)
	}

	transient := io.ErrUnexpectedEOF
	if got := NotFoundOr(transient); got != transient {
		t.Fatalf("other persistence errors must pass through unchanged; got %v", got)
	}
	if errors.Is(NotFoundOr(transient), ErrorRecordNotFound) {
		t.Fatal("a transient error must not look like not-found")
	}

	if NotFoundOr(nil) != nil {
		t.Fatal("nil stays nil")
	}
}
