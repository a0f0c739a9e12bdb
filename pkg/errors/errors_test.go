package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeConfiguration, status: http.StatusInternalServerError, publicMsg: "limiter configuration invalid", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "could not verify cart", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing slug")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing slug" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "slug"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("redis down")
	wrapped := Wrap(CodeDependency, cause, "load cart")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestRecodeKeepsMessageAndDetails(t *testing.T) {
	cause := stdErrors.New("step must be at least 1")
	original := Wrap(CodeConfiguration, cause, "invalid limiter rules").
		WithDetails([]string{"rule[0].step"})

	recoded := Recode(fmt.Errorf("replace: %w", original), CodeValidation)
	if recoded.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", recoded.Code())
	}
	if recoded.Message() != "invalid limiter rules" {
		t.Fatalf("unexpected message %q", recoded.Message())
	}
	if recoded.Details() == nil {
		t.Fatalf("expected details to survive recode")
	}
	if !stdErrors.Is(recoded, cause) {
		t.Fatalf("expected cause to survive recode")
	}
	if original.Code() != CodeConfiguration {
		t.Fatalf("recode must not mutate the original")
	}

	plain := Recode(stdErrors.New("boom"), CodeInternal)
	if plain.Code() != CodeInternal {
		t.Fatalf("expected untyped error to be wrapped")
	}
	if Recode(nil, CodeInternal) != nil {
		t.Fatalf("Recode(nil) should return nil")
	}
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if !IsCode(err, CodeForbidden) {
		t.Fatalf("expected IsCode to match")
	}
	if IsCode(stdErrors.New("plain"), CodeForbidden) {
		t.Fatalf("plain error should not match a code")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpCollectsChainAndPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "limiter_rules_slug_key", TableName: "limiter_rules"}
	err := Wrap(CodeInternal, pgErr, "persist rules")

	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
	if d.PGCode != "23505" || d.PGConstraint != "limiter_rules_slug_key" {
		t.Fatalf("unexpected pg diagnostics %+v", d)
	}

	fields := d.Fields()
	if fields["pg_table"] != "limiter_rules" {
		t.Fatalf("expected pg_table field, got %v", fields)
	}

	pqDump := Dump(fmt.Errorf("wrap: %w", &pq.Error{Code: "23503", Table: "product_category_links"}))
	if pqDump.PGCode != "23503" || pqDump.PGTable != "product_category_links" {
		t.Fatalf("unexpected pq diagnostics %+v", pqDump)
	}
	if _, ok := pqDump.Fields()["error_code"]; ok {
		t.Fatalf("untyped error should not carry error_code")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
