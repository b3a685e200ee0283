package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	t.Parallel()
	meta := MetadataFor(CodeValidation)
	if meta.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation, got %d", meta.HTTPStatus)
	}
	if meta.Retryable {
		t.Fatal("validation errors must not be retryable")
	}

	meta = MetadataFor(CodeDependency)
	if !meta.Retryable {
		t.Fatal("dependency errors must be retryable")
	}

	meta = MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must fall back to internal, got %d", meta.HTTPStatus)
	}
}

func TestGatewayUnavailableMetadata(t *testing.T) {
	t.Parallel()
	meta := MetadataFor(CodeGatewayUnavailable)
	if meta.Retryable {
		t.Fatal("gateway unavailable is terminal for the attempt")
	}
	if meta.PublicMessage != "payment method unavailable" {
		t.Fatalf("unexpected public message %q", meta.PublicMessage)
	}
}

func TestWrapAndAs(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "calculate shipping")

	typed := As(err)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if typed.Unwrap() != cause {
		t.Fatal("expected original cause preserved")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if As(wrapped) == nil {
		t.Fatal("expected As to traverse wrapping")
	}
	if As(cause) != nil {
		t.Fatal("plain errors must not convert")
	}
}

func TestCodeOfAndIsRetryable(t *testing.T) {
	t.Parallel()
	if CodeOf(fmt.Errorf("plain")) != CodeInternal {
		t.Fatal("plain errors default to internal")
	}
	if !IsRetryable(New(CodeDependency, "timeout")) {
		t.Fatal("dependency should be retryable")
	}
	if IsRetryable(New(CodeValidation, "missing address")) {
		t.Fatal("validation should not be retryable")
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()
	err := New(CodeValidation, "missing shipping selection").
		WithDetails(map[string]string{"seller_id": "abc"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["seller_id"] != "abc" {
		t.Fatalf("unexpected details %v", err.Details())
	}
	if err.Error() != "VALIDATION_ERROR: missing shipping selection" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}
