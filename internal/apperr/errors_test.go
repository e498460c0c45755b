package apperr

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(KindDatabase, nil, "should stay nil"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindRPC, cause, "rpc call failed")
	if !errors.Is(err, cause) {
		t.Fatalf("expected Unwrap to expose the original cause")
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindDatabase, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
		{KindRPC, http.StatusBadGateway},
		{KindInvalidAddress, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindWebhookDeliveryFailed, http.StatusBadGateway},
		{KindExternal, http.StatusInternalServerError},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, New(c.kind, "boom"))
		if rec.Code != c.want {
			t.Fatalf("kind %d: expected status %d, got %d", c.kind, c.want, rec.Code)
		}
	}
}

func TestWriteErrorNonAppErrDefaultsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("unexpected"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a non-apperr error, got %d", rec.Code)
	}
}
