package validators

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ramen","count":2}`))
		var dest samplePayload
		if err := DecodeJSONBody(req, &dest); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if dest.Name != "ramen" || dest.Count != 2 {
			t.Fatalf("unexpected payload: %+v", dest)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ramen","count":2,"extra":true}`))
		var dest samplePayload
		err := DecodeJSONBody(req, &dest)
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("field validation reported by json tag", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"count":0}`))
		var dest samplePayload
		err := DecodeJSONBody(req, &dest)
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		// A body past the cap gets truncated mid-document, which fails the
		// decode instead of being read to the end.
		var buf bytes.Buffer
		buf.WriteString(`{"name":"`)
		buf.WriteString(strings.Repeat("a", maxBodyBytes+1024))
		buf.WriteString(`","count":2}`)

		req := httptest.NewRequest("POST", "/", &buf)
		var dest samplePayload
		err := DecodeJSONBody(req, &dest)
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for oversized body, got %v", err)
		}
		if buf.Len() == 0 {
			t.Fatal("reader past the cap must stay undrained")
		}
	})
}
