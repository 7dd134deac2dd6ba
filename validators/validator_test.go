package validators

import (
	"errors"
	"testing"

	"github.com/anonto42/pinpost/backend/internal/models"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&models.RegisterRequest{Email: "not-an-email"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError got %v", err)
	}

	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}
	want := map[string]string{
		"name":     "name is required",
		"email":    "email format not valid",
		"password": "password is required",
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Fatalf("%s: expected %q got %q", field, msg, got[field])
		}
	}
	if _, ok := got["profilePicture"]; ok {
		t.Fatalf("optional profilePicture reported")
	}
}

func TestValidateDataURI(t *testing.T) {
	v := NewValidator()
	req := &models.CreatePostRequest{Name: "a", Location: "b", Description: "c", Image: "https://example.com/x.png"}

	err := v.Validate(req)
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 1 || verr.Fields[0].Field != "image" {
		t.Fatalf("expected image error got %v", err)
	}
	if verr.Fields[0].Message != "image must be a base64 data URI" {
		t.Fatalf("unexpected message %q", verr.Fields[0].Message)
	}

	req.Image = "data:image/png;base64,iVBORw0KGgo="
	if err := v.Validate(req); err != nil {
		t.Fatalf("expected valid request got %v", err)
	}
}

func TestValidatePartialUpdate(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(&models.UpdatePostRequest{}); err != nil {
		t.Fatalf("empty update should be valid: %v", err)
	}

	empty := ""
	err := v.Validate(&models.UpdatePostRequest{Name: &empty})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Message != "name must not be empty" {
		t.Fatalf("expected empty-name error got %v", err)
	}
}
