package model

import (
	"errors"
	"strings"
	"testing"
)

func validEvent() *Event {
	return &Event{
		OriginID:   -100,
		SequenceID: 10,
		ActorID:    42,
		OccurredAt: 1700000000,
		OriginKind: OriginSupergroup,
	}
}

func TestValidateEvent_Valid(t *testing.T) {
	if err := ValidateEvent(validEvent()); err != nil {
		t.Fatalf("expected valid event, got %v", err)
	}
}

func TestValidateEvent_UnknownKindAccepted(t *testing.T) {
	e := validEvent()
	e.OriginKind = "forum"
	if err := ValidateEvent(e); err != nil {
		t.Fatalf("unknown kinds must pass validation, got %v", err)
	}
}

func TestValidateEvent_Fields(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Event)
		field  string
	}{
		{"missing origin", func(e *Event) { e.OriginID = 0 }, "origin_id"},
		{"zero sequence", func(e *Event) { e.SequenceID = 0 }, "sequence_id"},
		{"negative sequence", func(e *Event) { e.SequenceID = -3 }, "sequence_id"},
		{"missing actor", func(e *Event) { e.ActorID = 0 }, "actor_id"},
		{"negative time", func(e *Event) { e.OccurredAt = -1 }, "occurred_at"},
		{"blank kind", func(e *Event) { e.OriginKind = " " }, "origin_kind"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := validEvent()
			tc.mutate(e)
			err := ValidateEvent(e)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(ve.Errors) != 1 || ve.Errors[0].Field != tc.field {
				t.Fatalf("errors = %+v, want one on %s", ve.Errors, tc.field)
			}
		})
	}
}

func TestValidateEvent_CollectsAllErrors(t *testing.T) {
	err := ValidateEvent(&Event{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Errors) != 4 {
		t.Fatalf("expected 4 errors, got %+v", ve.Errors)
	}
	if !strings.HasPrefix(err.Error(), "validation failed: origin_id: is required; ") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	if (&ValidationError{}).HasErrors() {
		t.Error("empty ValidationError reports errors")
	}
	ve := &ValidationError{Errors: []FieldError{{Field: "f", Message: "m"}}}
	if !ve.HasErrors() {
		t.Error("HasErrors = false with one error")
	}
	if ve.Error() != "validation failed: f: m" {
		t.Errorf("Error() = %q", ve.Error())
	}
}
