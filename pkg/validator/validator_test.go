package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type readingPayload struct {
	Spread string   `json:"spread" validate:"required"`
	Theme  string   `json:"theme" validate:"required,oneof=love career general"`
	Cards  []string `json:"cards" validate:"min=1,max=10"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := readingPayload{
		Spread: "three_card",
		Theme:  "love",
		Cards:  []string{"the_fool", "the_magician", "the_lovers"},
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := readingPayload{
		Spread: "",
		Theme:  "weather",
		Cards:  nil,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundTheme := false
	for _, v := range vErrs {
		if v.Field == "theme" && v.Tag == "oneof" {
			foundTheme = true
		}
	}

	if !foundTheme {
		t.Fatal("expected theme field to be present in validation errors")
	}
}

func TestValidateVarUsesSuppliedName(t *testing.T) {
	err := ValidateVar("device_id", "not-a-uuid", "required,uuid")
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok || len(vErrs) != 1 {
		t.Fatalf("expected a single ValidationError, got %v", err)
	}
	if vErrs[0].Field != "device_id" || vErrs[0].Tag != "uuid" {
		t.Fatalf("unexpected failure %+v", vErrs[0])
	}

	if err := ValidateVar("device_id", "0b8f7c4e-8a51-4c36-9b7e-3e8f6a0d1c22", "required,uuid"); err != nil {
		t.Fatalf("expected valid uuid, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("major_arcana", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "the_fool"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Card string `validate:"major_arcana"`
	}

	if err := ValidateStruct(custom{Card: "the_fool"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Card: "ace_of_cups"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}
