package models

import (
	"strings"
	"testing"
)

func TestBandValidate(t *testing.T) {
	b := &Band{Name: "Aldebaran", Region: "zh"}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if b.Region != "ZH" {
		t.Errorf("expected canton code uppercased, got %q", b.Region)
	}

	if err := (&Band{Name: ""}).Validate(); err != ErrBandNameRequired {
		t.Errorf("expected ErrBandNameRequired, got %v", err)
	}
	if err := (&Band{Name: "   "}).Validate(); err != ErrBandNameRequired {
		t.Errorf("expected ErrBandNameRequired for whitespace, got %v", err)
	}
	if err := (&Band{Name: strings.Repeat("x", 64)}).Validate(); err != ErrBandNameTooLong {
		t.Errorf("expected ErrBandNameTooLong, got %v", err)
	}
}

func TestBandMemberValidate(t *testing.T) {
	if err := (&BandMember{Role: RoleAdmin}).Validate(); err != nil {
		t.Errorf("admin role: %v", err)
	}
	if err := (&BandMember{Role: RoleMember}).Validate(); err != nil {
		t.Errorf("member role: %v", err)
	}
	if err := (&BandMember{Role: "manager"}).Validate(); err != ErrInvalidRole {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestBandDetailRoster(t *testing.T) {
	d := &BandDetail{
		Members: []*BandMember{
			{UserID: "u1", Role: RoleAdmin},
			{UserID: "u2", Role: RoleMember},
		},
	}

	if !d.HasMember("u1") || !d.HasMember("u2") {
		t.Error("expected both users on the roster")
	}
	if d.HasMember("u3") {
		t.Error("u3 is not on the roster")
	}
	if d.RoleOf("u1") != RoleAdmin {
		t.Errorf("expected admin, got %q", d.RoleOf("u1"))
	}
	if d.RoleOf("u2") != RoleMember {
		t.Errorf("expected member, got %q", d.RoleOf("u2"))
	}
	if d.RoleOf("u3") != "" {
		t.Errorf("expected empty role for non-member, got %q", d.RoleOf("u3"))
	}
}

func TestValidateCredentials(t *testing.T) {
	if err := ValidateCredentials("mia@example.ch", "longenough"); err != nil {
		t.Errorf("valid credentials rejected: %v", err)
	}
	if err := ValidateCredentials("", "longenough"); err != ErrEmailRequired {
		t.Errorf("expected ErrEmailRequired, got %v", err)
	}
	if err := ValidateCredentials("nodomain", "longenough"); err != ErrEmailInvalid {
		t.Errorf("expected ErrEmailInvalid, got %v", err)
	}
	if err := ValidateCredentials("mia@example.ch", "short"); err != ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
}
