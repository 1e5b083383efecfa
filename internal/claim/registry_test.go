package claim

import (
	"testing"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		name    string
		claims  []Claim
		check   Check
		wantErr bool
	}{
		{
			name:   "unique ids",
			claims: []Claim{{ID: "a"}, {ID: "b"}},
			check:  issues(),
		},
		{
			name:    "duplicate id",
			claims:  []Claim{{ID: "a"}, {ID: "a"}},
			check:   issues(),
			wantErr: true,
		},
		{
			name:    "empty id",
			claims:  []Claim{{ID: "  "}},
			check:   issues(),
			wantErr: true,
		},
		{
			name:    "nil check",
			claims:  []Claim{{ID: "a"}},
			check:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			var err error
			for _, c := range tt.claims {
				if err = reg.Register(c, tt.check); err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !goverrors.HasCode(err, goverrors.ErrCodeClaimRegistration) {
				t.Errorf("expected %s, got %v", goverrors.ErrCodeClaimRegistration, err)
			}
		})
	}
}

func TestRegistryOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"version-consistency", "api-schema", "drift-reviewed"} {
		if err := reg.Register(Claim{ID: id, Blocking: id != "api-schema"}, issues()); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}

	claims := reg.Claims()
	if len(claims) != 3 || reg.Len() != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claims))
	}
	if claims[0].ID != "version-consistency" || claims[2].ID != "drift-reviewed" {
		t.Errorf("Claims() not in registration order: %v", claims)
	}
	if claims[1].Blocking {
		t.Errorf("Claims()[1] = %+v, want non-blocking api-schema", claims[1])
	}
}

func TestStatusValidate(t *testing.T) {
	for _, s := range []Status{StatusPass, StatusFail, StatusError} {
		if err := s.Validate(); err != nil {
			t.Errorf("%s should be valid: %v", s, err)
		}
	}
	if err := Status("skipped").Validate(); err == nil {
		t.Error("skipped should be invalid")
	}
}
