package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
)

func TestCreateRejectsInvalidPlans(t *testing.T) {
	svc := NewService(nil, 60)

	cases := []struct {
		name string
		plan Plan
	}{
		{"unknown type", Plan{Name: "Bad", PlanType: Type("Layaway"), DurationMonths: 6}},
		{"zero duration", Plan{Name: "Bad", PlanType: TypeInstallment, DurationMonths: 0}},
		{"duration above cap", Plan{Name: "Bad", PlanType: TypeInstallment, DurationMonths: 61}},
		{"negative interest", Plan{Name: "Bad", PlanType: TypeFixedDuration, DurationMonths: 3, InterestRateBps: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.plan)
			var appErr *common.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != "VALIDATION" {
				t.Fatalf("expected VALIDATION, got %s", appErr.Code)
			}
		})
	}
}

func TestNewServiceDefaultsMaxMonths(t *testing.T) {
	svc := NewService(nil, 0)
	if svc.MaxMonths != 60 {
		t.Fatalf("expected default cap of 60, got %d", svc.MaxMonths)
	}
}

func TestTypeValid(t *testing.T) {
	if !TypeInstallment.Valid() || !TypeFixedDuration.Valid() {
		t.Fatal("known types must be valid")
	}
	if Type("COD").Valid() {
		t.Fatal("unknown type must be invalid")
	}
}
