package checkout

import (
	"reflect"
	"testing"
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/installment"
	"github.com/technest-ghazi/backend-bnpl/internal/order"
	"github.com/technest-ghazi/backend-bnpl/internal/plan"
)

var fixedOrderDate = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func installmentPlan(months int) *plan.Plan {
	return &plan.Plan{ID: "plan-inst", Name: "Monthly", PlanType: plan.TypeInstallment, DurationMonths: months}
}

func fixedPlan(months int) *plan.Plan {
	return &plan.Plan{ID: "plan-fixed", Name: "Deferred", PlanType: plan.TypeFixedDuration, DurationMonths: months}
}

func TestComposeMixedCart(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 50000, Quantity: 1, Method: order.MethodCOD},
		{ProductID: "p2", UnitPrice: 120000, Quantity: 1, Method: order.MethodBNPL, Plan: installmentPlan(4)},
	}
	got := Compose(items, fixedOrderDate, 0)

	if got.Method != order.MethodMixed {
		t.Fatalf("expected Mixed, got %s", got.Method)
	}
	if got.CODAmount != 50000 || got.BNPLAmount != 120000 {
		t.Fatalf("unexpected split: cod=%d bnpl=%d", got.CODAmount, got.BNPLAmount)
	}
	if got.Status != order.StatusMixedPending {
		t.Fatalf("expected %q, got %q", order.StatusMixedPending, got.Status)
	}
	if len(got.Installments) != 4 {
		t.Fatalf("expected 4 installments, got %d", len(got.Installments))
	}
	if sum := installment.Total(got.Installments); sum != 120000 {
		t.Fatalf("installments sum to %d, want 120000", sum)
	}
	if got.Preference == nil || *got.Preference != order.PreferencePendingChoice {
		t.Fatalf("expected Pending Choice preference, got %v", got.Preference)
	}
}

func TestComposePureCOD(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 30000, Quantity: 2, Method: order.MethodCOD},
	}
	got := Compose(items, fixedOrderDate, 0)

	if got.Method != order.MethodCOD {
		t.Fatalf("expected COD, got %s", got.Method)
	}
	if got.Status != order.StatusUnpaidCOD {
		t.Fatalf("expected %q, got %q", order.StatusUnpaidCOD, got.Status)
	}
	if len(got.Installments) != 0 || got.FixedDurationDueDate != nil {
		t.Fatalf("COD order must not carry a BNPL component: %+v", got)
	}
	if got.Preference != nil {
		t.Fatalf("COD order must not carry a preference, got %v", *got.Preference)
	}
	if got.Subtotal != 60000 || got.GrandTotal != 60000 {
		t.Fatalf("unexpected totals: subtotal=%d grand=%d", got.Subtotal, got.GrandTotal)
	}
}

func TestComposeFixedDuration(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 200000, Quantity: 1, Method: order.MethodBNPL, Plan: fixedPlan(6)},
	}
	got := Compose(items, fixedOrderDate, 0)

	if got.Method != order.MethodFixedDuration {
		t.Fatalf("expected FixedDuration, got %s", got.Method)
	}
	if got.Status != order.StatusUnpaidFixedDuration {
		t.Fatalf("expected %q, got %q", order.StatusUnpaidFixedDuration, got.Status)
	}
	if got.FixedDurationAmountDue == nil || *got.FixedDurationAmountDue != 200000 {
		t.Fatalf("expected amount due 200000, got %v", got.FixedDurationAmountDue)
	}
	wantDue := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	if got.FixedDurationDueDate == nil || !got.FixedDurationDueDate.Equal(wantDue) {
		t.Fatalf("expected due date %v, got %v", wantDue, got.FixedDurationDueDate)
	}
	if got.Preference != nil {
		t.Fatalf("fixed-duration order must not carry a preference")
	}
}

func TestComposeFixedDurationLineMethod(t *testing.T) {
	// Cart lines carry the fixed-duration plan under MethodFixedDuration;
	// the composer must finance them the same as MethodBNPL lines.
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 200000, Quantity: 1, Method: order.MethodFixedDuration, Plan: fixedPlan(6)},
	}
	got := Compose(items, fixedOrderDate, 0)

	if got.Method != order.MethodFixedDuration {
		t.Fatalf("expected FixedDuration, got %s", got.Method)
	}
	if got.BNPLAmount != 200000 || got.Subtotal != 200000 {
		t.Fatalf("financed amount lost: bnpl=%d subtotal=%d", got.BNPLAmount, got.Subtotal)
	}
	if got.FixedDurationAmountDue == nil || *got.FixedDurationAmountDue != 200000 {
		t.Fatalf("expected amount due 200000, got %v", got.FixedDurationAmountDue)
	}
	if got.Status != order.StatusUnpaidFixedDuration {
		t.Fatalf("expected %q, got %q", order.StatusUnpaidFixedDuration, got.Status)
	}
}

func TestComposeMixedCODAndFixedDurationLine(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 50000, Quantity: 1, Method: order.MethodCOD},
		{ProductID: "p2", UnitPrice: 200000, Quantity: 1, Method: order.MethodFixedDuration, Plan: fixedPlan(6)},
	}
	got := Compose(items, fixedOrderDate, 0)

	if got.Method != order.MethodMixed {
		t.Fatalf("expected Mixed, got %s", got.Method)
	}
	if got.CODAmount != 50000 || got.BNPLAmount != 200000 {
		t.Fatalf("unexpected split: cod=%d bnpl=%d", got.CODAmount, got.BNPLAmount)
	}
	if got.Status != order.StatusMixedPending {
		t.Fatalf("expected %q, got %q", order.StatusMixedPending, got.Status)
	}
	wantDue := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	if got.FixedDurationDueDate == nil || !got.FixedDurationDueDate.Equal(wantDue) {
		t.Fatalf("expected due date %v, got %v", wantDue, got.FixedDurationDueDate)
	}
}

func TestComposePureBNPLInstallment(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 90000, Quantity: 1, Method: order.MethodBNPL, Plan: installmentPlan(3)},
	}
	got := Compose(items, fixedOrderDate, 0)
	if got.Method != order.MethodBNPL {
		t.Fatalf("expected BNPL, got %s", got.Method)
	}
	if got.Status != order.StatusUnpaidBNPL {
		t.Fatalf("expected %q, got %q", order.StatusUnpaidBNPL, got.Status)
	}
}

func TestComposeAnomalousPlanFlagsReview(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 90000, Quantity: 1, Method: order.MethodBNPL, Plan: installmentPlan(0)},
	}
	got := Compose(items, fixedOrderDate, 0)
	if got.Status != order.StatusPendingReview {
		t.Fatalf("expected %q, got %q", order.StatusPendingReview, got.Status)
	}
	if len(got.Installments) != 0 {
		t.Fatalf("anomalous plan must not produce a schedule")
	}
}

func TestComposeEmptyCartIsUnknown(t *testing.T) {
	got := Compose(nil, fixedOrderDate, 0)
	if got.Method != order.MethodUnknown {
		t.Fatalf("expected Unknown, got %s", got.Method)
	}
	if got.Status != order.StatusPendingReview {
		t.Fatalf("expected %q, got %q", order.StatusPendingReview, got.Status)
	}
}

func TestComposeRepresentativePlanIsFirst(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 60000, Quantity: 1, Method: order.MethodBNPL, Plan: installmentPlan(3)},
		{ProductID: "p2", UnitPrice: 40000, Quantity: 1, Method: order.MethodBNPL, Plan: fixedPlan(6)},
	}
	got := Compose(items, fixedOrderDate, 0)
	// The first plan wins: the entire BNPL subtotal is scheduled in
	// installments, including the line that asked for fixed duration.
	if got.Method != order.MethodBNPL {
		t.Fatalf("expected BNPL, got %s", got.Method)
	}
	if len(got.Installments) != 3 {
		t.Fatalf("expected 3 installments governed by the first plan, got %d", len(got.Installments))
	}
	if sum := installment.Total(got.Installments); sum != 100000 {
		t.Fatalf("expected full bnpl subtotal 100000 scheduled, got %d", sum)
	}
	if got.FixedDurationDueDate != nil {
		t.Fatalf("fixed-duration branch must not fire when the representative plan is installment")
	}
}

func TestComposeGrandTotalOverride(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 10000, Quantity: 1, Method: order.MethodCOD},
	}
	got := Compose(items, fixedOrderDate, 12500)
	if got.Subtotal != 10000 || got.GrandTotal != 12500 {
		t.Fatalf("unexpected totals: subtotal=%d grand=%d", got.Subtotal, got.GrandTotal)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 50000, Quantity: 1, Method: order.MethodCOD},
		{ProductID: "p2", UnitPrice: 77700, Quantity: 3, Method: order.MethodBNPL, Plan: installmentPlan(7)},
	}
	first := Compose(items, fixedOrderDate, 0)
	second := Compose(items, fixedOrderDate, 0)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected structurally identical output for identical input")
	}
}

func TestComposeSnapshotsItems(t *testing.T) {
	p := installmentPlan(3)
	items := []order.LineItem{
		{ProductID: "p1", UnitPrice: 30000, Quantity: 1, Method: order.MethodBNPL, Plan: p},
	}
	got := Compose(items, fixedOrderDate, 0)
	p.DurationMonths = 99
	items[0].UnitPrice = 1
	if got.Items[0].Plan.DurationMonths != 3 || got.Items[0].UnitPrice != 30000 {
		t.Fatalf("composed order must snapshot items, got %+v", got.Items[0])
	}
}
