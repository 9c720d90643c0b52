// Package fertilizer turns a nutrient deficit into an application plan
// built from a balanced 15-15-15 base and single-purpose supplements.
//
// The allocation is greedy and always runs in the same order: Triple 15 up
// to the limiting nutrient, then DAP for phosphorus, KCl for potassium and
// finally Urea for whatever nitrogen DAP did not already supply. Remainders
// at or below MinSupplement kg/ha are not topped up.
package fertilizer

import "math"

// MinSupplement is the remainder, in kg/ha, at or below which no
// supplement is recommended.
const MinSupplement = 1.0

// Requirement is a nutrient mass per axis in kg/ha.
type Requirement struct {
	N float64 `json:"N"`
	P float64 `json:"P"`
	K float64 `json:"K"`
}

func (r Requirement) validate() error {
	for _, axis := range []struct {
		name  string
		value float64
	}{{"N", r.N}, {"P", r.P}, {"K", r.K}} {
		if math.IsNaN(axis.value) || math.IsInf(axis.value, 0) || axis.value < 0 {
			return &InvalidInputError{Nutrient: axis.name, Value: axis.value}
		}
	}
	return nil
}

// Allocate computes the application plan for req. The crop label is only
// used for the plan header.
func Allocate(crop string, req Requirement) (Plan, error) {
	if err := req.validate(); err != nil {
		return Plan{}, err
	}

	plan := Plan{Crop: crop, Requirement: req}

	limiting := math.Min(req.N, math.Min(req.P, req.K))
	if limiting > 0 {
		plan.Items = append(plan.Items, LineItem{
			Role:     RoleBase,
			Product:  Triple15,
			Quantity: quantityFor(limiting, Triple15.N),
			Covers:   limiting,
		})
	}

	nRem := req.N - limiting
	pRem := req.P - limiting
	kRem := req.K - limiting

	if pRem > MinSupplement {
		qty := quantityFor(pRem, DAP.P)
		plan.Items = append(plan.Items, LineItem{Role: RolePhosphorus, Product: DAP, Quantity: qty, Covers: pRem})
		// nRem may go negative here; that only suppresses the urea pass.
		nRem -= DAP.Supplies(qty).N
	}

	if kRem > MinSupplement {
		qty := quantityFor(kRem, KCl.K)
		plan.Items = append(plan.Items, LineItem{Role: RolePotassium, Product: KCl, Quantity: qty, Covers: kRem})
	}

	if nRem > MinSupplement {
		qty := quantityFor(nRem, Urea.N)
		plan.Items = append(plan.Items, LineItem{Role: RoleNitrogen, Product: Urea, Quantity: qty, Covers: nRem})
	}

	return plan, nil
}
