package fertilizer

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roles(p Plan) []Role {
	out := make([]Role, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, item.Role)
	}
	return out
}

func TestAllocateZeroRequirement(t *testing.T) {
	plan, err := Allocate("rice", Requirement{})
	require.NoError(t, err)

	assert.Empty(t, plan.Items)
	assert.Equal(t, []string{
		"CULTIVO: RICE",
		"Requerimiento Neto (kg/ha): N=0.0, P=0.0, K=0.0",
		"",
		"PLAN DE FERTILIZACION SUGERIDO (Base 15-15-15):",
		"",
		"NOTA TECNICA:",
		"Aplicar Triple 15 y DAP a la siembra.",
		"Aplicar Urea y KCl en etapa de desarrollo.",
	}, plan.Lines())
}

func TestAllocateBalancedOnly(t *testing.T) {
	plan, err := Allocate("coffee", Requirement{N: 30, P: 30, K: 30})
	require.NoError(t, err)

	require.Len(t, plan.Items, 1)
	assert.Equal(t, RoleBase, plan.Items[0].Role)
	assert.Equal(t, Triple15, plan.Items[0].Product)
	assert.InDelta(t, 200.0, plan.Items[0].Quantity, 1e-9)
	assert.Contains(t, plan.Text(), "- BASE: Aplicar 200.00 kg/ha de Triple 15\n  (Cubre 30.0 kg iniciales de N, P y K)")
}

func TestAllocatePhosphorusCreditsNitrogen(t *testing.T) {
	plan, err := Allocate("maize", Requirement{N: 10, P: 40, K: 40})
	require.NoError(t, err)

	assert.Equal(t, []Role{RoleBase, RolePhosphorus, RolePotassium}, roles(plan))
	assert.InDelta(t, 66.6667, plan.Items[0].Quantity, 1e-4)
	assert.InDelta(t, 65.2174, plan.Items[1].Quantity, 1e-4)
	assert.InDelta(t, 50.0, plan.Items[2].Quantity, 1e-9)

	want := strings.Join([]string{
		"CULTIVO: MAIZE",
		"Requerimiento Neto (kg/ha): N=10.0, P=40.0, K=40.0",
		"",
		"PLAN DE FERTILIZACION SUGERIDO (Base 15-15-15):",
		"- BASE: Aplicar 66.67 kg/ha de Triple 15",
		"  (Cubre 10.0 kg iniciales de N, P y K)",
		"- REFUERZO P: Aplicar 65.22 kg/ha de DAP (18-46-0)",
		"- REFUERZO K: Aplicar 50.00 kg/ha de KCl (0-0-60)",
		"",
		"NOTA TECNICA:",
		"Aplicar Triple 15 y DAP a la siembra.",
		"Aplicar Urea y KCl en etapa de desarrollo.",
	}, "\n")
	assert.Equal(t, want, plan.Text())
}

func TestAllocateSkipsBaseWhenANutrientIsZero(t *testing.T) {
	plan, err := Allocate("banana", Requirement{N: 0, P: 20, K: 10})
	require.NoError(t, err)

	assert.Equal(t, []Role{RolePhosphorus, RolePotassium}, roles(plan))
	assert.InDelta(t, 20.0/46*100, plan.Items[0].Quantity, 1e-9)
	assert.InDelta(t, 10.0/60*100, plan.Items[1].Quantity, 1e-9)
	assert.NotContains(t, plan.Text(), "BASE")
}

func TestAllocateNitrogenOnly(t *testing.T) {
	plan, err := Allocate("cotton", Requirement{N: 50})
	require.NoError(t, err)

	require.Equal(t, []Role{RoleNitrogen}, roles(plan))
	assert.Contains(t, plan.Text(), "- REFUERZO N: Aplicar 108.70 kg/ha de Urea (46-0-0)")
}

func TestAllocateNitrogenAfterPhosphorusDeduction(t *testing.T) {
	plan, err := Allocate("grapes", Requirement{N: 40, P: 20, K: 10})
	require.NoError(t, err)

	require.Equal(t, []Role{RoleBase, RolePhosphorus, RoleNitrogen}, roles(plan))
	dap := plan.Items[1].Quantity
	wantN := 30 - dap*0.18
	assert.InDelta(t, wantN, plan.Items[2].Covers, 1e-9)
	assert.InDelta(t, wantN/46*100, plan.Items[2].Quantity, 1e-9)
}

func TestAllocateOrderIgnoresMagnitudes(t *testing.T) {
	plan, err := Allocate("mango", Requirement{N: 100, P: 50, K: 80})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleBase, RolePotassium, RoleNitrogen}, roles(plan))

	plan, err = Allocate("mango", Requirement{N: 90, P: 95, K: 99})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleBase, RolePhosphorus, RolePotassium}, roles(plan))
}

func TestAllocateThreshold(t *testing.T) {
	tests := []struct {
		name string
		req  Requirement
		want []Role
	}{
		{"remainders below threshold", Requirement{N: 11, P: 10.5, K: 11}, []Role{RoleBase}},
		{"remainder exactly at threshold", Requirement{N: 11, P: 10, K: 11}, []Role{RoleBase}},
		{"remainder just above threshold", Requirement{N: 10, P: 10, K: 11.01}, []Role{RoleBase, RolePotassium}},
		{"tiny single nutrient", Requirement{P: 0.9}, []Role{}},
		{"DAP nitrogen suppresses urea", Requirement{N: 5, P: 30}, []Role{RolePhosphorus}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Allocate("papaya", tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, roles(plan))
		})
	}
}

func TestAllocateCoverage(t *testing.T) {
	values := []float64{0, 0.5, 1, 1.5, 7.3, 15, 42.1, 80, 140.25}
	const eps = 1e-9

	for _, n := range values {
		for _, p := range values {
			for _, k := range values {
				req := Requirement{N: n, P: p, K: k}
				plan, err := Allocate("orange", req)
				require.NoError(t, err)

				got := plan.Contribution()
				assert.GreaterOrEqual(t, got.N, req.N-MinSupplement-eps, "N for %+v", req)
				assert.GreaterOrEqual(t, got.P, req.P-MinSupplement-eps, "P for %+v", req)
				assert.GreaterOrEqual(t, got.K, req.K-MinSupplement-eps, "K for %+v", req)

				// P and K never receive more than requested; only DAP over-supplies N.
				assert.LessOrEqual(t, got.P, req.P+eps, "P for %+v", req)
				assert.LessOrEqual(t, got.K, req.K+eps, "K for %+v", req)
			}
		}
	}
}

func TestAllocateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		req      Requirement
		nutrient string
	}{
		{"negative nitrogen", Requirement{N: -1, P: 10, K: 10}, "N"},
		{"NaN phosphorus", Requirement{N: 1, P: math.NaN(), K: 10}, "P"},
		{"infinite potassium", Requirement{N: 1, P: 1, K: math.Inf(1)}, "K"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Allocate("apple", tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.nutrient, inputErr.Nutrient)
		})
	}
}

func TestAllocateIsDeterministic(t *testing.T) {
	req := Requirement{N: 61.237, P: 33.9, K: 12.004}
	first, err := Allocate("coconut", req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again, err := Allocate("coconut", req)
			assert.NoError(t, err)
			assert.Equal(t, first.Text(), again.Text())
		}()
	}
	wg.Wait()
}

func TestRequirementRounded(t *testing.T) {
	r := Requirement{N: 12.3456, P: 0.004, K: 99.995001}.Rounded()
	assert.Equal(t, Requirement{N: 12.35, P: 0, K: 100}, r)
}
