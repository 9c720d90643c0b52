package fertilizer

import (
	"fmt"
	"math"
	"strings"
)

type Role string

const (
	RoleBase       Role = "base"
	RolePhosphorus Role = "phosphorus"
	RolePotassium  Role = "potassium"
	RoleNitrogen   Role = "nitrogen"
)

// LineItem is one product application. Covers is the remainder, in kg/ha,
// that the item was sized against.
type LineItem struct {
	Role     Role
	Product  Product
	Quantity float64
	Covers   float64
}

// Plan is the result of Allocate. Items are ordered base, phosphorus,
// potassium, nitrogen; absent passes are simply missing.
type Plan struct {
	Crop        string
	Requirement Requirement
	Items       []LineItem
}

var footer = []string{
	"",
	"NOTA TECNICA:",
	"Aplicar Triple 15 y DAP a la siembra.",
	"Aplicar Urea y KCl en etapa de desarrollo.",
}

// Lines renders the plan as the text lines shown to the farmer.
func (p Plan) Lines() []string {
	lines := []string{
		fmt.Sprintf("CULTIVO: %s", strings.ToUpper(p.Crop)),
		fmt.Sprintf("Requerimiento Neto (kg/ha): N=%.1f, P=%.1f, K=%.1f", p.Requirement.N, p.Requirement.P, p.Requirement.K),
		"",
		"PLAN DE FERTILIZACION SUGERIDO (Base 15-15-15):",
	}

	for _, item := range p.Items {
		switch item.Role {
		case RoleBase:
			lines = append(lines,
				fmt.Sprintf("- BASE: Aplicar %.2f kg/ha de %s", item.Quantity, item.Product.Label),
				fmt.Sprintf("  (Cubre %.1f kg iniciales de N, P y K)", item.Covers),
			)
		case RolePhosphorus:
			lines = append(lines, fmt.Sprintf("- REFUERZO P: Aplicar %.2f kg/ha de %s", item.Quantity, item.Product.Label))
		case RolePotassium:
			lines = append(lines, fmt.Sprintf("- REFUERZO K: Aplicar %.2f kg/ha de %s", item.Quantity, item.Product.Label))
		case RoleNitrogen:
			lines = append(lines, fmt.Sprintf("- REFUERZO N: Aplicar %.2f kg/ha de %s", item.Quantity, item.Product.Label))
		}
	}

	return append(lines, footer...)
}

func (p Plan) Text() string {
	return strings.Join(p.Lines(), "\n")
}

// Contribution sums the nutrients delivered by every line item.
func (p Plan) Contribution() Requirement {
	var total Requirement
	for _, item := range p.Items {
		s := item.Product.Supplies(item.Quantity)
		total.N += s.N
		total.P += s.P
		total.K += s.K
	}
	return total
}

// Round2 rounds to two decimals for display and API payloads.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rounded returns the requirement rounded to two decimals.
func (r Requirement) Rounded() Requirement {
	return Requirement{N: Round2(r.N), P: Round2(r.P), K: Round2(r.K)}
}
