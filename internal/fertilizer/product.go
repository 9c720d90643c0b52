package fertilizer

// Product is a commercial fertilizer with its guaranteed N-P-K content
// expressed as whole-number percentages (15 means 15%).
type Product struct {
	Name  string
	Label string
	N     float64
	P     float64
	K     float64
}

var (
	Triple15 = Product{Name: "triple_15", Label: "Triple 15", N: 15, P: 15, K: 15}
	DAP      = Product{Name: "dap", Label: "DAP (18-46-0)", N: 18, P: 46}
	KCl      = Product{Name: "kcl", Label: "KCl (0-0-60)", K: 60}
	Urea     = Product{Name: "urea", Label: "Urea (46-0-0)", N: 46}
)

// Supplies returns the nutrient mass delivered by applying quantity kg/ha
// of the product.
func (p Product) Supplies(quantity float64) Requirement {
	return Requirement{
		N: quantity * p.N / 100,
		P: quantity * p.P / 100,
		K: quantity * p.K / 100,
	}
}

// quantityFor is the application rate that delivers amount kg/ha of a
// nutrient present at percent in the product.
func quantityFor(amount, percent float64) float64 {
	return (amount / percent) * 100
}
