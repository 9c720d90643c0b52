// Package translate maps names between the mobile client's vocabulary and
// the labels the models were trained on. Lookups never fail: a name that is
// not in a table is returned as is.
package translate

import "strings"

var cropLabels = map[string]string{
	"cafe":     "coffee",
	"arroz":    "rice",
	"maiz":     "maize",
	"banano":   "banana",
	"platano":  "banana",
	"manzana":  "apple",
	"frijol":   "kidneybeans",
	"frijoles": "kidneybeans",
	"papaya":   "papaya",
	"sandia":   "watermelon",
	"uvas":     "grapes",
	"mango":    "mango",
	"naranja":  "orange",
	"limon":    "orange",
	"algodon":  "cotton",
	"coco":     "coconut",
}

var diseaseLabels = map[string]string{
	"Papa_Sana":         "Papa Saludable",
	"Papa_Tizon":        "Papa Enferma (Tizón)",
	"Pimiento_Sano":     "Pimiento Saludable",
	"Pimiento_Bacteria": "Pimiento Enfermo (Bacteriosis)",
	"Tomate_Sano":       "Tomate Saludable",
	"Tomate_Bacteria":   "Tomate Enfermo (Bacteriosis)",
}

// Crop returns the model label for a crop name. The input is lowercased and
// trimmed first, and that normalized form is returned when unmapped.
func Crop(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if label, ok := cropLabels[key]; ok {
		return label
	}
	return key
}

// Disease returns the farmer-facing label for a classifier class.
func Disease(class string) string {
	if label, ok := diseaseLabels[class]; ok {
		return label
	}
	return class
}

// KnownCrop reports whether label is one of the canonical labels the crop
// table maps to.
func KnownCrop(label string) bool {
	for _, known := range cropLabels {
		if known == label {
			return true
		}
	}
	return false
}
