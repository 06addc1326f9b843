// Package headerc serializes feature vectors into include-guarded C
// header files declaring a const float array, the embedded-array format
// consumed directly by firmware builds.
//
// Encoding is a pure function: identical input values and parameters
// always yield byte-identical text, so artifacts are diffable and can be
// verified against golden files.
package headerc

import (
	"fmt"
	"math"
	"strings"

	"github.com/edgekit/edge-profiler/pkg/types"
)

// SingleLine writes the entire vector on one value line, the layout used
// for audio fingerprint exports
const SingleLine = 0

// DefaultValuesPerLine is the wrap width used by image and tensor exports
const DefaultValuesPerLine = 8

// Encode renders values as an include-guarded C header declaring
// `const float <varName>[N]`. Each value is written with four decimal
// digits and an `f` suffix, wrapped every valuesPerLine values.
// valuesPerLine <= 0 selects the single-line layout.
func Encode(values []float32, varName string, valuesPerLine int) (string, error) {
	if err := validate(values, varName); err != nil {
		return "", err
	}
	if valuesPerLine <= 0 {
		valuesPerLine = len(values)
	}

	guard := strings.ToUpper(varName) + "_H"

	var b strings.Builder
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&b, "const float %s[%d] = {\n", varName, len(values))

	for i := 0; i < len(values); i += valuesPerLine {
		end := i + valuesPerLine
		if end > len(values) {
			end = len(values)
		}
		b.WriteString("    ")
		for j := i; j < end; j++ {
			fmt.Fprintf(&b, "%.4ff", values[j])
			if j != len(values)-1 {
				b.WriteString(",")
			}
			if j != end-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("};\n\n#endif\n")
	return b.String(), nil
}

func validate(values []float32, varName string) error {
	if len(values) == 0 {
		return &types.ValidationError{Field: "values", Reason: "empty vector"}
	}
	if !validIdentifier(varName) {
		return &types.ValidationError{
			Field:  "variable_name",
			Reason: fmt.Sprintf("%q is not a valid C identifier", varName),
		}
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &types.ValidationError{
				Field:  "values",
				Reason: fmt.Sprintf("non-finite value %v at index %d", v, i),
			}
		}
	}
	return nil
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
