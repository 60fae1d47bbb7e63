package tree

import (
	"fmt"
	"sort"
)

// AttributeType tells the split search how to read a column.
type AttributeType int

const (
	// Numeric columns are split by a threshold: x <= v goes to the true branch.
	Numeric AttributeType = iota
	// Nominal columns hold category codes and are split by equality: x == v
	// goes to the true branch.
	Nominal
)

func (t AttributeType) String() string {
	if t == Nominal {
		return "nominal"
	}
	return "numeric"
}

// Attribute describes one input column.
type Attribute struct {
	Type AttributeType
	Name string
}

// NumericAttribute returns a numeric attribute with the given name.
func NumericAttribute(name string) Attribute {
	return Attribute{Type: Numeric, Name: name}
}

// NominalAttribute returns a nominal attribute with the given name.
func NominalAttribute(name string) Attribute {
	return Attribute{Type: Nominal, Name: name}
}

// InferAttributes returns p numeric attributes named V1..Vp.
func InferAttributes(p int) []Attribute {
	attributes := make([]Attribute, p)
	for j := range attributes {
		attributes[j] = NumericAttribute(fmt.Sprintf("V%d", j+1))
	}
	return attributes
}

// SortAttributes computes the attribute order used by numeric split search:
// for every numeric attribute a permutation of the sample indices sorted by
// ascending value, nil for nominal attributes. Equal values keep their
// original relative order. The result can be shared by every tree trained on
// the same instances.
func SortAttributes(instances [][]float64, attributes []Attribute) [][]int {
	n := len(instances)
	order := make([][]int, len(attributes))

	for j, attr := range attributes {
		if attr.Type != Numeric {
			continue
		}

		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}

		feature := j
		sort.SliceStable(indices, func(a, b int) bool {
			return instances[indices[a]][feature] < instances[indices[b]][feature]
		})

		order[j] = indices
	}

	return order
}
