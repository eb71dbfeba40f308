package domain

import "time"

// Label is a single name/value pair attached to a series.
type Label struct {
	Name  string
	Value string
}

// Sample is one observation of one series: a metric name, its labels
// (resource identifiers plus the constant hostname label; the reserved
// name label is attached at encode time), a float64 value, and the tick
// timestamp.
type Sample struct {
	Name      string
	Labels    []Label
	Value     float64
	Timestamp time.Time
}

// L is shorthand for building a label in catalogue code.
func L(name, value string) Label {
	return Label{Name: name, Value: value}
}
