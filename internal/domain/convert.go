package domain

import "github.com/shopspring/decimal"

// Unit is a weight unit. Device weights are reported in pounds.
type Unit string

const (
	Pounds    Unit = "lb"
	Kilograms Unit = "kg"
)

var kgToLb = decimal.RequireFromString("2.2046226218")

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	return u == Pounds || u == Kilograms
}

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v decimal.Decimal, from, to Unit) decimal.Decimal {
	if from == to {
		return v
	}
	if from == Kilograms && to == Pounds {
		return v.Mul(kgToLb)
	}
	if from == Pounds && to == Kilograms {
		return v.Div(kgToLb)
	}
	return v
}
