package domain

// UnitConversion directed conversion edge: std = value*Factor + Offset.
// The reverse direction is a separate edge; absence of an edge is not an error
// (conversion degrades to identity).
type UnitConversion struct {
	ID       int64   `db:"id"`
	FromUnit string  `db:"from_unit"`
	ToUnit   string  `db:"to_unit"`
	Factor   float64 `db:"factor"`
	Offset   float64 `db:"offset"`
}
