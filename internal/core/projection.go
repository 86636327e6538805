package core

// Label names one displayed field. Caption is the Arabic text shown on the
// right-to-left page.
type Label struct {
	Name    string
	Caption string
}

// Labels are the fixed fields shown for a range, read from cells 1..8.
// They alternate charge and ring.
var Labels = []Label{
	{Name: "full fill", Caption: "حشوة تامة"},
	{Name: "ring", Caption: "حيدان"},
	{Name: "first fill", Caption: "حشوة أولى"},
	{Name: "ring", Caption: "حيدان"},
	{Name: "second fill", Caption: "حشوة ثانية"},
	{Name: "ring", Caption: "حيدان"},
	{Name: "third fill", Caption: "حشوة ثالثة"},
	{Name: "ring", Caption: "حيدان"},
}

// Field is one labelled value of a projected row.
type Field struct {
	Label   string `json:"label"`
	Caption string `json:"caption"`
	Value   string `json:"value"`
}

// FieldPair groups a charge with its ring for display.
type FieldPair struct {
	Charge Field
	Ring   Field
}

// Project maps cells 1..len(Labels) of row onto Labels. Missing cells, and a
// nil row, give empty values.
func Project(row Row) []Field {
	fields := make([]Field, len(Labels))
	for i, l := range Labels {
		fields[i] = Field{
			Label:   l.Name,
			Caption: l.Caption,
			Value:   row.Cell(i + 1),
		}
	}
	return fields
}

// Pairs groups fields two by two. A trailing odd field is paired with an
// empty ring.
func Pairs(fields []Field) []FieldPair {
	pairs := make([]FieldPair, 0, (len(fields)+1)/2)
	for i := 0; i < len(fields); i += 2 {
		p := FieldPair{Charge: fields[i]}
		if i+1 < len(fields) {
			p.Ring = fields[i+1]
		}
		pairs = append(pairs, p)
	}
	return pairs
}
