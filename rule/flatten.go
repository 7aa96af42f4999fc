package rule

// Flat is one entry of a flattened condition tree.
type Flat struct {
	// Position is the 0-based index of the entry in the sequence.
	Position  int
	Condition Condition
	// Children holds the positions of the direct children, in order.
	Children []int
}

// ConditionSequence flattens the production's condition tree in pre-order:
// each node, then each of its children recursively. The first entry is the
// tree root. The result is recomputed on every call.
func ConditionSequence(p Production) []Flat {
	var seq []Flat
	flatten(p.Root(), &seq)
	return seq
}

func flatten(c Condition, seq *[]Flat) int {
	pos := len(*seq)
	*seq = append(*seq, Flat{Position: pos, Condition: c})

	for _, child := range Children(c) {
		childPos := flatten(child, seq)
		(*seq)[pos].Children = append((*seq)[pos].Children, childPos)
	}
	return pos
}
