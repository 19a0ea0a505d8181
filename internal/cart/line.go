package cart

// Line is one product in a session cart. Name and Price are captured when the
// product is first added and are not refreshed from the catalog afterwards.
type Line struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Clone returns an independent copy of lines; nil becomes an empty slice.
func Clone(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// Total sums price times quantity over lines.
func Total(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.Price * int64(l.Quantity)
	}
	return total
}

func indexOf(lines []Line, productID int64) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
