package game

// Neighbors returns the coordinates at Chebyshev distance 1 from c,
// clipped to a width x height board. At most 8 results; order is
// row-major and not part of the contract.
func Neighbors(c Coord, width, height int) []Coord {
	out := make([]Coord, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Coord{X: c.X + dx, Y: c.Y + dy}
			if n.X >= 0 && n.X < width && n.Y >= 0 && n.Y < height {
				out = append(out, n)
			}
		}
	}
	return out
}
