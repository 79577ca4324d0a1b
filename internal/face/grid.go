package face

/*
Each LED has an x,y coordinate in a sparse matrix so that neighbouring
pixels get neighbouring colors.

	   00 01 02 03 04 05 06 07 08 09 10 11 12 13 14 15 16 17 18 19 20 21 22 23 24 25 26 X
	00    05          12                19          26                33          40
	01 04    06    11    13    44    18    20    25    27    46    32    34    39    41
	02    03          10                17          24                31          38
	03 02    07    09    14    43    16    21    23    28    45    30    35    37    42
	04    01          08                15          22                29          36
	Y
*/

const (
	Columns = 27
	Rows    = 5
)

// Grid is indexed [column][row]; zero means no LED at that cell.
var Grid = [Columns][Rows]int{
	{0, 4, 0, 2, 0},
	{5, 0, 3, 0, 1},
	{0, 6, 0, 7, 0},
	{0, 0, 0, 0, 0},
	{0, 11, 0, 9, 0},
	{12, 0, 10, 0, 8},
	{0, 13, 0, 14, 0},
	{0, 0, 0, 0, 0},
	{0, 44, 0, 43, 0},
	{0, 0, 0, 0, 0},
	{0, 18, 0, 16, 0},
	{19, 0, 17, 0, 15},
	{0, 20, 0, 21, 0},
	{0, 0, 0, 0, 0},
	{0, 25, 0, 23, 0},
	{26, 0, 24, 0, 22},
	{0, 27, 0, 28, 0},
	{0, 0, 0, 0, 0},
	{0, 46, 0, 45, 0},
	{0, 0, 0, 0, 0},
	{0, 32, 0, 30, 0},
	{33, 0, 31, 0, 29},
	{0, 34, 0, 35, 0},
	{0, 0, 0, 0, 0},
	{0, 39, 0, 37, 0},
	{40, 0, 38, 0, 36},
	{0, 41, 0, 42, 0},
}

// Cell is one populated grid coordinate.
type Cell struct {
	Col int
	Row int
	ID  int
}

// Horizontal reports whether the cell is a horizontal bar (segments 1, 3, 5).
func (c Cell) Horizontal() bool { return c.Row%2 == 0 }

var cells, byID = buildIndex()

func buildIndex() ([]Cell, [LEDCount + 1]Cell) {
	var out []Cell
	var idx [LEDCount + 1]Cell
	for x := 0; x < Columns; x++ {
		for y := 0; y < Rows; y++ {
			id := Grid[x][y]
			if id == 0 {
				continue
			}
			c := Cell{Col: x, Row: y, ID: id}
			out = append(out, c)
			if id <= LEDCount {
				idx[id] = c
			}
		}
	}
	return out, idx
}

// Cells returns every populated cell in scan order (column-major).
// The returned slice must not be modified.
func Cells() []Cell { return cells }

// Locate returns the grid cell of LED id.
func Locate(id int) (Cell, bool) {
	if id < 1 || id > LEDCount {
		return Cell{}, false
	}
	c := byID[id]
	return c, c.ID == id
}
