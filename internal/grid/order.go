package grid

import (
	"sort"

	"tma-mapper/pkg/geometry"
)

// OrderRow returns the cores of one row sorted left to right in the grid's
// rotated frame, with columns renumbered from zero. Cores of other rows are
// ignored and the input is not modified.
func OrderRow(cores []AssignedCore, row int, hp Hyperparameters) []AssignedCore {
	var members []AssignedCore
	var centers []geometry.Point2D
	for _, c := range cores {
		if c.Row == row {
			members = append(members, c)
			centers = append(centers, c.Region.Center())
		}
	}
	if len(members) == 0 {
		return nil
	}

	rotated := geometry.RotateAll(centers, geometry.NewPoint2D(hp.StartingX, hp.StartingY), -hp.OriginAngle)
	idx := make([]int, len(members))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return rotated[idx[a]].X < rotated[idx[b]].X })

	out := make([]AssignedCore, len(members))
	for col, i := range idx {
		out[col] = members[i]
		out[col].Col = col
	}
	return out
}

// Rows groups an assignment by row index, each row in column order. Cores
// without a row (negative Row) are skipped.
func Rows(cores []AssignedCore) [][]AssignedCore {
	maxRow := -1
	for _, c := range cores {
		if c.Row > maxRow {
			maxRow = c.Row
		}
	}
	rows := make([][]AssignedCore, maxRow+1)
	for _, c := range cores {
		if c.Row < 0 {
			continue
		}
		rows[c.Row] = append(rows[c.Row], c)
	}
	for _, r := range rows {
		sort.SliceStable(r, func(a, b int) bool { return r[a].Col < r[b].Col })
	}
	return rows
}
