package grid

import (
	"context"
	"math"
	"sort"

	"tma-mapper/internal/region"
	"tma-mapper/pkg/geometry"
	"tma-mapper/pkg/stats"
)

// BinningAssigner is a simple Assigner. It rotates core centers by
// -OriginAngle about (StartingX, StartingY), cuts rows where the rotated Y
// jumps by more than RowGapFactor times the median radius, then places each
// core in the column nearest its rotated X at the median column pitch. Every
// empty cell inside the resulting rows x columns rectangle becomes an
// imaginary core.
type BinningAssigner struct{}

type binned struct {
	index int
	pos   geometry.Point2D // Rotated center
}

// Assign implements Assigner.
func (BinningAssigner) Assign(ctx context.Context, cores []region.Region, hp Hyperparameters) ([]AssignedCore, error) {
	if len(cores) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin := geometry.NewPoint2D(hp.StartingX, hp.StartingY)
	centers := make([]geometry.Point2D, len(cores))
	radii := make([]float64, len(cores))
	for i, c := range cores {
		centers[i] = c.Center()
		radii[i] = c.Radius
	}
	rotated := geometry.RotateAll(centers, origin, -hp.OriginAngle)
	medianRadius, _ := stats.Median(radii)

	rows := splitRows(rotated, hp.RowGapFactor*medianRadius)
	pitch := columnPitch(rows, 2*medianRadius)

	minX := math.Inf(1)
	for _, p := range rotated {
		minX = math.Min(minX, p.X)
	}

	var out []AssignedCore
	maxCol := 0
	occupied := make([]map[int]bool, len(rows))
	for r, row := range rows {
		occupied[r] = make(map[int]bool, len(row))
		prev := -1
		for _, b := range row {
			col := int(math.Round((b.pos.X - minX) / pitch))
			if col <= prev {
				col = prev + 1
			}
			prev = col
			occupied[r][col] = true
			if col > maxCol {
				maxCol = col
			}
			out = append(out, AssignedCore{Region: cores[b.index], Row: r, Col: col})
		}
	}

	// Fill the gaps at their expected rotated position, mapped back to image
	// coordinates.
	area := int(math.Round(math.Pi * medianRadius * medianRadius))
	for r, row := range rows {
		y := meanY(row)
		for col := 0; col <= maxCol; col++ {
			if occupied[r][col] {
				continue
			}
			at := geometry.Rotate(geometry.NewPoint2D(minX+float64(col)*pitch, y), origin, hp.OriginAngle)
			out = append(out, AssignedCore{
				Region:    region.NewRegion(0, at.X, at.Y, area),
				Row:       r,
				Col:       col,
				Imaginary: true,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, nil
}

// splitRows groups points into rows by rotated Y, each row sorted by X.
func splitRows(points []geometry.Point2D, gap float64) [][]binned {
	all := make([]binned, len(points))
	for i, p := range points {
		all[i] = binned{index: i, pos: p}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].pos.Y < all[j].pos.Y })

	var rows [][]binned
	start := 0
	for i := 1; i <= len(all); i++ {
		if i == len(all) || all[i].pos.Y-all[i-1].pos.Y > gap {
			row := append([]binned(nil), all[start:i]...)
			sort.SliceStable(row, func(a, b int) bool { return row[a].pos.X < row[b].pos.X })
			rows = append(rows, row)
			start = i
		}
	}
	return rows
}

// columnPitch is the median X spacing between neighbours in a row. With no
// neighbours anywhere it falls back to fallback.
func columnPitch(rows [][]binned, fallback float64) float64 {
	var gaps []float64
	for _, row := range rows {
		for i := 1; i < len(row); i++ {
			gaps = append(gaps, row[i].pos.X-row[i-1].pos.X)
		}
	}
	pitch, ok := stats.Median(gaps)
	if !ok || pitch <= 0 {
		pitch = fallback
	}
	if pitch <= 0 {
		pitch = 1
	}
	return pitch
}

func meanY(row []binned) float64 {
	sum := 0.0
	for _, b := range row {
		sum += b.pos.Y
	}
	return sum / float64(len(row))
}
