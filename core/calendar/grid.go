package calendar

import "time"

// Empty marks a padding cell before day 1 or after the last day.
const Empty = 0

// Week is one Monday-first row of the grid.
type Week [7]int

// Grid is a month laid out in weeks.
type Grid []Week

// Generate lays out the month in Monday-first weeks. Only the first and last
// week can contain Empty cells.
func Generate(year, month int) (Grid, error) {
	if month < 1 || month > 12 {
		return nil, Errorf(KindInvalidMonth, "invalid month %d: expected 1..12", month)
	}

	days := DaysInMonth(year, month)
	offset := Offset(year, month)

	grid := make(Grid, 0, (offset+days+6)/7)
	var week Week
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == len(week) {
			grid = append(grid, week)
			week = Week{}
			col = 0
		}
	}
	if col > 0 {
		grid = append(grid, week)
	}
	return grid, nil
}

// DaysInMonth returns the day of month of "day 0 of next month".
// December and leap years are resolved by time.Date normalization.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Offset returns the Monday-first index (Monday=0 .. Sunday=6) of day 1.
func Offset(year, month int) int {
	wd := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(wd) + 6) % 7
}

// Days counts non-empty cells.
func (g Grid) Days() int {
	n := 0
	for _, week := range g {
		for _, day := range week {
			if day != Empty {
				n++
			}
		}
	}
	return n
}
