package calendar

var monthNames = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// WeekdayNames are the Monday-first column headers.
var WeekdayNames = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// MonthName returns the localized month name, or "" for an invalid month.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// Direction selects the neighbouring month.
type Direction string

const (
	// DirectionPrev moves one month back.
	DirectionPrev Direction = "prev"
	// DirectionNext moves one month forward.
	DirectionNext Direction = "next"
)

// Shift moves (year, month) one step in dir, rolling the year over.
// Any other direction leaves the month unchanged.
func Shift(year, month int, dir Direction) (int, int, error) {
	if month < 1 || month > 12 {
		return year, month, Errorf(KindInvalidMonth, "invalid month %d: expected 1..12", month)
	}
	switch dir {
	case DirectionNext:
		month++
		if month > 12 {
			month = 1
			year++
		}
	case DirectionPrev:
		month--
		if month < 1 {
			month = 12
			year--
		}
	}
	return year, month, nil
}
