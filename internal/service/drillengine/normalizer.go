package drillengine

import "time"

// clueValueChangeDate — дата удвоения стоимостей на табло (26.11.2001).
// Клю, вышедшие в эфир строго раньше этой даты, приводятся к современной шкале.
var clueValueChangeDate = time.Date(2001, time.November, 26, 0, 0, 0, 0, time.UTC)

// NormalizeClueValue приводит историческую стоимость клю к современной шкале:
// стоимости эфиров до 26.11.2001 удваиваются, остальные возвращаются как есть.
// Отсутствующая стоимость (0) и отсутствующая дата проходят без изменений.
//
// Функция применяется ровно один раз — при создании записи во время импорта.
// Повторное применение к уже нормализованному значению удвоит его ещё раз,
// поэтому вызывающий код не должен вызывать её для сохранённых записей.
func NormalizeClueValue(value int, airDate *time.Time) int {
	if value == 0 || airDate == nil {
		return value
	}
	if airDate.Before(clueValueChangeDate) {
		return value * 2
	}
	return value
}
