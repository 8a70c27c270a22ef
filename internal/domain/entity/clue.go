package entity

import (
	"sort"
	"time"
)

// Константы раундов Jeopardy
const (
	RoundSingle = 1 // Jeopardy! round
	RoundDouble = 2 // Double Jeopardy! round
	RoundFinal  = 3 // Final Jeopardy! (в тренировках не используется)
)

// Нормализованные стоимости клю по раундам.
// Стоимости были стандартизированы 26.11.2001 (см. NormalizeClueValue).
var normalizedValuesByRound = map[int][]int{
	RoundSingle: {200, 400, 600, 800, 1000},
	RoundDouble: {400, 800, 1200, 1600, 2000},
}

// NormalizedValuesForRound возвращает допустимый набор нормализованных
// стоимостей для раунда. Для финального раунда набор пуст.
func NormalizedValuesForRound(round int) []int {
	values, ok := normalizedValuesByRound[round]
	if !ok {
		return nil
	}
	out := make([]int, len(values))
	copy(out, values)
	return out
}

// AllNormalizedValues возвращает объединение стоимостей обоих раундов
// (отсортированное, без дубликатов).
func AllNormalizedValues() []int {
	seen := make(map[int]bool)
	var out []int
	for _, values := range normalizedValuesByRound {
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Ints(out)
	return out
}

// IsAllowedNormalizedValue проверяет, входит ли стоимость в допустимый набор.
// Если round == 0, проверяется объединение наборов обоих раундов.
func IsAllowedNormalizedValue(value int, round int) bool {
	if round != 0 {
		for _, v := range NormalizedValuesForRound(round) {
			if v == value {
				return true
			}
		}
		return false
	}
	for _, v := range AllNormalizedValues() {
		if v == value {
			return true
		}
	}
	return false
}

// Clue представляет один клю из архива эфиров.
// Данные write-once: создаются импортом и после этого не изменяются.
type Clue struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Round            int        `gorm:"not null;index" json:"round"`
	ClueValue        *int       `json:"clue_value,omitempty"`
	NormalizedValue  *int       `gorm:"index" json:"normalized_value,omitempty"`
	DailyDoubleValue *int       `json:"daily_double_value,omitempty"`
	Category         string     `gorm:"type:text;not null" json:"category"`
	Comments         string     `gorm:"type:text" json:"comments,omitempty"`
	ClueText         string     `gorm:"type:text;not null" json:"clue_text"`
	CorrectResponse  string     `gorm:"type:text;not null" json:"-"` // Скрыто от клиента во время тренировки
	AirDate          *time.Time `gorm:"type:date;index" json:"air_date,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Clue) TableName() string {
	return "clues"
}

// IsFinal проверяет, относится ли клю к финальному раунду
func (c *Clue) IsFinal() bool {
	return c.Round == RoundFinal
}

// NormalizedValueOrZero возвращает нормализованную стоимость или 0, если она отсутствует
// (клю финального раунда и часть daily double не имеют стоимости на табло).
func (c *Clue) NormalizedValueOrZero() int {
	if c.NormalizedValue == nil {
		return 0
	}
	return *c.NormalizedValue
}
