package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Verdict — закрытый тип результата ответа на клю.
// Числовое представление совпадает с историческим: -1/0/1.
type Verdict int8

const (
	VerdictIncorrect Verdict = -1
	VerdictPass      Verdict = 0
	VerdictCorrect   Verdict = 1
)

// String возвращает строковое представление вердикта
func (v Verdict) String() string {
	switch v {
	case VerdictIncorrect:
		return "incorrect"
	case VerdictPass:
		return "pass"
	case VerdictCorrect:
		return "correct"
	}
	return "unknown"
}

// IsValid проверяет, что значение входит в закрытый набор вердиктов
func (v Verdict) IsValid() bool {
	return v == VerdictIncorrect || v == VerdictPass || v == VerdictCorrect
}

// Scan реализует интерфейс sql.Scanner для Verdict
// Используется GORM для чтения smallint из базы
func (v *Verdict) Scan(value interface{}) error {
	if value == nil {
		*v = VerdictPass
		return nil
	}
	n, ok := value.(int64)
	if !ok {
		return fmt.Errorf("failed to scan Verdict: expected int64, got %T", value)
	}
	parsed := Verdict(n)
	if !parsed.IsValid() {
		return fmt.Errorf("failed to scan Verdict: %d is out of range", n)
	}
	*v = parsed
	return nil
}

// Value реализует интерфейс driver.Valuer для Verdict
func (v Verdict) Value() (driver.Value, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("cannot store invalid Verdict %d", int8(v))
	}
	return int64(v), nil
}

// MarshalJSON сериализует вердикт строкой ("correct"/"incorrect"/"pass")
func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// DrillClue представляет одно предъявление клю внутри тренировки и его исход.
// Запись создаётся в момент ответа с уже вычисленным вердиктом и далее неизменна.
// Пара (drill_id, clue_id) уникальна: клю не показывается дважды за тренировку.
type DrillClue struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DrillID      uint       `gorm:"not null;index;uniqueIndex:idx_drill_clues_drill_clue" json:"drill_id"`
	ClueID       uint       `gorm:"not null;index;uniqueIndex:idx_drill_clues_drill_clue" json:"clue_id"`
	Clue         Clue       `gorm:"foreignKey:ClueID" json:"clue,omitempty"`
	Response     *string    `gorm:"size:255" json:"response,omitempty"`
	ResponseTime *float64   `json:"response_time,omitempty"` // Секунды от показа клю до ответа; nil — не было базза
	Result       Verdict    `gorm:"type:smallint;not null" json:"result"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (DrillClue) TableName() string {
	return "drill_clues"
}

// IsUnanswered возвращает true, если ответ пустой (pass-заглушка без реальной попытки).
// Такая запись, оказавшись последней при досрочном завершении, отбрасывается.
func (dc *DrillClue) IsUnanswered() bool {
	return dc.Response == nil || strings.TrimSpace(*dc.Response) == ""
}
