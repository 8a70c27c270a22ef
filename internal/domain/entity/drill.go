package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// IntArray - пользовательский тип для хранения набора стоимостей в JSONB
type IntArray []int

// Scan реализует интерфейс sql.Scanner для IntArray
// Используется GORM для чтения JSONB данных из базы
func (o *IntArray) Scan(value interface{}) error {
	if value == nil {
		*o = IntArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = IntArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для IntArray
func (o IntArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Drill представляет одну тренировку пользователя.
// Активная тренировка — та, у которой не установлен EndedAt.
// Агрегаты (счётчики, очки) кешируются в строке и пересчитываются
// из полной последовательности ответов после каждой мутации.
type Drill struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	// Критерии отбора клю; все опциональны и комбинируются через AND
	Round       *int       `json:"round,omitempty"`
	Values      IntArray   `gorm:"type:jsonb" json:"values,omitempty"`
	AirDateFrom *time.Time `gorm:"type:date" json:"air_date_from,omitempty"`
	AirDateTo   *time.Time `gorm:"type:date" json:"air_date_to,omitempty"`

	// Кешированные агрегаты по ответам
	CorrectCount     int `gorm:"not null;default:0" json:"correct_count"`
	IncorrectCount   int `gorm:"not null;default:0" json:"incorrect_count"`
	PassCount        int `gorm:"not null;default:0" json:"pass_count"`
	CluesSeenCount   int `gorm:"not null;default:0" json:"clues_seen_count"`
	CoryatScore      int `gorm:"not null;default:0" json:"coryat_score"`
	MaxPossibleScore int `gorm:"not null;default:0" json:"max_possible_score"`

	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	DrillClues []DrillClue `gorm:"foreignKey:DrillID" json:"drill_clues,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Drill) TableName() string {
	return "drills"
}

// IsActive проверяет, идёт ли тренировка (EndedAt не установлен)
func (d *Drill) IsActive() bool {
	return d.EndedAt == nil
}

// SeenClueIDs возвращает идентификаторы всех клю, уже сыгранных в тренировке
func (d *Drill) SeenClueIDs() []uint {
	ids := make([]uint, 0, len(d.DrillClues))
	for _, dc := range d.DrillClues {
		ids = append(ids, dc.ClueID)
	}
	return ids
}

// HasSeenClue проверяет, был ли клю уже сыгран в этой тренировке
func (d *Drill) HasSeenClue(clueID uint) bool {
	for _, dc := range d.DrillClues {
		if dc.ClueID == clueID {
			return true
		}
	}
	return false
}
