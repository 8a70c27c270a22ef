package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
)

// DrillRepo реализует repository.DrillRepository
type DrillRepo struct {
	db *gorm.DB
}

// NewDrillRepo создает новый репозиторий тренировок
func NewDrillRepo(db *gorm.DB) *DrillRepo {
	return &DrillRepo{db: db}
}

// Create создает новую тренировку
func (r *DrillRepo) Create(drill *entity.Drill) error {
	return r.db.Create(drill).Error
}

// GetByID возвращает тренировку с ответами (в порядке создания) и их клю
func (r *DrillRepo) GetByID(id uint) (*entity.Drill, error) {
	var drill entity.Drill
	err := r.db.
		Preload("DrillClues", func(db *gorm.DB) *gorm.DB {
			return db.Order("drill_clues.id")
		}).
		Preload("DrillClues.Clue").
		First(&drill, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &drill, nil
}

// GetActiveByUser возвращает последнюю активную тренировку пользователя
func (r *DrillRepo) GetActiveByUser(userID uint) (*entity.Drill, error) {
	var drill entity.Drill
	err := r.db.
		Preload("DrillClues", func(db *gorm.DB) *gorm.DB {
			return db.Order("drill_clues.id")
		}).
		Preload("DrillClues.Clue").
		Where("user_id = ? AND ended_at IS NULL", userID).
		Order("created_at DESC").
		First(&drill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &drill, nil
}

// ListByUser возвращает страницу тренировок пользователя (новые первыми)
// и общее количество
func (r *DrillRepo) ListByUser(userID uint, offset, limit int) ([]entity.Drill, int64, error) {
	var drills []entity.Drill
	var total int64

	base := r.db.Model(&entity.Drill{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&drills).Error
	if err != nil {
		return nil, 0, err
	}
	return drills, total, nil
}

// Update сохраняет тренировку (только колонки самой тренировки, без ассоциаций)
func (r *DrillRepo) Update(drill *entity.Drill) error {
	return r.db.Omit("DrillClues").Save(drill).Error
}

// Delete удаляет тренировку; ответы удаляются каскадно по внешнему ключу
func (r *DrillRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Drill{}, id).Error
}

// SubmitResponse атомарно создает ответ и сохраняет кешированные агрегаты
// тренировки. ended_at пишется той же транзакцией: исчерпание пула при
// ответе завершает тренировку без отдельного сохранения.
func (r *DrillRepo) SubmitResponse(response *entity.DrillClue, drill *entity.Drill) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Clue").Create(response).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Drill{}).
			Where("id = ?", drill.ID).
			Updates(drillStatsColumns(drill)).Error
	})
}

// Finish атомарно завершает тренировку: при discardResponseID > 0 удаляет
// хвостовой пустой ответ, затем сохраняет агрегаты и ended_at
func (r *DrillRepo) Finish(drill *entity.Drill, discardResponseID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if discardResponseID > 0 {
			if err := tx.Delete(&entity.DrillClue{}, discardResponseID).Error; err != nil {
				return err
			}
		}
		return tx.Model(&entity.Drill{}).
			Where("id = ?", drill.ID).
			Updates(drillStatsColumns(drill)).Error
	})
}

// drillStatsColumns собирает карту кешируемых колонок тренировки.
// Карта вместо Save: нулевые значения счётчиков тоже должны записываться.
func drillStatsColumns(drill *entity.Drill) map[string]interface{} {
	return map[string]interface{}{
		"correct_count":      drill.CorrectCount,
		"incorrect_count":    drill.IncorrectCount,
		"pass_count":         drill.PassCount,
		"clues_seen_count":   drill.CluesSeenCount,
		"coryat_score":       drill.CoryatScore,
		"max_possible_score": drill.MaxPossibleScore,
		"ended_at":           drill.EndedAt,
	}
}
