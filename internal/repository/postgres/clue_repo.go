package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	"github.com/yourusername/jtrainer-api/internal/domain/repository"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
)

// ClueRepo реализует repository.ClueRepository
type ClueRepo struct {
	db *gorm.DB
}

// NewClueRepo создает новый репозиторий клю
func NewClueRepo(db *gorm.DB) *ClueRepo {
	return &ClueRepo{db: db}
}

// Create создает новый клю
func (r *ClueRepo) Create(clue *entity.Clue) error {
	return r.db.Create(clue).Error
}

// CreateBatch создает пакет клю в одной транзакции
func (r *ClueRepo) CreateBatch(clues []entity.Clue) error {
	if len(clues) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Устанавливаем кодировку UTF-8 внутри транзакции
		if err := tx.Exec("SET CLIENT_ENCODING TO 'UTF8'").Error; err != nil {
			return err
		}
		return tx.CreateInBatches(&clues, 500).Error
	})
}

// GetByID возвращает клю по ID
func (r *ClueRepo) GetByID(id uint) (*entity.Clue, error) {
	var clue entity.Clue
	err := r.db.First(&clue, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &clue, nil
}

// List возвращает страницу клю и общее количество записей
func (r *ClueRepo) List(offset, limit int) ([]entity.Clue, int64, error) {
	var clues []entity.Clue
	var total int64

	if err := r.db.Model(&entity.Clue{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("id").Offset(offset).Limit(limit).Find(&clues).Error
	if err != nil {
		return nil, 0, err
	}
	return clues, total, nil
}

// Count возвращает общее количество клю
func (r *ClueRepo) Count() (int64, error) {
	var total int64
	err := r.db.Model(&entity.Clue{}).Count(&total).Error
	return total, err
}

// FindCandidateIDs возвращает идентификаторы клю, подходящих под фильтр,
// за вычетом excludeIDs. Финальный раунд исключается безусловно:
// эти клю зарезервированы для режимов вне тренировок.
func (r *ClueRepo) FindCandidateIDs(filter repository.ClueFilter, excludeIDs []uint) ([]uint, error) {
	query := r.db.Model(&entity.Clue{}).Where("round <> ?", entity.RoundFinal)

	if filter.Round != nil {
		query = query.Where("round = ?", *filter.Round)
	}
	if len(filter.Values) > 0 {
		query = query.Where("normalized_value IN ?", filter.Values)
	}
	if filter.AirDateFrom != nil {
		query = query.Where("air_date >= ?", *filter.AirDateFrom)
	}
	if filter.AirDateTo != nil {
		query = query.Where("air_date <= ?", *filter.AirDateTo)
	}
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetPlayStats возвращает, сколько раз клю был сыгран и сколько раз — правильно
func (r *ClueRepo) GetPlayStats(clueID uint) (int64, int64, error) {
	var seen, correct int64

	err := r.db.Model(&entity.DrillClue{}).Where("clue_id = ?", clueID).Count(&seen).Error
	if err != nil {
		return 0, 0, err
	}

	err = r.db.Model(&entity.DrillClue{}).
		Where("clue_id = ? AND result = ?", clueID, entity.VerdictCorrect).
		Count(&correct).Error
	if err != nil {
		return 0, 0, err
	}

	return seen, correct, nil
}
