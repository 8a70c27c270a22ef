package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	"github.com/yourusername/jtrainer-api/internal/domain/repository"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
	"github.com/yourusername/jtrainer-api/internal/service/drillengine"
)

// importBatchSize — размер пакета при массовой вставке клю
const importBatchSize = 500

// Ожидаемые колонки файла импорта (CSV или TSV с заголовком)
var importHeader = []string{
	"round", "clue_value", "daily_double_value", "category",
	"comments", "clue_text", "correct_response", "air_date", "notes",
}

// ClueService предоставляет операции над справочником клю:
// постраничный список, статистику сыгранности и массовый импорт из архива.
type ClueService struct {
	clueRepo repository.ClueRepository
}

// NewClueService создает новый сервис клю
func NewClueService(clueRepo repository.ClueRepository) *ClueService {
	return &ClueService{clueRepo: clueRepo}
}

// ListClues возвращает страницу клю и общее количество
func (s *ClueService) ListClues(page, perPage int) ([]entity.Clue, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}
	return s.clueRepo.List((page-1)*perPage, perPage)
}

// GetClue возвращает клю по ID
func (s *ClueService) GetClue(id uint) (*entity.Clue, error) {
	return s.clueRepo.GetByID(id)
}

// CluePlayStats — статистика сыгранности одного клю по всем тренировкам
type CluePlayStats struct {
	TimesSeen int64 `json:"times_seen"`
	// SuccessRate — доля правильных ответов; nil, пока клю ни разу не сыгран
	SuccessRate *float64 `json:"success_rate,omitempty"`
}

// GetClueStats возвращает статистику сыгранности клю
func (s *ClueService) GetClueStats(clueID uint) (*CluePlayStats, error) {
	if _, err := s.clueRepo.GetByID(clueID); err != nil {
		return nil, err
	}

	seen, correct, err := s.clueRepo.GetPlayStats(clueID)
	if err != nil {
		return nil, err
	}

	stats := &CluePlayStats{TimesSeen: seen}
	if seen > 0 {
		rate := float64(correct) / float64(seen)
		stats.SuccessRate = &rate
	}
	return stats, nil
}

// ImportResult — итог массового импорта клю
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportClues читает CSV/TSV с заголовком и создает клю пакетами.
// Нормализованная стоимость вычисляется здесь, ровно один раз на запись:
// данные write-once, и повторная нормализация сохраненных значений недопустима.
// Строки с нечитаемым раундом или стоимостью пропускаются с логированием.
func (s *ClueService) ImportClues(r io.Reader, comma rune) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = len(importHeader)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read import header: %v", apperrors.ErrValidation, err)
	}
	if err := checkImportHeader(header); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	batch := make([]entity.Clue, 0, importBatchSize)
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("[ClueService] Строка %d пропущена: %v", line, err)
			result.Skipped++
			continue
		}

		clue, err := parseClueRecord(record)
		if err != nil {
			log.Printf("[ClueService] Строка %d пропущена: %v", line, err)
			result.Skipped++
			continue
		}

		batch = append(batch, *clue)
		if len(batch) >= importBatchSize {
			if err := s.clueRepo.CreateBatch(batch); err != nil {
				return result, fmt.Errorf("failed to import clue batch: %w", err)
			}
			result.Imported += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.clueRepo.CreateBatch(batch); err != nil {
			return result, fmt.Errorf("failed to import clue batch: %w", err)
		}
		result.Imported += len(batch)
	}

	log.Printf("[ClueService] Импорт завершен: %d создано, %d пропущено", result.Imported, result.Skipped)
	return result, nil
}

func checkImportHeader(header []string) error {
	if len(header) != len(importHeader) {
		return fmt.Errorf("%w: expected %d columns, got %d", apperrors.ErrValidation, len(importHeader), len(header))
	}
	for i, name := range importHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != name {
			return fmt.Errorf("%w: column %d must be %q", apperrors.ErrValidation, i+1, name)
		}
	}
	return nil
}

// parseClueRecord собирает Clue из строки импорта.
// Порядок полей соответствует importHeader.
func parseClueRecord(record []string) (*entity.Clue, error) {
	round, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return nil, fmt.Errorf("bad round %q", record[0])
	}
	if round != entity.RoundSingle && round != entity.RoundDouble && round != entity.RoundFinal {
		return nil, fmt.Errorf("round %d is out of range", round)
	}

	clueValue, err := parseOptionalInt(record[1])
	if err != nil {
		return nil, fmt.Errorf("bad clue_value %q", record[1])
	}
	ddValue, err := parseOptionalInt(record[2])
	if err != nil {
		return nil, fmt.Errorf("bad daily_double_value %q", record[2])
	}

	airDate, err := parseOptionalDate(record[7])
	if err != nil {
		return nil, fmt.Errorf("bad air_date %q", record[7])
	}

	clue := &entity.Clue{
		Round:            round,
		ClueValue:        clueValue,
		DailyDoubleValue: ddValue,
		Category:         strings.TrimSpace(record[3]),
		Comments:         strings.TrimSpace(record[4]),
		ClueText:         strings.TrimSpace(record[5]),
		CorrectResponse:  strings.TrimSpace(record[6]),
		AirDate:          airDate,
		Notes:            strings.TrimSpace(record[8]),
	}

	// Единственная точка нормализации стоимости
	if clueValue != nil {
		normalized := drillengine.NormalizeClueValue(*clueValue, airDate)
		clue.NormalizedValue = &normalized
	}

	return clue, nil
}

func parseOptionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
