package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	"github.com/yourusername/jtrainer-api/internal/domain/repository"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
	"github.com/yourusername/jtrainer-api/internal/service/drillengine"
)

// drillLockCount — количество страйпов мьютексов для сериализации
// одновременных ответов в одну тренировку
const drillLockCount = 64

// DrillService управляет жизненным циклом тренировки: Active -> Ended,
// без других состояний и без реактивации. Выбор клю делегируется пулу,
// вердикт — судье, агрегаты пересчитываются из полного журнала ответов
// после каждой мутации.
type DrillService struct {
	drillRepo repository.DrillRepository
	clueRepo  repository.ClueRepository
	pool      *drillengine.Pool
	judge     *drillengine.Judge
	cfg       *drillengine.Config

	// Страйп-мьютексы по ID тренировки: два конкурентных ответа в одну
	// тренировку не должны читать один и тот же снимок сыгранных клю
	locks [drillLockCount]sync.Mutex
}

// NewDrillService создает новый сервис тренировок.
// rng — источник случайности для пула; nil означает генератор по времени.
func NewDrillService(
	drillRepo repository.DrillRepository,
	clueRepo repository.ClueRepository,
	cfg *drillengine.Config,
	rng *rand.Rand,
) *DrillService {
	if cfg == nil {
		cfg = drillengine.DefaultConfig()
	}
	return &DrillService{
		drillRepo: drillRepo,
		clueRepo:  clueRepo,
		pool:      drillengine.NewPool(clueRepo, rng),
		judge:     drillengine.NewJudge(cfg),
		cfg:       cfg,
	}
}

// SubmitResult — исход одного ответа: вердикт, свежие агрегаты и либо
// следующий клю, либо признак завершения тренировки (пул исчерпан)
type SubmitResult struct {
	Verdict   entity.Verdict
	Stats     drillengine.Stats
	NextClue  *entity.Clue
	Completed bool
	Drill     *entity.Drill
}

// EndResult — исход явного завершения тренировки
type EndResult struct {
	// Drill — завершенная тренировка; nil, если она была удалена
	Drill *entity.Drill
	// Deleted — тренировка без единого ответа удалена, а не сохранена
	Deleted bool
	// AlreadyEnded — тренировка уже была завершена; повторное завершение
	// не ошибка
	AlreadyEnded bool
}

// StartDrill создает новую активную тренировку с заданными фильтрами
// и возвращает её вместе с первым клю. Если под фильтры не подходит
// ни один клю, тренировка не сохраняется и возвращается ErrPoolExhausted.
func (s *DrillService) StartDrill(userID uint, filter repository.ClueFilter) (*entity.Drill, *entity.Clue, error) {
	if err := ValidateClueFilter(filter); err != nil {
		return nil, nil, err
	}

	drill := &entity.Drill{
		UserID:      userID,
		Round:       filter.Round,
		Values:      filter.Values,
		AirDateFrom: filter.AirDateFrom,
		AirDateTo:   filter.AirDateTo,
		StartedAt:   time.Now(),
	}
	if err := s.drillRepo.Create(drill); err != nil {
		return nil, nil, fmt.Errorf("failed to create drill: %w", err)
	}

	clue, err := s.pool.Next(filter, nil)
	if err != nil {
		// Пустая тренировка не несет информации и не сохраняется
		if delErr := s.drillRepo.Delete(drill.ID); delErr != nil {
			log.Printf("[DrillService] Не удалось удалить пустую тренировку #%d: %v", drill.ID, delErr)
		}
		return nil, nil, err
	}

	log.Printf("[DrillService] Пользователь #%d начал тренировку #%d", userID, drill.ID)
	return drill, clue, nil
}

// CurrentClue возвращает следующий несыгранный клю активной тренировки.
// При исчерпании пула возвращается drillengine.ErrPoolExhausted; переход
// в Ended на чтении не происходит — его делает вызывающий код через EndDrill.
func (s *DrillService) CurrentClue(userID, drillID uint) (*entity.Clue, error) {
	drill, err := s.getOwnedDrill(userID, drillID)
	if err != nil {
		return nil, err
	}
	if !drill.IsActive() {
		return nil, fmt.Errorf("%w: drill %d is already ended", apperrors.ErrInvalidState, drillID)
	}

	return s.pool.Next(filterFromDrill(drill), drill.SeenClueIDs())
}

// SubmitResponse судит ответ, дописывает его в журнал тренировки,
// пересчитывает агрегаты и сразу выбирает следующий клю. Исчерпание пула
// на этом шаге завершает тренировку (ended_at той же транзакцией).
func (s *DrillService) SubmitResponse(userID, drillID, clueID uint, response *string, responseTimeSec *float64) (*SubmitResult, error) {
	mu := &s.locks[drillID%drillLockCount]
	mu.Lock()
	defer mu.Unlock()

	drill, err := s.getOwnedDrill(userID, drillID)
	if err != nil {
		return nil, err
	}
	if !drill.IsActive() {
		return nil, fmt.Errorf("%w: drill %d is already ended", apperrors.ErrInvalidState, drillID)
	}
	if drill.HasSeenClue(clueID) {
		return nil, fmt.Errorf("%w: clue %d was already judged in drill %d", apperrors.ErrInvalidState, clueID, drillID)
	}
	if responseTimeSec != nil && (*responseTimeSec < 0 || *responseTimeSec > s.cfg.MaxResponseTimeSec) {
		return nil, fmt.Errorf("%w: response time must be between 0 and %.0f seconds",
			apperrors.ErrValidation, s.cfg.MaxResponseTimeSec)
	}

	clue, err := s.clueRepo.GetByID(clueID)
	if err != nil {
		return nil, err
	}

	verdict := s.judge.Judge(response, responseTimeSec, clue.CorrectResponse)

	judged := &entity.DrillClue{
		DrillID:      drill.ID,
		ClueID:       clue.ID,
		Response:     response,
		ResponseTime: responseTimeSec,
		Result:       verdict,
	}

	// Полный пересчет агрегатов по журналу, включая свежий ответ
	judged.Clue = *clue
	responses := append(drill.DrillClues, *judged)
	stats := drillengine.ComputeStats(responses)
	applyStats(drill, stats)

	// Сразу выбираем следующий клю; пустой остаток завершает тренировку
	var nextClue *entity.Clue
	completed := false
	nextClue, err = s.pool.Next(filterFromDrill(drill), append(drill.SeenClueIDs(), clue.ID))
	switch {
	case errors.Is(err, drillengine.ErrPoolExhausted):
		now := time.Now()
		drill.EndedAt = &now
		completed = true
		nextClue = nil
	case err != nil:
		return nil, err
	}

	if err := s.drillRepo.SubmitResponse(judged, drill); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	log.Printf("[DrillService] Тренировка #%d: клю #%d -> %s (сыграно %d, coryat %d)",
		drill.ID, clue.ID, verdict, stats.Seen, stats.CoryatScore)
	if completed {
		log.Printf("[DrillService] Тренировка #%d завершена: пул клю исчерпан", drill.ID)
	}

	drill.DrillClues = responses
	return &SubmitResult{
		Verdict:   verdict,
		Stats:     stats,
		NextClue:  nextClue,
		Completed: completed,
		Drill:     drill,
	}, nil
}

// EndDrill явно завершает тренировку.
// Тренировка без единого ответа удаляется, а не сохраняется.
// Хвостовой ответ с пустым текстом (pass-заглушка, показанная, но не
// сыгранная) отбрасывается перед финализацией, чтобы не искажать агрегаты.
// Повторное завершение уже завершенной тренировки — успешный no-op.
func (s *DrillService) EndDrill(userID, drillID uint) (*EndResult, error) {
	mu := &s.locks[drillID%drillLockCount]
	mu.Lock()
	defer mu.Unlock()

	drill, err := s.getOwnedDrill(userID, drillID)
	if err != nil {
		return nil, err
	}
	if !drill.IsActive() {
		return &EndResult{Drill: drill, AlreadyEnded: true}, nil
	}

	if len(drill.DrillClues) == 0 {
		if err := s.drillRepo.Delete(drill.ID); err != nil {
			return nil, fmt.Errorf("failed to delete empty drill: %w", err)
		}
		log.Printf("[DrillService] Пустая тренировка #%d удалена", drill.ID)
		return &EndResult{Deleted: true}, nil
	}

	responses := drill.DrillClues
	var discardID uint
	if last := responses[len(responses)-1]; last.IsUnanswered() && last.Result == entity.VerdictPass {
		discardID = last.ID
		responses = responses[:len(responses)-1]
	}

	stats := drillengine.ComputeStats(responses)
	applyStats(drill, stats)
	now := time.Now()
	drill.EndedAt = &now

	if err := s.drillRepo.Finish(drill, discardID); err != nil {
		return nil, fmt.Errorf("failed to finish drill: %w", err)
	}

	drill.DrillClues = responses
	log.Printf("[DrillService] Тренировка #%d завершена пользователем (сыграно %d)", drill.ID, stats.Seen)
	return &EndResult{Drill: drill}, nil
}

// GetDrill возвращает тренировку пользователя с ответами
func (s *DrillService) GetDrill(userID, drillID uint) (*entity.Drill, error) {
	return s.getOwnedDrill(userID, drillID)
}

// GetActiveDrill возвращает последнюю активную тренировку пользователя
func (s *DrillService) GetActiveDrill(userID uint) (*entity.Drill, error) {
	return s.drillRepo.GetActiveByUser(userID)
}

// ListDrills возвращает страницу тренировок пользователя (новые первыми)
func (s *DrillService) ListDrills(userID uint, page, perPage int) ([]entity.Drill, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	return s.drillRepo.ListByUser(userID, (page-1)*perPage, perPage)
}

// Stats пересчитывает агрегаты тренировки из журнала ответов
func (s *DrillService) Stats(drill *entity.Drill) drillengine.Stats {
	return drillengine.ComputeStats(drill.DrillClues)
}

// getOwnedDrill загружает тренировку и проверяет владельца
func (s *DrillService) getOwnedDrill(userID, drillID uint) (*entity.Drill, error) {
	drill, err := s.drillRepo.GetByID(drillID)
	if err != nil {
		return nil, err
	}
	if drill.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return drill, nil
}

// filterFromDrill восстанавливает фильтр пула из колонок тренировки
func filterFromDrill(d *entity.Drill) repository.ClueFilter {
	return repository.ClueFilter{
		Round:       d.Round,
		Values:      d.Values,
		AirDateFrom: d.AirDateFrom,
		AirDateTo:   d.AirDateTo,
	}
}

// applyStats копирует пересчитанные агрегаты в кешируемые колонки тренировки
func applyStats(d *entity.Drill, stats drillengine.Stats) {
	d.CorrectCount = stats.Correct
	d.IncorrectCount = stats.Incorrect
	d.PassCount = stats.Pass
	d.CluesSeenCount = stats.Seen
	d.CoryatScore = stats.CoryatScore
	d.MaxPossibleScore = stats.MaxPossibleScore
}

// ValidateClueFilter проверяет фильтр против фиксированного домена значений:
// раунд 1 или 2, стоимости из нормализованного набора раунда, границы дат
// в правильном порядке
func ValidateClueFilter(filter repository.ClueFilter) error {
	round := 0
	if filter.Round != nil {
		round = *filter.Round
		if round != entity.RoundSingle && round != entity.RoundDouble {
			return fmt.Errorf("%w: round must be %d or %d",
				apperrors.ErrValidation, entity.RoundSingle, entity.RoundDouble)
		}
	}

	for _, v := range filter.Values {
		if !entity.IsAllowedNormalizedValue(v, round) {
			return fmt.Errorf("%w: %d is not a valid normalized clue value", apperrors.ErrValidation, v)
		}
	}

	if filter.AirDateFrom != nil && filter.AirDateTo != nil && filter.AirDateTo.Before(*filter.AirDateFrom) {
		return fmt.Errorf("%w: air date range is inverted", apperrors.ErrValidation)
	}

	return nil
}
