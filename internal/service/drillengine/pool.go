package drillengine

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	"github.com/yourusername/jtrainer-api/internal/domain/repository"
)

// ErrPoolExhausted — не ошибка приложения, а первоклассный исход:
// под фильтры тренировки не осталось ни одного несыгранного клю.
// Вызывающий код завершает тренировку, получив этот сигнал.
var ErrPoolExhausted = errors.New("clue pool exhausted")

// Pool выбирает следующий несыгранный клю под фильтры тренировки.
// Источник случайности инжектируется, чтобы выбор был детерминируемым в тестах;
// выбор равномерный по текущему остатку кандидатов, без учета прошлой истории.
type Pool struct {
	clueRepo repository.ClueRepository

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPool создает новый пул клю. Если rng == nil, используется
// генератор, засеянный текущим временем.
func NewPool(clueRepo repository.ClueRepository, rng *rand.Rand) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pool{clueRepo: clueRepo, rng: rng}
}

// Next возвращает случайный клю, подходящий под фильтр и не входящий
// в excludeIDs, либо ErrPoolExhausted, если таких не осталось.
// Запрос кандидатов и выбор — один шаг чтения-решения, между ними
// нет точек, где снимок исключений мог бы устареть.
func (p *Pool) Next(filter repository.ClueFilter, excludeIDs []uint) (*entity.Clue, error) {
	ids, err := p.clueRepo.FindCandidateIDs(filter, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query clue candidates: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrPoolExhausted
	}

	clue, err := p.clueRepo.GetByID(ids[p.pick(len(ids))])
	if err != nil {
		return nil, fmt.Errorf("failed to load selected clue: %w", err)
	}
	return clue, nil
}

// pick возвращает случайный индекс в [0, n).
// rand.Rand не потокобезопасен, поэтому доступ под мьютексом.
func (p *Pool) pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}
