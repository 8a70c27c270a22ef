package dto

import (
	"time"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	"github.com/yourusername/jtrainer-api/internal/service"
	"github.com/yourusername/jtrainer-api/internal/service/drillengine"
)

// ClueResponse представляет клю в формате для показа во время тренировки.
// Канонический ответ намеренно отсутствует.
type ClueResponse struct {
	ID              uint       `json:"id"`
	Round           int        `json:"round"`
	NormalizedValue *int       `json:"normalized_value,omitempty"`
	Category        string     `json:"category"`
	ClueText        string     `json:"clue_text"`
	AirDate         *time.Time `json:"air_date,omitempty"`
}

// NewClueResponse создает DTO клю
func NewClueResponse(c *entity.Clue) *ClueResponse {
	if c == nil {
		return nil
	}
	return &ClueResponse{
		ID:              c.ID,
		Round:           c.Round,
		NormalizedValue: c.NormalizedValue,
		Category:        c.Category,
		ClueText:        c.ClueText,
		AirDate:         c.AirDate,
	}
}

// ClueListItem представляет клю в справочном списке (с ответом)
type ClueListItem struct {
	ID              uint       `json:"id"`
	Round           int        `json:"round"`
	ClueValue       *int       `json:"clue_value,omitempty"`
	NormalizedValue *int       `json:"normalized_value,omitempty"`
	Category        string     `json:"category"`
	ClueText        string     `json:"clue_text"`
	CorrectResponse string     `json:"correct_response"`
	AirDate         *time.Time `json:"air_date,omitempty"`
}

// NewClueListItem создает DTO элемента справочного списка клю
func NewClueListItem(c *entity.Clue) ClueListItem {
	return ClueListItem{
		ID:              c.ID,
		Round:           c.Round,
		ClueValue:       c.ClueValue,
		NormalizedValue: c.NormalizedValue,
		Category:        c.Category,
		ClueText:        c.ClueText,
		CorrectResponse: c.CorrectResponse,
		AirDate:         c.AirDate,
	}
}

// PaginatedCluesResponse представляет страницу справочного списка клю
type PaginatedCluesResponse struct {
	Clues   []ClueListItem `json:"clues"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// StatsResponse представляет агрегаты тренировки
type StatsResponse struct {
	Correct          int    `json:"correct"`
	Incorrect        int    `json:"incorrect"`
	Pass             int    `json:"pass"`
	Seen             int    `json:"seen"`
	Accuracy         string `json:"accuracy"`
	CoryatScore      int    `json:"coryat_score"`
	MaxPossibleScore int    `json:"max_possible_score"`
}

// NewStatsResponse создает DTO агрегатов
func NewStatsResponse(s drillengine.Stats) StatsResponse {
	return StatsResponse{
		Correct:          s.Correct,
		Incorrect:        s.Incorrect,
		Pass:             s.Pass,
		Seen:             s.Seen,
		Accuracy:         s.AccuracyString(),
		CoryatScore:      s.CoryatScore,
		MaxPossibleScore: s.MaxPossibleScore,
	}
}

// JudgedResponse представляет один сыгранный клю внутри тренировки
// (в истории канонический ответ уже раскрывается)
type JudgedResponse struct {
	ClueID          uint     `json:"clue_id"`
	Category        string   `json:"category"`
	ClueText        string   `json:"clue_text"`
	CorrectResponse string   `json:"correct_response"`
	NormalizedValue *int     `json:"normalized_value,omitempty"`
	Response        *string  `json:"response,omitempty"`
	ResponseTime    *float64 `json:"response_time,omitempty"`
	Result          string   `json:"result"`
}

// DrillResponse представляет тренировку в формате для ответа клиенту
type DrillResponse struct {
	ID          uint       `json:"id"`
	Round       *int       `json:"round,omitempty"`
	Values      []int      `json:"values,omitempty"`
	AirDateFrom *time.Time `json:"air_date_from,omitempty"`
	AirDateTo   *time.Time `json:"air_date_to,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Active      bool       `json:"active"`

	Stats     StatsResponse    `json:"stats"`
	Responses []JudgedResponse `json:"responses,omitempty"`
}

// NewDrillResponse создает DTO тренировки.
// includeResponses управляет включением журнала сыгранных клю.
func NewDrillResponse(d *entity.Drill, includeResponses bool) *DrillResponse {
	resp := &DrillResponse{
		ID:          d.ID,
		Round:       d.Round,
		Values:      d.Values,
		AirDateFrom: d.AirDateFrom,
		AirDateTo:   d.AirDateTo,
		StartedAt:   d.StartedAt,
		EndedAt:     d.EndedAt,
		Active:      d.IsActive(),
		Stats: NewStatsResponse(drillengine.StatsFromCounts(
			d.CorrectCount, d.IncorrectCount, d.PassCount,
			d.CoryatScore, d.MaxPossibleScore,
		)),
	}

	if includeResponses {
		resp.Responses = make([]JudgedResponse, 0, len(d.DrillClues))
		for _, dc := range d.DrillClues {
			resp.Responses = append(resp.Responses, JudgedResponse{
				ClueID:          dc.ClueID,
				Category:        dc.Clue.Category,
				ClueText:        dc.Clue.ClueText,
				CorrectResponse: dc.Clue.CorrectResponse,
				NormalizedValue: dc.Clue.NormalizedValue,
				Response:        dc.Response,
				ResponseTime:    dc.ResponseTime,
				Result:          dc.Result.String(),
			})
		}
	}

	return resp
}

// PaginatedDrillsResponse представляет страницу истории тренировок
type PaginatedDrillsResponse struct {
	Drills  []*DrillResponse `json:"drills"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// SubmitResult представляет исход одного ответа: вердикт, раскрытый
// канонический ответ, свежие агрегаты и следующий клю (или признак завершения)
type SubmitResult struct {
	Verdict         string        `json:"verdict"`
	CorrectResponse string        `json:"correct_response"`
	Stats           StatsResponse `json:"stats"`
	Completed       bool          `json:"completed"`
	NextClue        *ClueResponse `json:"next_clue,omitempty"`
}

// NewSubmitResult создает DTO исхода ответа
func NewSubmitResult(r *service.SubmitResult, correctResponse string) *SubmitResult {
	return &SubmitResult{
		Verdict:         r.Verdict.String(),
		CorrectResponse: correctResponse,
		Stats:           NewStatsResponse(r.Stats),
		Completed:       r.Completed,
		NextClue:        NewClueResponse(r.NextClue),
	}
}
