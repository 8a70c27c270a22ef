package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	"github.com/yourusername/jtrainer-api/internal/domain/repository"
	"github.com/yourusername/jtrainer-api/internal/handler/dto"
	"github.com/yourusername/jtrainer-api/internal/middleware"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
	"github.com/yourusername/jtrainer-api/internal/service"
	"github.com/yourusername/jtrainer-api/internal/service/drillengine"
)

// currentDrillTTL — время жизни указателя "текущая тренировка" в Redis.
// Указатель — только ускорение; источник истины — колонка ended_at в БД.
const currentDrillTTL = 24 * time.Hour

// DrillHandler обрабатывает запросы тренировок
type DrillHandler struct {
	drillService *service.DrillService
	cacheRepo    repository.CacheRepository
}

// NewDrillHandler создает новый обработчик тренировок
func NewDrillHandler(drillService *service.DrillService, cacheRepo repository.CacheRepository) *DrillHandler {
	return &DrillHandler{
		drillService: drillService,
		cacheRepo:    cacheRepo,
	}
}

// StartDrillRequest представляет фильтры новой тренировки.
// Все поля опциональны: пустой запрос — тренировка по всему пулу.
type StartDrillRequest struct {
	Round       *int   `json:"round"`
	Values      []int  `json:"values"`
	AirDateFrom string `json:"air_date_from"` // YYYY-MM-DD
	AirDateTo   string `json:"air_date_to"`   // YYYY-MM-DD
}

func (r *StartDrillRequest) toFilter() (repository.ClueFilter, error) {
	filter := repository.ClueFilter{
		Round:  r.Round,
		Values: r.Values,
	}
	if r.AirDateFrom != "" {
		t, err := time.Parse("2006-01-02", r.AirDateFrom)
		if err != nil {
			return filter, fmt.Errorf("%w: air_date_from must be YYYY-MM-DD", apperrors.ErrValidation)
		}
		filter.AirDateFrom = &t
	}
	if r.AirDateTo != "" {
		t, err := time.Parse("2006-01-02", r.AirDateTo)
		if err != nil {
			return filter, fmt.Errorf("%w: air_date_to must be YYYY-MM-DD", apperrors.ErrValidation)
		}
		filter.AirDateTo = &t
	}
	return filter, nil
}

// StartDrillResponse представляет новую тренировку вместе с первым клю
type StartDrillResponse struct {
	Drill *dto.DrillResponse `json:"drill"`
	Clue  *dto.ClueResponse  `json:"clue"`
}

// StartDrill создает новую тренировку и возвращает первый клю
// POST /api/drills
func (h *DrillHandler) StartDrill(c *gin.Context) {
	userID := middleware.UserID(c)

	var req StartDrillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		h.handleDrillError(c, err)
		return
	}

	drill, clue, err := h.drillService.StartDrill(userID, filter)
	if err != nil {
		h.handleDrillError(c, err)
		return
	}

	h.setCurrentDrill(userID, drill.ID)

	c.JSON(http.StatusCreated, StartDrillResponse{
		Drill: dto.NewDrillResponse(drill, false),
		Clue:  dto.NewClueResponse(clue),
	})
}

// GetCurrent возвращает текущую активную тренировку пользователя
// вместе с очередным клю
// GET /api/drills/current
func (h *DrillHandler) GetCurrent(c *gin.Context) {
	userID := middleware.UserID(c)

	drill, err := h.currentDrill(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active drill"})
			return
		}
		h.handleDrillError(c, err)
		return
	}

	clue, err := h.drillService.CurrentClue(userID, drill.ID)
	if err != nil {
		// Пул внезапно опустел (например, клю удалили между запросами) —
		// завершаем тренировку и сообщаем об этом клиенту
		if errors.Is(err, drillengine.ErrPoolExhausted) {
			h.endExhausted(c, userID, drill.ID)
			return
		}
		h.handleDrillError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartDrillResponse{
		Drill: dto.NewDrillResponse(drill, false),
		Clue:  dto.NewClueResponse(clue),
	})
}

// SubmitResponseRequest представляет ответ на клю
type SubmitResponseRequest struct {
	ClueID       uint     `json:"clue_id" binding:"required"`
	Response     *string  `json:"response"`
	ResponseTime *float64 `json:"response_time"`
}

// SubmitResponse судит ответ на клю и возвращает вердикт, свежие
// агрегаты и следующий клю (или признак завершения)
// POST /api/drills/:id/responses
func (h *DrillHandler) SubmitResponse(c *gin.Context) {
	userID := middleware.UserID(c)
	drillID := c.MustGet("drillID").(uint)

	var req SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.drillService.SubmitResponse(userID, drillID, req.ClueID, req.Response, req.ResponseTime)
	if err != nil {
		h.handleDrillError(c, err)
		return
	}

	// Канонический ответ раскрывается только после вынесения вердикта
	var correctResponse string
	for _, dc := range result.Drill.DrillClues {
		if dc.ClueID == req.ClueID {
			correctResponse = dc.Clue.CorrectResponse
			break
		}
	}

	if result.Completed {
		h.clearCurrentDrill(userID)
	}

	c.JSON(http.StatusOK, dto.NewSubmitResult(result, correctResponse))
}

// EndDrill явно завершает тренировку по идентификатору
// POST /api/drills/:id/end
func (h *DrillHandler) EndDrill(c *gin.Context) {
	userID := middleware.UserID(c)
	drillID := c.MustGet("drillID").(uint)
	h.endDrill(c, userID, drillID)
}

// EndCurrent завершает текущую активную тренировку пользователя
// POST /api/drills/current/end
func (h *DrillHandler) EndCurrent(c *gin.Context) {
	userID := middleware.UserID(c)

	drill, err := h.currentDrill(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active drill to end"})
			return
		}
		h.handleDrillError(c, err)
		return
	}

	h.endDrill(c, userID, drill.ID)
}

func (h *DrillHandler) endDrill(c *gin.Context, userID, drillID uint) {
	result, err := h.drillService.EndDrill(userID, drillID)
	if err != nil {
		h.handleDrillError(c, err)
		return
	}

	h.clearCurrentDrill(userID)

	if result.Deleted {
		c.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}
	c.JSON(http.StatusOK, dto.NewDrillResponse(result.Drill, true))
}

// endExhausted завершает тренировку, чей пул опустел между запросами
func (h *DrillHandler) endExhausted(c *gin.Context, userID, drillID uint) {
	result, err := h.drillService.EndDrill(userID, drillID)
	if err != nil {
		h.handleDrillError(c, err)
		return
	}
	h.clearCurrentDrill(userID)

	if result.Deleted {
		c.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}
	c.JSON(http.StatusOK, dto.NewDrillResponse(result.Drill, false))
}

// ListDrills возвращает страницу истории тренировок пользователя
// GET /api/drills?page=1&per_page=10
func (h *DrillHandler) ListDrills(c *gin.Context) {
	userID := middleware.UserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	drills, total, err := h.drillService.ListDrills(userID, page, perPage)
	if err != nil {
		h.handleDrillError(c, err)
		return
	}

	items := make([]*dto.DrillResponse, 0, len(drills))
	for i := range drills {
		items = append(items, dto.NewDrillResponse(&drills[i], false))
	}

	c.JSON(http.StatusOK, dto.PaginatedDrillsResponse{
		Drills:  items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// GetDrill возвращает тренировку с полным журналом ответов
// GET /api/drills/:id
func (h *DrillHandler) GetDrill(c *gin.Context) {
	userID := middleware.UserID(c)
	drillID := c.MustGet("drillID").(uint)

	drill, err := h.drillService.GetDrill(userID, drillID)
	if err != nil {
		h.handleDrillError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDrillResponse(drill, true))
}

// ExportDrill экспортирует журнал тренировки в CSV или Excel формате
// GET /api/drills/:id/export?format=csv|xlsx
func (h *DrillHandler) ExportDrill(c *gin.Context) {
	userID := middleware.UserID(c)
	drillID := c.MustGet("drillID").(uint)
	format := c.DefaultQuery("format", "csv")

	drill, err := h.drillService.GetDrill(userID, drillID)
	if err != nil {
		h.handleDrillError(c, err)
		return
	}

	filename := fmt.Sprintf("drill_%d_%s", drillID, drill.StartedAt.Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, drill, filename)
	default:
		h.exportCSV(c, drill, filename)
	}
}

var exportHeader = []string{"Clue ID", "Round", "Value", "Category", "Clue", "Correct Response", "Response", "Response Time (s)", "Result"}

// exportCSV экспортирует журнал в CSV с правильным экранированием спецсимволов
func (h *DrillHandler) exportCSV(c *gin.Context, drill *entity.Drill, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader)

	for _, dc := range drill.DrillClues {
		value := ""
		if dc.Clue.NormalizedValue != nil {
			value = strconv.Itoa(*dc.Clue.NormalizedValue)
		}
		response := ""
		if dc.Response != nil {
			response = *dc.Response
		}
		responseTime := ""
		if dc.ResponseTime != nil {
			responseTime = strconv.FormatFloat(*dc.ResponseTime, 'f', 2, 64)
		}

		writer.Write([]string{
			strconv.Itoa(int(dc.ClueID)),
			strconv.Itoa(dc.Clue.Round),
			value,
			sanitizeForExcel(dc.Clue.Category),
			sanitizeForExcel(dc.Clue.ClueText),
			sanitizeForExcel(dc.Clue.CorrectResponse),
			sanitizeForExcel(response),
			responseTime,
			dc.Result.String(),
		})
	}
}

// exportXLSX экспортирует журнал в Excel с использованием StreamWriter
func (h *DrillHandler) exportXLSX(c *gin.Context, drill *entity.Drill, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Drill"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[DrillHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(exportHeader))
	for i, hdr := range exportHeader {
		headers[i] = hdr
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[DrillHandler] Ошибка записи заголовков: %v", err)
	}

	for i, dc := range drill.DrillClues {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		var value interface{} = ""
		if dc.Clue.NormalizedValue != nil {
			value = *dc.Clue.NormalizedValue
		}
		response := ""
		if dc.Response != nil {
			response = *dc.Response
		}
		var responseTime interface{} = ""
		if dc.ResponseTime != nil {
			responseTime = *dc.ResponseTime
		}

		row := []interface{}{
			dc.ClueID,
			dc.Clue.Round,
			value,
			sanitizeForExcel(dc.Clue.Category),
			sanitizeForExcel(dc.Clue.ClueText),
			sanitizeForExcel(dc.Clue.CorrectResponse),
			sanitizeForExcel(response),
			responseTime,
			dc.Result.String(),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[DrillHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[DrillHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[DrillHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// --- Redis-указатель на текущую тренировку ---

func currentDrillKey(userID uint) string {
	return fmt.Sprintf("drill:current:%d", userID)
}

// currentDrill находит активную тренировку пользователя: сначала по
// указателю в Redis, затем по БД (fallback на случай потери указателя)
func (h *DrillHandler) currentDrill(userID uint) (*entity.Drill, error) {
	if val, err := h.cacheRepo.Get(currentDrillKey(userID)); err == nil {
		if id, parseErr := strconv.ParseUint(val, 10, 32); parseErr == nil {
			drill, getErr := h.drillService.GetDrill(userID, uint(id))
			if getErr == nil && drill.IsActive() {
				return drill, nil
			}
			// Протухший указатель — чистим и идем в БД
			h.clearCurrentDrill(userID)
		}
	}

	drill, err := h.drillService.GetActiveDrill(userID)
	if err != nil {
		return nil, err
	}
	h.setCurrentDrill(userID, drill.ID)
	return drill, nil
}

func (h *DrillHandler) setCurrentDrill(userID, drillID uint) {
	if err := h.cacheRepo.Set(currentDrillKey(userID), strconv.Itoa(int(drillID)), currentDrillTTL); err != nil {
		log.Printf("[DrillHandler] Не удалось сохранить указатель текущей тренировки для пользователя #%d: %v", userID, err)
	}
}

func (h *DrillHandler) clearCurrentDrill(userID uint) {
	if err := h.cacheRepo.Delete(currentDrillKey(userID)); err != nil {
		log.Printf("[DrillHandler] Не удалось удалить указатель текущей тренировки для пользователя #%d: %v", userID, err)
	}
}

// handleDrillError преобразует ошибки сервиса в HTTP-статусы
func (h *DrillHandler) handleDrillError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, drillengine.ErrPoolExhausted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No clues match the given filters"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Drill not found"})
	default:
		log.Printf("[DrillHandler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
