package handler

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/jtrainer-api/internal/handler/dto"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
	"github.com/yourusername/jtrainer-api/internal/service"
)

// maxImportFileSize — лимит размера загружаемого файла импорта (50 МБ)
const maxImportFileSize = 50 << 20

// ClueHandler обрабатывает запросы справочника клю
type ClueHandler struct {
	clueService *service.ClueService
}

// NewClueHandler создает новый обработчик клю
func NewClueHandler(clueService *service.ClueService) *ClueHandler {
	return &ClueHandler{clueService: clueService}
}

// ListClues возвращает страницу справочного списка клю
// GET /api/clues?page=1&per_page=25
func (h *ClueHandler) ListClues(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))

	clues, total, err := h.clueService.ListClues(page, perPage)
	if err != nil {
		h.handleClueError(c, err)
		return
	}

	items := make([]dto.ClueListItem, 0, len(clues))
	for i := range clues {
		items = append(items, dto.NewClueListItem(&clues[i]))
	}

	c.JSON(http.StatusOK, dto.PaginatedCluesResponse{
		Clues:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// GetClue возвращает клю по ID (с каноническим ответом)
// GET /api/clues/:id
func (h *ClueHandler) GetClue(c *gin.Context) {
	clueID := c.MustGet("clueID").(uint)

	clue, err := h.clueService.GetClue(clueID)
	if err != nil {
		h.handleClueError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewClueListItem(clue))
}

// GetClueStats возвращает статистику сыгранности клю по всем тренировкам
// GET /api/clues/:id/stats
func (h *ClueHandler) GetClueStats(c *gin.Context) {
	clueID := c.MustGet("clueID").(uint)

	stats, err := h.clueService.GetClueStats(clueID)
	if err != nil {
		h.handleClueError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ImportClues загружает архив клю из CSV или TSV файла (multipart,
// поле "file"). Разделитель определяется по расширению файла.
// POST /api/clues/import — только для администраторов
func (h *ClueHandler) ImportClues(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportFileSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required (multipart field \"file\")"})
		return
	}

	comma := ','
	if strings.EqualFold(filepath.Ext(fileHeader.Filename), ".tsv") {
		comma = '\t'
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot open uploaded file"})
		return
	}
	defer file.Close()

	result, err := h.clueService.ImportClues(file, comma)
	if err != nil {
		h.handleClueError(c, err)
		return
	}

	log.Printf("[ClueHandler] Импорт %s: добавлено %d, пропущено %d",
		fileHeader.Filename, result.Imported, result.Skipped)
	c.JSON(http.StatusOK, result)
}

// handleClueError преобразует ошибки сервиса в HTTP-статусы
func (h *ClueHandler) handleClueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Clue not found"})
	default:
		log.Printf("[ClueHandler] Внутренняя ошибка: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
