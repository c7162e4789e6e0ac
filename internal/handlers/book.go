package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/services"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type BookHandler struct {
	books services.BookService
	notes services.NoteService
	qa    services.QAService
}

func NewBookHandler(books services.BookService, notes services.NoteService, qa services.QAService) *BookHandler {
	return &BookHandler{books: books, notes: notes, qa: qa}
}

// POST /api/books
func (h *BookHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	book, job, err := h.books.Upload(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"book": book, "job_id": job.ID})
}

// GET /api/books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.books.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"books": books})
}

// GET /api/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	book, err := h.books.Get(c.Request.Context(), bookID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"book": book})
}

// GET /api/books/:id/pdf
func (h *BookHandler) GetPDF(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	path, err := h.books.PDFPath(c.Request.Context(), bookID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline")
	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

// DELETE /api/books/:id
func (h *BookHandler) Delete(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	if err := h.books.Delete(c.Request.Context(), bookID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

// SectionTreeNode is a section with its children nested, for the reader's
// table of contents view.
type SectionTreeNode struct {
	*types.Section
	Children []*SectionTreeNode `json:"children"`
}

// BuildSectionTree nests a flat sort-ordered section list by parent id.
func BuildSectionTree(sections []*types.Section) []*SectionTreeNode {
	byID := make(map[uuid.UUID]*SectionTreeNode, len(sections))
	nodes := make([]*SectionTreeNode, 0, len(sections))
	for _, sec := range sections {
		node := &SectionTreeNode{Section: sec, Children: []*SectionTreeNode{}}
		byID[sec.ID] = node
		nodes = append(nodes, node)
	}
	var roots []*SectionTreeNode
	for _, node := range nodes {
		if node.ParentID != nil {
			if parent, ok := byID[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// GET /api/books/:id/sections
func (h *BookHandler) Sections(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	sections, err := h.books.Sections(c.Request.Context(), bookID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sections": BuildSectionTree(sections)})
}

// GET /api/books/:id/sections/by_page?page=N
func (h *BookHandler) SectionByPage(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_page", err)
		return
	}
	section, err := h.books.SectionByPage(c.Request.Context(), bookID, page)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"section": section})
}

// GET /api/books/:id/progress
func (h *BookHandler) GetProgress(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	progress, err := h.books.Progress(c.Request.Context(), bookID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

type progressUpdateRequest struct {
	LastPage      int        `json:"last_page" binding:"required"`
	LastSectionID *uuid.UUID `json:"last_section_id"`
}

// PUT /api/books/:id/progress
func (h *BookHandler) UpdateProgress(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	var req progressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	progress, err := h.books.UpdateProgress(c.Request.Context(), bookID, req.LastPage, req.LastSectionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

type qaRequest struct {
	SelectionText string `json:"selection_text"`
	Question      string `json:"question"`
}

// POST /api/books/:id/qa
func (h *BookHandler) AskQuestion(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	var req qaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	answer, err := h.qa.Answer(c.Request.Context(), bookID, req.SelectionText, req.Question)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"answer": answer})
}

type noteCreateRequest struct {
	PageNum       int                   `json:"page_num" binding:"required"`
	SelectionText string                `json:"selection_text"`
	Question      string                `json:"question"`
	Answer        string                `json:"answer"`
	Rects         []types.HighlightRect `json:"rects"`
}

// POST /api/books/:id/notes
func (h *BookHandler) CreateNote(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	var req noteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	note, err := h.notes.Create(c.Request.Context(), bookID, services.NoteCreateInput{
		PageNum:       req.PageNum,
		SelectionText: req.SelectionText,
		Question:      req.Question,
		Answer:        req.Answer,
		Rects:         req.Rects,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"note": note})
}

// GET /api/books/:id/notes?page=N
func (h *BookHandler) ListNotes(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", err)
		return
	}
	var page *int
	if raw := c.Query("page"); raw != "" {
		parsed, convErr := strconv.Atoi(raw)
		if convErr != nil || parsed < 1 {
			RespondError(c, http.StatusBadRequest, "invalid_page", convErr)
			return
		}
		page = &parsed
	}
	notes, err := h.notes.List(c.Request.Context(), bookID, page)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"notes": notes})
}
