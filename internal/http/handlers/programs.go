package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baeumcoop.kr/app/internal/http/middleware"
	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/shared/apperr"
)

type ProgramsHandler struct {
	Repo *programs.Repo
}

func NewProgramsHandler(repo *programs.Repo) *ProgramsHandler {
	return &ProgramsHandler{Repo: repo}
}

type programItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Slug     string  `json:"slug"`
	Price    int     `json:"price"`
	Capacity int     `json:"capacity"`
	ImageURL *string `json:"image_url,omitempty"`
	Status   string  `json:"status"`
}

// GET /api/programs
func (h *ProgramsHandler) List(c *gin.Context) {
	list, err := h.Repo.ListOpen(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	items := make([]programItem, len(list))
	for i, p := range list {
		items[i] = programItem{
			ID:       p.ID,
			Title:    p.Title,
			Slug:     p.Slug,
			Price:    p.Price,
			Capacity: p.Capacity,
			ImageURL: p.ImageURL,
			Status:   p.Status,
		}
	}
	c.JSON(http.StatusOK, gin.H{"programs": items})
}

// GET /api/programs/:slug
func (h *ProgramsHandler) Detail(c *gin.Context) {
	p, err := h.Repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("프로그램을 찾을 수 없습니다."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          p.ID,
		"title":       p.Title,
		"slug":        p.Slug,
		"description": p.Description,
		"price":       p.Price,
		"capacity":    p.Capacity,
		"image_url":   p.ImageURL,
		"status":      p.Status,
	})
}
