package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baeumcoop.kr/app/internal/http/middleware"
	"baeumcoop.kr/app/internal/http/validation"
	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/shared/apperr"
	"baeumcoop.kr/app/internal/storage"
)

const maxImageSize = 5 << 20 // 5MB

type ProgramsHandler struct {
	Repo    *programs.Repo
	Storage storage.Storage
}

func NewProgramsHandler(repo *programs.Repo, st storage.Storage) *ProgramsHandler {
	return &ProgramsHandler{Repo: repo, Storage: st}
}

type createProgramInput struct {
	Title       string `json:"title" binding:"required,min=2,max=255"`
	Slug        string `json:"slug" binding:"required,min=2,max=255"`
	Description string `json:"description" binding:"omitempty"`
	Price       int    `json:"price" binding:"required,gt=0"`
	Capacity    int    `json:"capacity" binding:"omitempty,gte=0"`
	Status      string `json:"status" binding:"omitempty,oneof=draft open closed"`
}

// POST /api/admin/programs
func (h *ProgramsHandler) Create(c *gin.Context) {
	var in createProgramInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs := validation.FromBindError(err, &in)
		middleware.Fail(c, apperr.InvalidErr("입력값을 확인해 주세요.", errs))
		return
	}

	p, err := h.Repo.Create(c.Request.Context(), programs.CreateProgramInput{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
		Price:       in.Price,
		Capacity:    in.Capacity,
		Status:      in.Status,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "slug": p.Slug})
}

type updateProgramInput struct {
	Title       *string `json:"title" binding:"omitempty,min=2,max=255"`
	Description *string `json:"description"`
	Price       *int    `json:"price" binding:"omitempty,gt=0"`
	Capacity    *int    `json:"capacity" binding:"omitempty,gte=0"`
	Status      *string `json:"status" binding:"omitempty,oneof=draft open closed"`
}

// PATCH /api/admin/programs/:id
func (h *ProgramsHandler) Update(c *gin.Context) {
	var in updateProgramInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs := validation.FromBindError(err, &in)
		middleware.Fail(c, apperr.InvalidErr("입력값을 확인해 주세요.", errs))
		return
	}

	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.Capacity != nil {
		updates["capacity"] = *in.Capacity
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if len(updates) == 0 {
		middleware.Fail(c, apperr.InvalidErr("변경할 내용이 없습니다.", nil))
		return
	}

	if err := h.Repo.Update(c.Request.Context(), c.Param("id"), updates); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /api/admin/programs/:id/image (multipart)
func (h *ProgramsHandler) UploadImage(c *gin.Context) {
	prog, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("프로그램을 찾을 수 없습니다."))
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("이미지 파일이 필요합니다.", nil))
		return
	}
	if fh.Size > maxImageSize {
		middleware.Fail(c, apperr.InvalidErr("이미지는 5MB 이하여야 합니다.", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	res, err := h.Storage.Put(c.Request.Context(), f, storage.PutInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	if err := h.Repo.SetImage(c.Request.Context(), prog.ID, res.URL); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": res.URL})
}

// GET /api/admin/participants?program_id=&status=
func (h *ProgramsHandler) ListParticipants(c *gin.Context) {
	list, err := h.Repo.ListParticipants(c.Request.Context(), programs.ListParticipantsParams{
		ProgramID: c.Query("program_id"),
		Status:    c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": list})
}
