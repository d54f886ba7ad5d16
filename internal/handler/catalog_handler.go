package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/langschool/internal/catalog"
	"github.com/hitoshi/langschool/internal/middleware"
	"github.com/hitoshi/langschool/internal/model"
)

// CatalogServiceInterface は講師・講座ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListTeachers(ctx context.Context) ([]*model.Teacher, error)
	ListClasses(ctx context.Context) ([]*model.Class, error)
	CreateClass(ctx context.Context, in catalog.CreateClassInput) (model.InsertResult, error)
	ClassesForInstructor(ctx context.Context, callerEmail, email string) ([]*model.Class, error)
}

// CatalogHandler は講師・講座のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// createClassRequest は講座作成リクエストのボディ。
// 講師のemailはトークンから取得するため受け付けない。
type createClassRequest struct {
	Title          string  `json:"title" validate:"required,max=200"`
	InstructorName string  `json:"instructorName" validate:"max=200"`
	Image          string  `json:"image" validate:"max=2048"`
	Price          float64 `json:"price" validate:"gte=0"`
	Seats          int     `json:"seats" validate:"gte=0,lte=100000"`
}

// ListTeachers は講師一覧を返す。
// GET /teachers
func (h *CatalogHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.service.ListTeachers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teachers)
}

// ListClasses は講座一覧を返す。
// GET /classes
func (h *CatalogHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.ListClasses(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

// CreateClass は講座を作成する。
// POST /classes（講師のみ）
func (h *CatalogHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := decodeRequest(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := h.service.CreateClass(r.Context(), catalog.CreateClassInput{
		InstructorEmail: middleware.EmailFromContext(r.Context()),
		InstructorName:  req.InstructorName,
		Title:           req.Title,
		Image:           req.Image,
		Price:           req.Price,
		Seats:           req.Seats,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MyClasses は講師本人が作成した講座を返す。
// emailクエリが空の場合は空配列を返す。
// GET /myclass?email=
func (h *CatalogHandler) MyClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.ClassesForInstructor(r.Context(),
		middleware.EmailFromContext(r.Context()),
		r.URL.Query().Get("email"),
	)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}
