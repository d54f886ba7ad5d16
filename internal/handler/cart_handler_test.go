package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/langschool/internal/cart"
	"github.com/hitoshi/langschool/internal/catalog"
	"github.com/hitoshi/langschool/internal/model"
)

// --- /selects テスト ---

func TestCartHandler_ListSelections_PassesQueryEmail(t *testing.T) {
	var gotCaller, gotEmail string
	svc := &mockCartService{
		listFn: func(ctx context.Context, callerEmail, email string) ([]*model.Selection, error) {
			gotCaller, gotEmail = callerEmail, email
			return []*model.Selection{{ID: "s-1", Email: email}}, nil
		},
	}
	h := NewCartHandler(svc)

	req := withEmail(httptest.NewRequest(http.MethodGet, "/selects?email=a@example.com", nil), "a@example.com")
	w := httptest.NewRecorder()
	h.ListSelections(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCaller != "a@example.com" || gotEmail != "a@example.com" {
		t.Errorf("ListForUser(%q, %q)", gotCaller, gotEmail)
	}
	var body []model.Selection
	decodeBody(t, w, &body)
	if len(body) != 1 || body[0].ID != "s-1" {
		t.Errorf("body = %+v", body)
	}
}

func TestCartHandler_ListSelections_ForbiddenForOtherEmail(t *testing.T) {
	svc := &mockCartService{
		listFn: func(ctx context.Context, callerEmail, email string) ([]*model.Selection, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewCartHandler(svc)

	req := withEmail(httptest.NewRequest(http.MethodGet, "/selects?email=b@example.com", nil), "a@example.com")
	w := httptest.NewRecorder()
	h.ListSelections(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	body := parseAPIErrorResponse(t, w)
	if !body.Error || body.Message == "" {
		t.Errorf("body = %+v, want {error: true, message}", body)
	}
}

func TestCartHandler_AddSelection(t *testing.T) {
	var gotCaller string
	var gotInput cart.AddInput
	svc := &mockCartService{
		addFn: func(ctx context.Context, callerEmail string, in cart.AddInput) (model.InsertResult, error) {
			gotCaller, gotInput = callerEmail, in
			return model.InsertResult{Acknowledged: true, InsertedID: "s-9"}, nil
		},
	}
	h := NewCartHandler(svc)

	req := withEmail(jsonRequest(http.MethodPost, "/selects", `{"classId":"c-1"}`), "a@example.com")
	w := httptest.NewRecorder()
	h.AddSelection(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCaller != "a@example.com" || gotInput.ClassID != "c-1" {
		t.Errorf("Add(%q, %+v)", gotCaller, gotInput)
	}
	var body model.InsertResult
	decodeBody(t, w, &body)
	if body.InsertedID != "s-9" {
		t.Errorf("insertedId = %q, want s-9", body.InsertedID)
	}
}

func TestCartHandler_AddSelection_RequiresClassID(t *testing.T) {
	svc := &mockCartService{}
	h := NewCartHandler(svc)

	req := withEmail(jsonRequest(http.MethodPost, "/selects", `{"email":"a@example.com"}`), "a@example.com")
	w := httptest.NewRecorder()
	h.AddSelection(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if svc.calls != 0 {
		t.Error("service should not be called")
	}
}

func TestCartHandler_AddSelection_Duplicate(t *testing.T) {
	svc := &mockCartService{
		addFn: func(ctx context.Context, callerEmail string, in cart.AddInput) (model.InsertResult, error) {
			return model.InsertResult{}, model.NewDuplicateSelectionError()
		},
	}
	h := NewCartHandler(svc)

	req := withEmail(jsonRequest(http.MethodPost, "/selects", `{"classId":"c-1"}`), "a@example.com")
	w := httptest.NewRecorder()
	h.AddSelection(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCartHandler_RemoveSelection_ZeroRowsIsOK(t *testing.T) {
	svc := &mockCartService{
		removeFn: func(ctx context.Context, callerEmail, id string) (model.DeleteResult, error) {
			if id != "s-404" || callerEmail != "a@example.com" {
				t.Errorf("Remove(%q, %q)", callerEmail, id)
			}
			return model.DeleteResult{Acknowledged: true, DeletedCount: 0}, nil
		},
	}
	h := NewCartHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/selects/s-404", nil)
	req = withChiURLParam(withEmail(req, "a@example.com"), "id", "s-404")
	w := httptest.NewRecorder()
	h.RemoveSelection(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]any
	decodeBody(t, w, &body)
	if body["deletedCount"] != float64(0) {
		t.Errorf("body = %v, want deletedCount 0", body)
	}
}

// --- 講師・講座テスト ---

func TestCatalogHandler_CreateClass_UsesTokenEmail(t *testing.T) {
	var got catalog.CreateClassInput
	svc := &mockCatalogService{
		createClassFn: func(ctx context.Context, in catalog.CreateClassInput) (model.InsertResult, error) {
			got = in
			return model.InsertResult{Acknowledged: true, InsertedID: "c-1"}, nil
		},
	}
	h := NewCatalogHandler(svc)

	body := `{"title":"Beginner Spanish","instructorName":"Garcia","instructorEmail":"spoof@example.com","price":30,"seats":12}`
	req := withEmail(jsonRequest(http.MethodPost, "/classes", body), "teacher@example.com")
	w := httptest.NewRecorder()
	h.CreateClass(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.InstructorEmail != "teacher@example.com" {
		t.Errorf("instructor email = %q, want token email", got.InstructorEmail)
	}
	if got.Title != "Beginner Spanish" || got.Price != 30 || got.Seats != 12 {
		t.Errorf("input = %+v", got)
	}
}

func TestCatalogHandler_CreateClass_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"price":10}`},
		{"negative price", `{"title":"x","price":-1}`},
		{"negative seats", `{"title":"x","seats":-3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCatalogService{}
			h := NewCatalogHandler(svc)
			req := withEmail(jsonRequest(http.MethodPost, "/classes", tt.body), "teacher@example.com")
			w := httptest.NewRecorder()
			h.CreateClass(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if svc.calls != 0 {
				t.Error("service should not be called")
			}
		})
	}
}

func TestCatalogHandler_MyClasses_EmptyEmail(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	req := withEmail(httptest.NewRequest(http.MethodGet, "/myclass", nil), "teacher@example.com")
	w := httptest.NewRecorder()
	h.MyClasses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestCatalogHandler_ListClasses(t *testing.T) {
	svc := &mockCatalogService{
		listClassesFn: func(ctx context.Context) ([]*model.Class, error) {
			return []*model.Class{{ID: "c-1", Title: "French"}}, nil
		},
	}
	h := NewCatalogHandler(svc)

	w := httptest.NewRecorder()
	h.ListClasses(w, httptest.NewRequest(http.MethodGet, "/classes", nil))

	var body []model.Class
	decodeBody(t, w, &body)
	if len(body) != 1 || body[0].Title != "French" {
		t.Errorf("body = %+v", body)
	}
}
