package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/services/document"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Fetch(ctx context.Context, userID string) (*wire.RawDocument, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*wire.RawDocument), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestFetchHandler(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "документ найден",
			userID: "maria",
			setupMock: func(m *MockService) {
				m.On("Fetch", mock.Anything, "maria").Return(&wire.RawDocument{
					UserID:    "maria",
					Notes:     json.RawMessage(`[{"month":0,"year":2025,"content":"x"}]`),
					UpdatedAt: 42,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"userId":"maria","notes":[{"month":0,"year":2025,"content":"x"}],"updatedAt":42}`,
		},
		{
			name:   "документа нет",
			userID: "bruno",
			setupMock: func(m *MockService) {
				m.On("Fetch", mock.Anything, "bruno").Return(nil, fmt.Errorf("document.Fetch: %w", document.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"document not found"}`,
		},
		{
			name:   "ошибка сервиса",
			userID: "maria",
			setupMock: func(m *MockService) {
				m.On("Fetch", mock.Anything, "maria").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not read document"}`,
		},
		{
			name:           "пустой userId",
			userID:         "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"user id is required"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/sync/"+tt.userID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("userId", tt.userID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(sl.Discard(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
