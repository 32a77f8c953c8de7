package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/services/document"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Push(ctx context.Context, doc wire.RawDocument) (int64, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(int64), args.Error(1)
}

func TestPushHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "частичный документ",
			body: `{"userId":"maria","fleet":{"vehicles":[]}}`,
			setupMock: func(m *MockService) {
				m.On("Push", mock.Anything, mock.MatchedBy(func(doc wire.RawDocument) bool {
					return doc.UserID == "maria" &&
						string(doc.Fleet) == `{"vehicles":[]}` &&
						doc.Expenses == nil
				})).Return(int64(1735689600000), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"updatedAt":1735689600000}}`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"userId":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "без userId",
			body:           `{"notes":[]}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"field UserID is a required field"}`,
		},
		{
			name: "месяц вне диапазона",
			body: `{"userId":"maria","income":[{"month":12,"year":2025,"items":[]}]}`,
			setupMock: func(m *MockService) {
				m.On("Push", mock.Anything, mock.Anything).Return(int64(0),
					fmt.Errorf("document.Push: %w", fmt.Errorf("%w: income[0].month 12 out of range", document.ErrValidation)))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"validation failed: income[0].month 12 out of range"}`,
		},
		{
			name: "ошибка хранилища",
			body: `{"userId":"maria"}`,
			setupMock: func(m *MockService) {
				m.On("Push", mock.Anything, mock.Anything).Return(int64(0), errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not save document"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			New(sl.Discard(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestPushHandler_BodyTooLarge(t *testing.T) {
	mockService := new(MockService)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(`{"userId":"maria","notes":[]}`))
	w := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(w, req.Body, 8)

	New(sl.Discard(), mockService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	mockService.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}
