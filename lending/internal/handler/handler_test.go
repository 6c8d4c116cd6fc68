package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslib/lending-service/lending/internal/errs"
	"github.com/campuslib/lending-service/lending/internal/handler"
	"github.com/campuslib/lending-service/lending/internal/model"
	"github.com/campuslib/lending-service/pkg/validate"

	service_mocks "github.com/campuslib/lending-service/lending/internal/handler/mocks"
)

func TestHandler_IssueBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLendingService)

	issueDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	issueReq := model.IssueBookRequest{
		Student: model.Student{StudentID: 7, Name: "Alice", Department: "CS", Course: "B.Tech"},
		BookID:  1,
	}

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		requestBody  string
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueBook(context.Background(), issueReq).
					Return(model.IssueBookResponse{
						LoanUid:   "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
						BookID:    1,
						StudentID: 7,
						IssueDate: issueDate,
						DueDate:   issueDate.AddDate(0, 0, 7),
					}, nil)
			},
			requestBody: `{"student":{"studentId":7,"name":"Alice","department":"CS","course":"B.Tech"},"bookId":1}`,
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"loanUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","bookId":1,"studentId":7,"issueDate":"2024-03-01T00:00:00Z","dueDate":"2024-03-08T00:00:00Z"}`,
			},
			wantErr: false,
		},
		{
			name: "err. already holds a loan",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueBook(context.Background(), issueReq).
					Return(model.IssueBookResponse{}, errs.ErrAlreadyHoldsLoan)
			},
			requestBody: `{"student":{"studentId":7,"name":"Alice","department":"CS","course":"B.Tech"},"bookId":1}`,
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"student already holds an open loan"}`,
			},
			wantErr: true,
		},
		{
			name: "err. no copies available",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueBook(context.Background(), issueReq).
					Return(model.IssueBookResponse{}, errs.ErrNoCopiesAvailable)
			},
			requestBody: `{"student":{"studentId":7,"name":"Alice","department":"CS","course":"B.Tech"},"bookId":1}`,
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no copies available"}`,
			},
			wantErr: true,
		},
		{
			name: "err. book not found",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					IssueBook(context.Background(), issueReq).
					Return(model.IssueBookResponse{}, errs.ErrBookNotFound)
			},
			requestBody: `{"student":{"studentId":7,"name":"Alice","department":"CS","course":"B.Tech"},"bookId":1}`,
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
			wantErr: true,
		},
		{
			name:         "err. bookId required",
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			requestBody:  `{"student":{"studentId":7,"name":"Alice","department":"CS","course":"B.Tech"}}`,
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'IssueBookRequest.BookID' Error:Field validation for 'BookID' failed on the 'required' tag"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/loans", h.IssueBook)

			r := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(tt.requestBody))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLendingService)

	returnReq := model.ReturnBookRequest{StudentID: 7, BookID: 1}

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		requestBody  string
		response     response
		wantErr      bool
	}{
		{
			name: "ok. two days late",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					ReturnBook(context.Background(), returnReq).
					Return(model.ReturnBookResponse{
						LoanUid:    "f7cdc58f-2caf-4b15-9727-f89dcc629b27",
						BookID:     1,
						StudentID:  7,
						IssueDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
						ReturnDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
						DaysHeld:   9,
						FineAmount: 20,
					}, nil)
			},
			requestBody: `{"studentId":7,"bookId":1}`,
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"loanUid":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","bookId":1,"studentId":7,"issueDate":"2024-03-01T00:00:00Z","returnDate":"2024-03-10T00:00:00Z","daysHeld":9,"fineAmount":20}`,
			},
			wantErr: false,
		},
		{
			name: "err. no open loan",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					ReturnBook(context.Background(), returnReq).
					Return(model.ReturnBookResponse{}, errs.ErrNoOpenLoan)
			},
			requestBody: `{"studentId":7,"bookId":1}`,
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"no open loan for this student and book"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/loans/return", h.ReturnBook)

			r := httptest.NewRequest(http.MethodPost, "/loans/return", strings.NewReader(tt.requestBody))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CheckFineStatus(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLendingService)

	issueDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dueDate := issueDate.AddDate(0, 0, 7)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		studentID    string
		response     response
		wantErr      bool
	}{
		{
			name: "ok. nothing issued",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					CheckFineStatus(context.Background(), 7).
					Return(model.FineStatusResponse{Status: model.FineStatusNothingIssued}, nil)
			},
			studentID: "7",
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"status":"NOTHING_ISSUED"}`,
			},
			wantErr: false,
		},
		{
			name: "ok. fine accruing",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					CheckFineStatus(context.Background(), 7).
					Return(model.FineStatusResponse{
						Status:     model.FineStatusAccruing,
						BookID:     1,
						BookTitle:  "SICP",
						IssueDate:  &issueDate,
						DueDate:    &dueDate,
						DaysHeld:   9,
						DaysLate:   2,
						FineAmount: 20,
					}, nil)
			},
			studentID: "7",
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"status":"FINE_ACCRUING","bookId":1,"bookTitle":"SICP","issueDate":"2024-03-01T00:00:00Z","dueDate":"2024-03-08T00:00:00Z","daysHeld":9,"daysLate":2,"fineAmount":20}`,
			},
			wantErr: false,
		},
		{
			name:         "err. invalid studentId",
			mockBehavior: func(r *service_mocks.MockLendingService) {},
			studentID:    "abc",
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"studentId is invalid"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.GET("/students/:studentId/fine", h.CheckFineStatus)

			r := httptest.NewRequest(http.MethodGet, "/students/"+tt.studentID+"/fine", http.NoBody)
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_UpdateBookStock(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLendingService)

	var tests = []struct {
		name         string
		mockBehavior mockBehavior
		requestBody  string
		response     response
		wantErr      bool
	}{
		{
			name: "ok",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					UpdateBookStock(context.Background(), 1, 5).
					Return(nil)
			},
			requestBody: `{"copies":5}`,
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: ``,
			},
			wantErr: false,
		},
		{
			name: "err. negative copies",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					UpdateBookStock(context.Background(), 1, -2).
					Return(errs.ErrInvalidStock)
			},
			requestBody: `{"copies":-2}`,
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"copies must be non-negative"}`,
			},
			wantErr: true,
		},
		{
			name: "err. book not found",
			mockBehavior: func(r *service_mocks.MockLendingService) {
				r.EXPECT().
					UpdateBookStock(context.Background(), 1, 5).
					Return(errs.ErrBookNotFound)
			},
			requestBody: `{"copies":5}`,
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLendingService(c)
			log := zap.NewExample().Named("test")
			h := handler.New(svc, log)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.PATCH("/books/:bookId/stock", h.UpdateBookStock)

			r := httptest.NewRequest(http.MethodPatch, "/books/1/stock", strings.NewReader(tt.requestBody))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}
