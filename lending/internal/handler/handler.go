package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	md "github.com/campuslib/lending-service/pkg/middleware"

	"github.com/campuslib/lending-service/lending/internal/errs"
	"github.com/campuslib/lending-service/lending/internal/model"
	"github.com/campuslib/lending-service/pkg/auth"
	"github.com/campuslib/lending-service/pkg/validate"
)

type Handler struct {
	lendingSvc LendingService
	log        *zap.Logger
}

func New(lendingSvc LendingService, log *zap.Logger) *Handler {
	return &Handler{
		lendingSvc: lendingSvc,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.JwtAuthentication,
	)

	api.POST("/loans", h.IssueBook)
	api.POST("/loans/return", h.ReturnBook)
	api.GET("/loans", h.ListOpenLoans)

	api.GET("/students/:studentId", h.GetStudent)
	api.GET("/students/:studentId/fine", h.CheckFineStatus)
	api.GET("/students/:studentId/loans", h.StudentLoanReport)

	api.GET("/books", h.ListBooks)
	api.GET("/books/:bookId", h.GetBook)

	librarianOnly := md.RequireRole(auth.RoleLibrarian)
	api.POST("/students", h.CreateStudent, librarianOnly)
	api.POST("/books", h.CreateBook, librarianOnly)
	api.PUT("/books/:bookId", h.UpdateBook, librarianOnly)
	api.PATCH("/books/:bookId/stock", h.UpdateBookStock, librarianOnly)
	api.DELETE("/books/:bookId", h.DeleteBook, librarianOnly)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps engine error kinds onto status codes; everything the
// engine does not recognize is a 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrBookNotFound),
		errors.Is(err, errs.ErrNoOpenLoan),
		errors.Is(err, errs.ErrStudentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrAlreadyHoldsLoan),
		errors.Is(err, errs.ErrNoCopiesAvailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalidStock):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.Errorf("%s is invalid", name).Error())
	}
	return id, nil
}

func (h *Handler) IssueBook(c echo.Context) error {
	var req model.IssueBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	resp, err := h.lendingSvc.IssueBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	var req model.ReturnBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	resp, err := h.lendingSvc.ReturnBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListOpenLoans(c echo.Context) error {
	loans, err := h.lendingSvc.ListOpenLoans(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) CheckFineStatus(c echo.Context) error {
	studentID, err := pathID(c, "studentId")
	if err != nil {
		return err
	}
	status, err := h.lendingSvc.CheckFineStatus(c.Request().Context(), studentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) StudentLoanReport(c echo.Context) error {
	studentID, err := pathID(c, "studentId")
	if err != nil {
		return err
	}
	report, err := h.lendingSvc.StudentLoanReport(c.Request().Context(), studentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) GetStudent(c echo.Context) error {
	studentID, err := pathID(c, "studentId")
	if err != nil {
		return err
	}
	student, err := h.lendingSvc.GetStudent(c.Request().Context(), studentID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, student)
}

func (h *Handler) CreateStudent(c echo.Context) error {
	var req model.CreateStudentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.lendingSvc.CreateStudent(c.Request().Context(), req); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.lendingSvc.ListBooks(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	book, err := h.lendingSvc.GetBook(c.Request().Context(), bookID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.lendingSvc.CreateBook(c.Request().Context(), req); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.lendingSvc.UpdateBook(c.Request().Context(), bookID, req); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) UpdateBookStock(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	var req model.UpdateStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.lendingSvc.UpdateBookStock(c.Request().Context(), bookID, req.Copies); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}
	if err := h.lendingSvc.DeleteBook(c.Request().Context(), bookID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
