package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	cb "github.com/campuslib/lending-service/pkg/circuit_breaker"
	"github.com/campuslib/lending-service/pkg/kafka"

	"github.com/campuslib/lending-service/lending/internal/errs"
	"github.com/campuslib/lending-service/lending/internal/model"
	"github.com/campuslib/lending-service/lending/internal/policy"
	"github.com/campuslib/lending-service/lending/internal/repository"
)

// Service is the lending policy engine. It owns no state of its own:
// every operation re-reads current truth through the repository.
type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	producer sarama.SyncProducer
	breaker  cb.CircuitBreaker
	now      func() time.Time
}

type Option func(*Service)

// WithProducer enables audit events on the loan-events topic.
func WithProducer(producer sarama.SyncProducer) Option {
	return func(s *Service) {
		s.producer = producer
	}
}

// WithClock overrides the operation date, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo repository.Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:     log,
		repo:    repo,
		breaker: cb.New(20, 30*time.Second, 0.5, 5),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the operation date, truncated to a calendar day.
func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func actingLibrarian(librarian *model.Librarian) model.Librarian {
	if librarian == nil {
		return model.SystemLibrarian
	}
	return *librarian
}

// IssueBook checks, in order: the student holds no open loan, the book
// exists, a copy is in stock. The repository re-verifies stock and the
// open-loan slot inside the issue transaction, so a racing caller gets
// the same error kinds rather than a double issue.
func (s *Service) IssueBook(ctx context.Context, req model.IssueBookRequest) (model.IssueBookResponse, error) {
	if _, err := s.repo.OpenLoanByStudent(ctx, req.Student.StudentID); err == nil {
		return model.IssueBookResponse{}, errs.ErrAlreadyHoldsLoan
	} else if !errors.Is(err, errs.ErrNoOpenLoan) {
		return model.IssueBookResponse{}, err
	}

	book, err := s.repo.GetBook(ctx, req.BookID)
	if err != nil {
		return model.IssueBookResponse{}, err
	}
	if book.Copies <= 0 {
		return model.IssueBookResponse{}, errs.ErrNoCopiesAvailable
	}

	librarian := actingLibrarian(req.Librarian)
	loan := model.LoanRecord{
		LoanUid:     uuid.New().String(),
		StudentID:   req.Student.StudentID,
		BookID:      req.BookID,
		LibrarianID: librarian.LibrarianID,
		IssueDate:   s.today(),
	}
	if err := s.repo.IssueLoan(ctx, req.Student, librarian, loan); err != nil {
		return model.IssueBookResponse{}, err
	}

	s.publishEvent(model.LoanEvent{
		Kind:        model.EventBookIssued,
		LoanUid:     loan.LoanUid,
		StudentID:   loan.StudentID,
		BookID:      loan.BookID,
		LibrarianID: loan.LibrarianID,
		IssueDate:   loan.IssueDate,
	})

	return model.IssueBookResponse{
		LoanUid:   loan.LoanUid,
		BookID:    loan.BookID,
		StudentID: loan.StudentID,
		IssueDate: loan.IssueDate,
		DueDate:   policy.DueDate(loan.IssueDate),
	}, nil
}

// ReturnBook closes the open loan for this student and book, charging
// the fine the policy derives from the days held.
func (s *Service) ReturnBook(ctx context.Context, req model.ReturnBookRequest) (model.ReturnBookResponse, error) {
	if _, err := s.repo.GetBook(ctx, req.BookID); err != nil {
		return model.ReturnBookResponse{}, err
	}

	loan, err := s.repo.OpenLoan(ctx, req.StudentID, req.BookID)
	if err != nil {
		return model.ReturnBookResponse{}, err
	}

	returnDate := s.today()
	daysHeld := policy.DaysBetween(loan.IssueDate, returnDate)
	fine := policy.Fine(daysHeld)

	closed, err := s.repo.CloseLoan(ctx, req.StudentID, req.BookID, returnDate, fine)
	if err != nil {
		return model.ReturnBookResponse{}, err
	}

	s.publishEvent(model.LoanEvent{
		Kind:        model.EventBookReturned,
		LoanUid:     closed.LoanUid,
		StudentID:   closed.StudentID,
		BookID:      closed.BookID,
		LibrarianID: actingLibrarian(req.Librarian).LibrarianID,
		IssueDate:   closed.IssueDate,
		ReturnDate:  closed.ReturnDate,
		FineAmount:  closed.FineAmount,
	})

	return model.ReturnBookResponse{
		LoanUid:    closed.LoanUid,
		BookID:     closed.BookID,
		StudentID:  closed.StudentID,
		IssueDate:  closed.IssueDate,
		ReturnDate: returnDate,
		DaysHeld:   daysHeld,
		FineAmount: closed.FineAmount,
	}, nil
}

// CheckFineStatus previews, against today's date, exactly what ReturnBook
// would charge. Both run the same day-difference and fine formula.
func (s *Service) CheckFineStatus(ctx context.Context, studentID int) (model.FineStatusResponse, error) {
	loans, err := s.repo.OpenLoansByStudent(ctx, studentID)
	if err != nil {
		return model.FineStatusResponse{}, err
	}
	if len(loans) == 0 {
		return model.FineStatusResponse{Status: model.FineStatusNothingIssued}, nil
	}

	loan := loans[0]
	status := s.loanStatus(loan)
	issueDate := loan.IssueDate
	dueDate := policy.DueDate(issueDate)
	return model.FineStatusResponse{
		Status:        status.Status,
		BookID:        loan.BookID,
		BookTitle:     loan.BookTitle,
		IssueDate:     &issueDate,
		DueDate:       &dueDate,
		DaysHeld:      status.DaysHeld,
		DaysLate:      status.DaysLate,
		DaysRemaining: status.DaysRemaining,
		FineAmount:    status.FineAmount,
	}, nil
}

func (s *Service) loanStatus(loan model.StudentOpenLoan) model.StudentLoanStatus {
	daysHeld := policy.DaysBetween(loan.IssueDate, s.today())
	st := model.StudentLoanStatus{
		LoanUid:   loan.LoanUid,
		BookID:    loan.BookID,
		BookTitle: loan.BookTitle,
		IssueDate: loan.IssueDate,
		DueDate:   policy.DueDate(loan.IssueDate),
		DaysHeld:  daysHeld,
	}
	if fine := policy.Fine(daysHeld); fine > 0 {
		st.Status = model.FineStatusAccruing
		st.DaysLate = daysHeld - policy.MaxIssueDays
		st.FineAmount = fine
	} else {
		st.Status = model.FineStatusOnTime
		st.DaysRemaining = policy.MaxIssueDays - daysHeld
	}
	return st
}

func (s *Service) ListOpenLoans(ctx context.Context) ([]model.OpenLoanSummary, error) {
	return s.repo.ListOpenLoans(ctx)
}

// StudentLoanReport reports every open loan for the student. The policy
// allows at most one, but the projection handles any number of rows.
func (s *Service) StudentLoanReport(ctx context.Context, studentID int) (model.StudentLoanReport, error) {
	loans, err := s.repo.OpenLoansByStudent(ctx, studentID)
	if err != nil {
		return model.StudentLoanReport{}, err
	}
	report := model.StudentLoanReport{
		StudentID: studentID,
		Loans:     make([]model.StudentLoanStatus, 0, len(loans)),
	}
	for _, loan := range loans {
		report.Loans = append(report.Loans, s.loanStatus(loan))
	}
	return report, nil
}

func (s *Service) GetBook(ctx context.Context, bookID int) (model.Book, error) {
	return s.repo.GetBook(ctx, bookID)
}

func (s *Service) ListBooks(ctx context.Context) ([]model.Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) error {
	if req.Copies < 0 {
		return errs.ErrInvalidStock
	}
	return s.repo.UpsertBook(ctx, model.Book{
		BookID:    req.BookID,
		Title:     req.Title,
		Publisher: req.Publisher,
		Edition:   req.Edition,
		Copies:    req.Copies,
	})
}

func (s *Service) UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) error {
	if req.Copies < 0 {
		return errs.ErrInvalidStock
	}
	return s.repo.UpdateBook(ctx, model.Book{
		BookID:    bookID,
		Title:     req.Title,
		Publisher: req.Publisher,
		Edition:   req.Edition,
		Copies:    req.Copies,
	})
}

func (s *Service) UpdateBookStock(ctx context.Context, bookID, copies int) error {
	if copies < 0 {
		return errs.ErrInvalidStock
	}
	return s.repo.SetBookCopies(ctx, bookID, copies)
}

func (s *Service) DeleteBook(ctx context.Context, bookID int) error {
	return s.repo.DeleteBook(ctx, bookID)
}

func (s *Service) GetStudent(ctx context.Context, studentID int) (model.Student, error) {
	return s.repo.GetStudent(ctx, studentID)
}

func (s *Service) CreateStudent(ctx context.Context, req model.CreateStudentRequest) error {
	return s.repo.UpsertStudent(ctx, model.Student{
		StudentID:  req.StudentID,
		Name:       req.Name,
		Department: req.Department,
		Course:     req.Course,
	})
}

// publishEvent is fire-and-forget: the breaker keeps a dead broker from
// stalling the request path and failures only get logged.
func (s *Service) publishEvent(event model.LoanEvent) {
	if s.producer == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.log.Error("marshal loan event", zap.Error(err))
		return
	}
	err = s.breaker.Call(func() error {
		_, _, err := s.producer.SendMessage(&sarama.ProducerMessage{
			Topic: kafka.LoanEventsTopic,
			Key:   sarama.StringEncoder(strconv.Itoa(event.StudentID)),
			Value: sarama.ByteEncoder(value),
		})
		return err
	})
	if err != nil {
		s.log.Warn("publish loan event",
			zap.String("kind", string(event.Kind)),
			zap.String("loan_uid", event.LoanUid),
			zap.Error(err))
	}
}
