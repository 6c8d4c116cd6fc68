package handler

import (
	"context"

	"github.com/campuslib/lending-service/lending/internal/model"
	"github.com/campuslib/lending-service/lending/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LendingService interface {
	IssueBook(ctx context.Context, req model.IssueBookRequest) (model.IssueBookResponse, error)
	ReturnBook(ctx context.Context, req model.ReturnBookRequest) (model.ReturnBookResponse, error)
	CheckFineStatus(ctx context.Context, studentID int) (model.FineStatusResponse, error)
	ListOpenLoans(ctx context.Context) ([]model.OpenLoanSummary, error)
	StudentLoanReport(ctx context.Context, studentID int) (model.StudentLoanReport, error)

	GetBook(ctx context.Context, bookID int) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) error
	UpdateBook(ctx context.Context, bookID int, req model.UpdateBookRequest) error
	UpdateBookStock(ctx context.Context, bookID, copies int) error
	DeleteBook(ctx context.Context, bookID int) error

	GetStudent(ctx context.Context, studentID int) (model.Student, error)
	CreateStudent(ctx context.Context, req model.CreateStudentRequest) error
}

var _ LendingService = (*service.Service)(nil)
