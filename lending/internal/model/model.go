package model

import (
	"time"
)

type Book struct {
	BookID    int    `json:"bookId" db:"book_id"`
	Title     string `json:"title" db:"title"`
	Publisher string `json:"publisher" db:"publisher"`
	Edition   string `json:"edition" db:"edition"`
	Copies    int    `json:"copies" db:"copies"`
}

type Student struct {
	StudentID  int    `json:"studentId" db:"student_id"`
	Name       string `json:"name" db:"name"`
	Department string `json:"department" db:"department"`
	Course     string `json:"course" db:"course"`
}

type Librarian struct {
	LibrarianID int    `json:"librarianId" db:"librarian_id"`
	Name        string `json:"name" db:"name"`
}

// SystemLibrarian is the acting librarian recorded on self-service
// operations that carry no human actor.
var SystemLibrarian = Librarian{LibrarianID: 0, Name: "system"}

// LoanRecord is the audit trail row. An open loan has no return date.
type LoanRecord struct {
	ID          int        `json:"-" db:"id"`
	LoanUid     string     `json:"loanUid" db:"loan_uid"`
	StudentID   int        `json:"studentId" db:"student_id"`
	BookID      int        `json:"bookId" db:"book_id"`
	LibrarianID int        `json:"librarianId" db:"librarian_id"`
	IssueDate   time.Time  `json:"issueDate" db:"issue_date"`
	ReturnDate  *time.Time `json:"returnDate,omitempty" db:"return_date"`
	FineAmount  int        `json:"fineAmount" db:"fine_amount"`
}

// Librarian is optional on issue and return; absent means the
// self-service path and the system actor is recorded instead.
type IssueBookRequest struct {
	Student   Student    `json:"student" validate:"required"`
	BookID    int        `json:"bookId" validate:"required"`
	Librarian *Librarian `json:"librarian,omitempty"`
}

type IssueBookResponse struct {
	LoanUid   string    `json:"loanUid"`
	BookID    int       `json:"bookId"`
	StudentID int       `json:"studentId"`
	IssueDate time.Time `json:"issueDate"`
	DueDate   time.Time `json:"dueDate"`
}

type ReturnBookRequest struct {
	StudentID int        `json:"studentId" validate:"required"`
	BookID    int        `json:"bookId" validate:"required"`
	Librarian *Librarian `json:"librarian,omitempty"`
}

type ReturnBookResponse struct {
	LoanUid    string    `json:"loanUid"`
	BookID     int       `json:"bookId"`
	StudentID  int       `json:"studentId"`
	IssueDate  time.Time `json:"issueDate"`
	ReturnDate time.Time `json:"returnDate"`
	DaysHeld   int       `json:"daysHeld"`
	FineAmount int       `json:"fineAmount"`
}

type FineStatus string

const (
	FineStatusNothingIssued FineStatus = "NOTHING_ISSUED"
	FineStatusOnTime        FineStatus = "ON_TIME"
	FineStatusAccruing      FineStatus = "FINE_ACCRUING"
)

// FineStatusResponse previews what a return today would charge.
type FineStatusResponse struct {
	Status        FineStatus `json:"status"`
	BookID        int        `json:"bookId,omitempty"`
	BookTitle     string     `json:"bookTitle,omitempty"`
	IssueDate     *time.Time `json:"issueDate,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	DaysHeld      int        `json:"daysHeld,omitempty"`
	DaysLate      int        `json:"daysLate,omitempty"`
	DaysRemaining int        `json:"daysRemaining,omitempty"`
	FineAmount    int        `json:"fineAmount,omitempty"`
}

// OpenLoanSummary is a loan record joined with actor and book names.
type OpenLoanSummary struct {
	ID            int       `json:"-" db:"id"`
	LoanUid       string    `json:"loanUid" db:"loan_uid"`
	StudentID     int       `json:"studentId" db:"student_id"`
	StudentName   string    `json:"studentName" db:"student_name"`
	BookID        int       `json:"bookId" db:"book_id"`
	BookTitle     string    `json:"bookTitle" db:"book_title"`
	IssueDate     time.Time `json:"issueDate" db:"issue_date"`
	LibrarianName string    `json:"librarianName" db:"librarian_name"`
}

// StudentOpenLoan is one open loan row joined with its book title.
type StudentOpenLoan struct {
	LoanUid   string    `db:"loan_uid"`
	BookID    int       `db:"book_id"`
	BookTitle string    `db:"book_title"`
	IssueDate time.Time `db:"issue_date"`
}

// StudentLoanReport lists every currently open loan for one student.
// The policy allows at most one, but the projection does not rely on it.
type StudentLoanReport struct {
	StudentID int                 `json:"studentId"`
	Loans     []StudentLoanStatus `json:"loans"`
}

type StudentLoanStatus struct {
	LoanUid       string     `json:"loanUid"`
	BookID        int        `json:"bookId"`
	BookTitle     string     `json:"bookTitle"`
	IssueDate     time.Time  `json:"issueDate"`
	DueDate       time.Time  `json:"dueDate"`
	DaysHeld      int        `json:"daysHeld"`
	Status        FineStatus `json:"status"`
	DaysLate      int        `json:"daysLate,omitempty"`
	DaysRemaining int        `json:"daysRemaining,omitempty"`
	FineAmount    int        `json:"fineAmount,omitempty"`
}

type CreateBookRequest struct {
	BookID    int    `json:"bookId" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Publisher string `json:"publisher" validate:"required"`
	Edition   string `json:"edition"`
	Copies    int    `json:"copies"`
}

type UpdateBookRequest struct {
	Title     string `json:"title" validate:"required"`
	Publisher string `json:"publisher" validate:"required"`
	Edition   string `json:"edition"`
	Copies    int    `json:"copies"`
}

type UpdateStockRequest struct {
	Copies int `json:"copies"`
}

type CreateStudentRequest struct {
	StudentID  int    `json:"studentId" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required"`
	Course     string `json:"course" validate:"required"`
}

type EventKind string

const (
	EventBookIssued   EventKind = "BOOK_ISSUED"
	EventBookReturned EventKind = "BOOK_RETURNED"
)

// LoanEvent is published to the audit topic on issue and return.
type LoanEvent struct {
	Kind        EventKind  `json:"kind"`
	LoanUid     string     `json:"loanUid"`
	StudentID   int        `json:"studentId"`
	BookID      int        `json:"bookId"`
	LibrarianID int        `json:"librarianId"`
	IssueDate   time.Time  `json:"issueDate"`
	ReturnDate  *time.Time `json:"returnDate,omitempty"`
	FineAmount  int        `json:"fineAmount"`
}
