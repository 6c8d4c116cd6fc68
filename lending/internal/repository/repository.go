package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/campuslib/lending-service/lending/internal/errs"
	"github.com/campuslib/lending-service/lending/internal/model"
)

type Repository interface {
	GetBook(ctx context.Context, bookID int) (model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	UpsertBook(ctx context.Context, book model.Book) error
	UpdateBook(ctx context.Context, book model.Book) error
	SetBookCopies(ctx context.Context, bookID, copies int) error
	DeleteBook(ctx context.Context, bookID int) error

	GetStudent(ctx context.Context, studentID int) (model.Student, error)
	UpsertStudent(ctx context.Context, student model.Student) error
	UpsertLibrarian(ctx context.Context, librarian model.Librarian) error

	OpenLoanByStudent(ctx context.Context, studentID int) (model.LoanRecord, error)
	OpenLoan(ctx context.Context, studentID, bookID int) (model.LoanRecord, error)
	OpenLoansByStudent(ctx context.Context, studentID int) ([]model.StudentOpenLoan, error)
	IssueLoan(ctx context.Context, student model.Student, librarian model.Librarian, loan model.LoanRecord) error
	CloseLoan(ctx context.Context, studentID, bookID int, returnDate time.Time, fine int) (model.LoanRecord, error)
	ListOpenLoans(ctx context.Context) ([]model.OpenLoanSummary, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName      = `books`
	studentsTableName   = `students`
	librariansTableName = `librarians`
	loansTableName      = `loans`

	openLoanPerStudentConstraint = `one_open_loan_per_student`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// persistenceErr keeps the storage fault readable while letting callers
// match on errs.ErrPersistence.
func persistenceErr(err error) error {
	return errors.WithMessage(errs.ErrPersistence, err.Error())
}

func (r *repository) GetBook(ctx context.Context, bookID int) (model.Book, error) {
	query, args, err := qb.Select("book_id", "title", "publisher", "edition", "copies").
		From(booksTableName).
		Where(sq.Eq{"book_id": bookID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, persistenceErr(err)
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, persistenceErr(err)
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	query, args, err := qb.Select("book_id", "title", "publisher", "edition", "copies").
		From(booksTableName).
		OrderBy("book_id").
		ToSql()
	if err != nil {
		return nil, persistenceErr(err)
	}
	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, persistenceErr(err)
	}
	return books, nil
}

func (r *repository) UpsertBook(ctx context.Context, book model.Book) error {
	query, args, err := qb.Insert(booksTableName).
		Columns("book_id", "title", "publisher", "edition", "copies").
		Values(book.BookID, book.Title, book.Publisher, book.Edition, book.Copies).
		Suffix(`on conflict (book_id) do update
			set title = excluded.title, publisher = excluded.publisher,
			    edition = excluded.edition, copies = excluded.copies`).
		ToSql()
	if err != nil {
		return persistenceErr(err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("UpsertBook", zap.String("q", query), zap.Any("args", args))
		return persistenceErr(err)
	}
	return nil
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) error {
	query, args, err := qb.Update(booksTableName).
		Set("title", book.Title).
		Set("publisher", book.Publisher).
		Set("edition", book.Edition).
		Set("copies", book.Copies).
		Where(sq.Eq{"book_id": book.BookID}).
		ToSql()
	if err != nil {
		return persistenceErr(err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return persistenceErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (r *repository) SetBookCopies(ctx context.Context, bookID, copies int) error {
	q := `update books set copies = $2 where book_id = $1`
	res, err := r.db.ExecContext(ctx, q, bookID, copies)
	if err != nil {
		return persistenceErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (r *repository) DeleteBook(ctx context.Context, bookID int) error {
	q := `delete from books where book_id = $1`
	res, err := r.db.ExecContext(ctx, q, bookID)
	if err != nil {
		return persistenceErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (r *repository) GetStudent(ctx context.Context, studentID int) (model.Student, error) {
	query, args, err := qb.Select("student_id", "name", "department", "course").
		From(studentsTableName).
		Where(sq.Eq{"student_id": studentID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Student{}, persistenceErr(err)
	}
	var student model.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Student{}, errs.ErrStudentNotFound
		}
		return model.Student{}, persistenceErr(err)
	}
	return student, nil
}

func (r *repository) UpsertStudent(ctx context.Context, student model.Student) error {
	return upsertStudent(ctx, r.db, student)
}

func (r *repository) UpsertLibrarian(ctx context.Context, librarian model.Librarian) error {
	return upsertLibrarian(ctx, r.db, librarian)
}

func upsertStudent(ctx context.Context, ext sqlx.ExtContext, student model.Student) error {
	query, args, err := qb.Insert(studentsTableName).
		Columns("student_id", "name", "department", "course").
		Values(student.StudentID, student.Name, student.Department, student.Course).
		Suffix(`on conflict (student_id) do update
			set name = excluded.name, department = excluded.department, course = excluded.course`).
		ToSql()
	if err != nil {
		return persistenceErr(err)
	}
	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		return persistenceErr(err)
	}
	return nil
}

func upsertLibrarian(ctx context.Context, ext sqlx.ExtContext, librarian model.Librarian) error {
	query, args, err := qb.Insert(librariansTableName).
		Columns("librarian_id", "name").
		Values(librarian.LibrarianID, librarian.Name).
		Suffix(`on conflict (librarian_id) do update set name = excluded.name`).
		ToSql()
	if err != nil {
		return persistenceErr(err)
	}
	if _, err := ext.ExecContext(ctx, query, args...); err != nil {
		return persistenceErr(err)
	}
	return nil
}

func (r *repository) openLoan(ctx context.Context, pred sq.Eq) (model.LoanRecord, error) {
	query, args, err := qb.Select("id", "loan_uid", "student_id", "book_id", "librarian_id", "issue_date", "return_date", "fine_amount").
		From(loansTableName).
		Where(pred).
		Where(sq.Eq{"return_date": nil}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.LoanRecord{}, persistenceErr(err)
	}
	var loan model.LoanRecord
	if err := r.db.GetContext(ctx, &loan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LoanRecord{}, errs.ErrNoOpenLoan
		}
		return model.LoanRecord{}, persistenceErr(err)
	}
	return loan, nil
}

func (r *repository) OpenLoanByStudent(ctx context.Context, studentID int) (model.LoanRecord, error) {
	return r.openLoan(ctx, sq.Eq{"student_id": studentID})
}

func (r *repository) OpenLoan(ctx context.Context, studentID, bookID int) (model.LoanRecord, error) {
	return r.openLoan(ctx, sq.Eq{"student_id": studentID, "book_id": bookID})
}

func (r *repository) OpenLoansByStudent(ctx context.Context, studentID int) ([]model.StudentOpenLoan, error) {
	q := `
	select l.loan_uid, l.book_id, b.title as book_title, l.issue_date
	from loans l
	join books b on b.book_id = l.book_id
	where l.student_id = $1 and l.return_date is null
	order by l.issue_date, l.id`
	var loans []model.StudentOpenLoan
	if err := r.db.SelectContext(ctx, &loans, q, studentID); err != nil {
		return nil, persistenceErr(err)
	}
	return loans, nil
}

// IssueLoan records the transaction actors, opens the loan record and
// takes one copy off the shelf, all in a single transaction. The copy
// decrement is a compare-and-swap and the partial unique index on open
// loans holds the one-loan-per-student invariant against races.
func (r *repository) IssueLoan(ctx context.Context, student model.Student, librarian model.Librarian, loan model.LoanRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistenceErr(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertStudent(ctx, tx, student); err != nil {
		return err
	}
	if err := upsertLibrarian(ctx, tx, librarian); err != nil {
		return err
	}

	query, args, err := qb.Insert(loansTableName).
		Columns("loan_uid", "student_id", "book_id", "librarian_id", "issue_date").
		Values(loan.LoanUid, loan.StudentID, loan.BookID, loan.LibrarianID, loan.IssueDate).
		ToSql()
	if err != nil {
		return persistenceErr(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapIssueErr(err)
	}

	q := `update books set copies = copies - 1 where book_id = $1 and copies > 0`
	res, err := tx.ExecContext(ctx, q, loan.BookID)
	if err != nil {
		return mapIssueErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNoCopiesAvailable
	}

	if err := tx.Commit(); err != nil {
		return mapIssueErr(err)
	}
	return nil
}

func mapIssueErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == openLoanPerStudentConstraint:
			return errs.ErrAlreadyHoldsLoan
		case pgErr.Code == pgerrcode.ForeignKeyViolation:
			return errs.ErrBookNotFound
		case pgErr.Code == pgerrcode.CheckViolation:
			return errs.ErrNoCopiesAvailable
		}
	}
	return persistenceErr(err)
}

// CloseLoan stamps the return on the open record and puts the copy back,
// in a single transaction. The record itself is never deleted.
func (r *repository) CloseLoan(ctx context.Context, studentID, bookID int, returnDate time.Time, fine int) (model.LoanRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.LoanRecord{}, persistenceErr(err)
	}
	defer tx.Rollback() //nolint:errcheck

	q := `
	update loans set return_date = $3, fine_amount = $4
	where student_id = $1 and book_id = $2 and return_date is null
	returning id, loan_uid, student_id, book_id, librarian_id, issue_date, return_date, fine_amount`

	var loan model.LoanRecord
	if err := tx.GetContext(ctx, &loan, q, studentID, bookID, returnDate, fine); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LoanRecord{}, errs.ErrNoOpenLoan
		}
		return model.LoanRecord{}, persistenceErr(err)
	}

	if _, err := tx.ExecContext(ctx, `update books set copies = copies + 1 where book_id = $1`, bookID); err != nil {
		return model.LoanRecord{}, persistenceErr(err)
	}

	if err := tx.Commit(); err != nil {
		return model.LoanRecord{}, persistenceErr(err)
	}
	return loan, nil
}

func (r *repository) ListOpenLoans(ctx context.Context) ([]model.OpenLoanSummary, error) {
	q := `
	select l.id, l.loan_uid, l.student_id, s.name as student_name,
	       l.book_id, b.title as book_title, l.issue_date, lb.name as librarian_name
	from loans l
	join students s on s.student_id = l.student_id
	join books b on b.book_id = l.book_id
	join librarians lb on lb.librarian_id = l.librarian_id
	where l.return_date is null
	order by l.issue_date, l.id`

	var loans []model.OpenLoanSummary
	if err := r.db.SelectContext(ctx, &loans, q); err != nil {
		return nil, persistenceErr(err)
	}
	return loans, nil
}
