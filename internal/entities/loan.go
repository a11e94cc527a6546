package entities

import "time"

type LoanStatus string

const (
	LoanStatusOpen     LoanStatus = "open"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan records one checkout of a book by a member. A loan is open while
// ReturnedAt is nil.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"not null;index" json:"book_id"`
	Book       *Book      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MemberID   uint       `gorm:"not null;index" json:"member_id"`
	Member     *Member    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	LoanedAt   time.Time  `gorm:"not null;index" json:"loaned_at"`
	DueAt      time.Time  `gorm:"not null;index" json:"due_at"`
	ReturnedAt *time.Time `gorm:"index" json:"returned_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Populated by joined list/get queries only.
	BookTitle   *string `gorm:"->;-:migration" json:"book_title,omitempty"`
	BookISBN    *string `gorm:"column:book_isbn;->;-:migration" json:"book_isbn,omitempty"`
	MemberName  *string `gorm:"->;-:migration" json:"member_name,omitempty"`
	MemberEmail *string `gorm:"->;-:migration" json:"member_email,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}

func (l *Loan) Status() LoanStatus {
	if l.IsOpen() {
		return LoanStatusOpen
	}
	return LoanStatusReturned
}
