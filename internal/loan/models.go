package loan

import "time"

// Loan is one lending transaction. A loan with Returned == false is active;
// at most one active loan may exist per (member, book) pair. Returned is
// terminal: the workflow never flips it back.
type Loan struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"member_id"`
	BookID     int64     `json:"book_id"`
	DateLoaned time.Time `json:"date_loaned"`
	DateDue    time.Time `json:"date_due"`
	Returned   bool      `json:"returned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Active reports whether the loan is still outstanding.
func (l *Loan) Active() bool {
	return !l.Returned
}

// OverdueAt reports whether the loan is past due and still outstanding.
func (l *Loan) OverdueAt(now time.Time) bool {
	return l.Active() && now.After(l.DateDue)
}
