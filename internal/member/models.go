package member

import "time"

// Role distinguishes membership tiers. Cosmetic for the lending workflow.
type Role string

const (
	RoleRegular Role = "regular"
	RolePremium Role = "premium"
)

// AccessLevel is a cosmetic permission hint carried for the UI.
type AccessLevel string

const (
	AccessReadOnly  AccessLevel = "read_only"
	AccessReadWrite AccessLevel = "read_write"
	AccessManage    AccessLevel = "manage"
)

// Member is a library patron. Deleted is a soft-delete flag; rows are kept so
// historical loans stay resolvable.
type Member struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Active      bool        `json:"active"`
	Deleted     bool        `json:"deleted"`
	Role        Role        `json:"role"`
	AccessLevel AccessLevel `json:"access_level"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// CanBorrow is the single eligibility rule the loan workflow consumes.
func (m *Member) CanBorrow() bool {
	return m.Active && !m.Deleted
}
