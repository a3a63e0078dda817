package model

import "time"

// Role is the platform role carried in session token claims. Values are the
// Spanish identifiers used across the product and the database.
type Role string

const (
	RoleStudent   Role = "estudiante"
	RoleProfessor Role = "profesor"
	RoleAdmin     Role = "administrador"
)

// NormalizeRole maps an arbitrary string to a known role. Unknown or empty
// values resolve to student.
func NormalizeRole(value string) Role {
	switch Role(value) {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return Role(value)
	default:
		return RoleStudent
	}
}

// RegistrableRole restricts self-service registration to student and
// professor. Administrator accounts are provisioned out of band.
func RegistrableRole(value string) Role {
	switch Role(value) {
	case RoleStudent, RoleProfessor:
		return Role(value)
	default:
		return RoleStudent
	}
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Program      *string
	Semester     *int
	Active       bool
	CreatedAt    time.Time
}

// Principal is the authenticated identity rebuilt from verified token claims
// on every request. It is never persisted.
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatLog is the audit record written after a successful remote completion.
type ChatLog struct {
	UserID      string
	UserRole    Role
	UserMessage string
	AIResponse  string
}

type Module struct {
	ID       string
	Title    string
	Summary  string
	Order    int
	Active   bool
	Contents []Content
}

type Content struct {
	ID       string
	ModuleID string
	Title    string
	Kind     string
	URL      string
}

type Advisory struct {
	ID          string
	StudentID   string
	AdvisorID   *string
	Area        string
	Topic       string
	Description string
	Mode        string
	Status      string
	CreatedAt   time.Time
}

type Notification struct {
	ID      string
	UserID  string
	Title   string
	Message string
	Kind    string
}
