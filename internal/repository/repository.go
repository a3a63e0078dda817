package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"saggio/server/internal/model"
)

// ErrDuplicateEmail surfaces the unique constraint on usuarios.email.
var ErrDuplicateEmail = errors.New("email already registered")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetActiveUserByEmail only matches active accounts; a deactivated user is
// indistinguishable from an unknown one at the login boundary.
func (s *Store) GetActiveUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, nombre, email, password_hash, rol, programa, semestre, activo, created_at
		FROM usuarios
		WHERE email = $1 AND activo = true
	`, email)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Program,
		&user.Semester,
		&user.Active,
		&user.CreatedAt,
	)
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usuarios (id, nombre, email, password_hash, rol, activo, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, nombre, email, rol, programa, semestre, activo, created_at
		FROM usuarios
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Program, &user.Semester, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) InsertChatLog(ctx context.Context, entry model.ChatLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_ia (usuario_id, rol_usuario, mensaje_usuario, respuesta_ia)
		VALUES ($1, $2, $3, $4)
	`, entry.UserID, entry.UserRole, entry.UserMessage, entry.AIResponse)
	return err
}

func (s *Store) ListActiveModules(ctx context.Context) ([]model.Module, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, titulo, resumen, orden, activo
		FROM modulos
		WHERE activo = true
		ORDER BY orden
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []model.Module
	for rows.Next() {
		var module model.Module
		if err := rows.Scan(&module.ID, &module.Title, &module.Summary, &module.Order, &module.Active); err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range modules {
		contents, err := s.listContents(ctx, modules[i].ID)
		if err != nil {
			return nil, err
		}
		modules[i].Contents = contents
	}
	return modules, nil
}

func (s *Store) listContents(ctx context.Context, moduleID string) ([]model.Content, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, modulo_id, titulo, tipo, url
		FROM contenidos
		WHERE modulo_id = $1
	`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contents := []model.Content{}
	for rows.Next() {
		var content model.Content
		if err := rows.Scan(&content.ID, &content.ModuleID, &content.Title, &content.Kind, &content.URL); err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

func (s *Store) ListAdvisoriesByStudent(ctx context.Context, studentID string) ([]model.Advisory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, estudiante_id, asesor_id, area, tema, descripcion, modalidad, estado, created_at
		FROM asesorias
		WHERE estudiante_id = $1
		ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	advisories := []model.Advisory{}
	for rows.Next() {
		var advisory model.Advisory
		if err := rows.Scan(
			&advisory.ID,
			&advisory.StudentID,
			&advisory.AdvisorID,
			&advisory.Area,
			&advisory.Topic,
			&advisory.Description,
			&advisory.Mode,
			&advisory.Status,
			&advisory.CreatedAt,
		); err != nil {
			return nil, err
		}
		advisories = append(advisories, advisory)
	}
	return advisories, rows.Err()
}

// AdvisorExists reports whether a referenced advisor row is present. A
// missing advisor does not block the request; it is recorded without a link.
func (s *Store) AdvisorExists(ctx context.Context, advisorID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM asesores WHERE id = $1)`, advisorID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateAdvisory(ctx context.Context, advisory model.Advisory) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO asesorias (id, estudiante_id, asesor_id, area, tema, descripcion, modalidad, estado, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, advisory.ID, advisory.StudentID, advisory.AdvisorID, advisory.Area, advisory.Topic, advisory.Description, advisory.Mode, advisory.Status, advisory.CreatedAt)
	return err
}

func (s *Store) CreateNotification(ctx context.Context, notification model.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notificaciones (id, usuario_id, titulo, mensaje, tipo)
		VALUES ($1, $2, $3, $4, $5)
	`, notification.ID, notification.UserID, notification.Title, notification.Message, notification.Kind)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
