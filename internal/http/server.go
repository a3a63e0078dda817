package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"saggio/server/internal/auth"
	"saggio/server/internal/chat"
	"saggio/server/internal/config"
	"saggio/server/internal/crypto"
	"saggio/server/internal/model"
	"saggio/server/internal/repository"
)

// Store is the slice of the repository the HTTP layer needs.
type Store interface {
	GetActiveUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
	ListUsers(ctx context.Context, limit int) ([]model.User, error)
	ListActiveModules(ctx context.Context) ([]model.Module, error)
	ListAdvisoriesByStudent(ctx context.Context, studentID string) ([]model.Advisory, error)
	AdvisorExists(ctx context.Context, advisorID string) (bool, error)
	CreateAdvisory(ctx context.Context, advisory model.Advisory) error
	CreateNotification(ctx context.Context, notification model.Notification) error
}

type Server struct {
	cfg   config.Config
	store Store
	chat  *chat.Orchestrator
	redis *redis.Client
}

func NewServer(cfg config.Config, store Store, orchestrator *chat.Orchestrator, redisClient *redis.Client) *Server {
	return &Server{
		cfg:   cfg,
		store: store,
		chat:  orchestrator,
		redis: redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.With(s.authMiddleware).Get("/auth/me", s.handleMe)

		r.With(s.authMiddleware).Post("/ia/chat", s.handleChat)

		r.Get("/modulos", s.handleListModules)

		r.With(s.authMiddleware).Get("/asesorias", s.handleListAdvisories)
		r.With(s.authMiddleware).Post("/asesorias", s.handleCreateAdvisory)

		r.With(s.authMiddleware, s.requireRoles(model.RoleAdmin)).Get("/admin/usuarios", s.handleListUsers)
	})

	return r
}

type userPayload struct {
	ID       string     `json:"id"`
	Name     string     `json:"nombre"`
	Email    string     `json:"email"`
	Role     model.Role `json:"rol"`
	Program  *string    `json:"programa,omitempty"`
	Semester *int       `json:"semestre,omitempty"`
}

type registerRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"rol"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Todos los campos son requeridos")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error al crear el usuario")
		return
	}

	user := model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RegistrableRole(req.Role),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "Este correo ya está registrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error al crear el usuario")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Usuario creado exitosamente",
		"userId":  user.ID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email y contraseña son requeridos")
		return
	}

	user, err := s.store.GetActiveUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "Credenciales incorrectas")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Credenciales incorrectas")
		return
	}

	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.SessionTTL, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	auth.SetSessionCookie(w, token, s.cfg.SessionTTL, s.cfg.Production)
	writeJSON(w, http.StatusOK, map[string]userPayload{
		"user": {
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
			Program:  user.Program,
			Semester: user.Semester,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSessionCookie(w, s.cfg.Production)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sesión cerrada"})
}

// handleMe answers from verified claims alone; no store round-trip.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return
	}
	writeJSON(w, http.StatusOK, map[string]userPayload{
		"user": {
			ID:    claims.UserID,
			Name:  claims.Name,
			Email: claims.Email,
			Role:  claims.Role,
		},
	})
}

type chatRequest struct {
	Messages []model.ChatMessage `json:"messages"`
	UserRole string              `json:"userRole"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil || req.Messages == nil {
		writeError(w, http.StatusBadRequest, "Mensajes inválidos")
		return
	}

	response := s.chat.Respond(r.Context(), claims.Principal(), req.Messages, req.UserRole)
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

type contentPayload struct {
	ID    string `json:"id"`
	Title string `json:"titulo"`
	Kind  string `json:"tipo"`
	URL   string `json:"url"`
}

type modulePayload struct {
	ID       string           `json:"id"`
	Title    string           `json:"titulo"`
	Summary  string           `json:"resumen"`
	Order    int              `json:"orden"`
	Contents []contentPayload `json:"contenidos"`
}

const moduleCacheKey = "saggio:modulos"

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.cachedModules(r.Context()); ok {
		writeRawJSON(w, http.StatusOK, cached)
		return
	}

	modules, err := s.store.ListActiveModules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error al obtener módulos")
		return
	}

	payload := make([]modulePayload, 0, len(modules))
	for _, module := range modules {
		contents := make([]contentPayload, 0, len(module.Contents))
		for _, content := range module.Contents {
			contents = append(contents, contentPayload{
				ID:    content.ID,
				Title: content.Title,
				Kind:  content.Kind,
				URL:   content.URL,
			})
		}
		payload = append(payload, modulePayload{
			ID:       module.ID,
			Title:    module.Title,
			Summary:  module.Summary,
			Order:    module.Order,
			Contents: contents,
		})
	}

	body := map[string][]modulePayload{"modulos": payload}
	s.cacheModules(r.Context(), body)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) cachedModules(ctx context.Context) ([]byte, bool) {
	if s.redis == nil {
		return nil, false
	}
	value, err := s.redis.Get(ctx, moduleCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("module cache read error: %v", err)
		return nil, false
	}
	return value, true
}

func (s *Server) cacheModules(ctx context.Context, body interface{}) {
	if s.redis == nil {
		return
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, moduleCacheKey, encoded, s.cfg.ModuleCacheTTL).Err(); err != nil {
		log.Printf("module cache write error: %v", err)
	}
}

type advisoryPayload struct {
	ID          string  `json:"id"`
	StudentID   string  `json:"estudiante_id"`
	AdvisorID   *string `json:"asesor_id"`
	Area        string  `json:"area"`
	Topic       string  `json:"tema"`
	Description string  `json:"descripcion"`
	Mode        string  `json:"modalidad"`
	Status      string  `json:"estado"`
	CreatedAt   string  `json:"created_at"`
}

func mapAdvisory(advisory model.Advisory) advisoryPayload {
	return advisoryPayload{
		ID:          advisory.ID,
		StudentID:   advisory.StudentID,
		AdvisorID:   advisory.AdvisorID,
		Area:        advisory.Area,
		Topic:       advisory.Topic,
		Description: advisory.Description,
		Mode:        advisory.Mode,
		Status:      advisory.Status,
		CreatedAt:   advisory.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListAdvisories(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return
	}

	advisories, err := s.store.ListAdvisoriesByStudent(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error al obtener asesorías")
		return
	}

	payload := make([]advisoryPayload, 0, len(advisories))
	for _, advisory := range advisories {
		payload = append(payload, mapAdvisory(advisory))
	}
	writeJSON(w, http.StatusOK, map[string][]advisoryPayload{"asesorias": payload})
}

type createAdvisoryRequest struct {
	AdvisorID   *string `json:"asesor_id"`
	Area        string  `json:"area"`
	Topic       string  `json:"tema"`
	Description string  `json:"descripcion"`
	Mode        string  `json:"modalidad"`
}

func (s *Server) handleCreateAdvisory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "No autenticado")
		return
	}

	var req createAdvisoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	req.Area = strings.TrimSpace(req.Area)
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Area == "" || req.Topic == "" {
		writeError(w, http.StatusBadRequest, "Área y tema son requeridos")
		return
	}
	if req.Mode == "" {
		req.Mode = "virtual"
	}

	// An unknown advisor id does not block the request; the row is written
	// without a link and matched later.
	var advisorID *string
	if req.AdvisorID != nil && *req.AdvisorID != "" {
		exists, err := s.store.AdvisorExists(r.Context(), *req.AdvisorID)
		if err == nil && exists {
			advisorID = req.AdvisorID
		}
	}

	advisory := model.Advisory{
		ID:          uuid.NewString(),
		StudentID:   claims.UserID,
		AdvisorID:   advisorID,
		Area:        req.Area,
		Topic:       req.Topic,
		Description: req.Description,
		Mode:        req.Mode,
		Status:      "pendiente",
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.CreateAdvisory(r.Context(), advisory); err != nil {
		writeError(w, http.StatusInternalServerError, "Error al crear la asesoría")
		return
	}

	notification := model.Notification{
		ID:      uuid.NewString(),
		UserID:  claims.UserID,
		Title:   "Nueva solicitud de asesoría",
		Message: "Has recibido una solicitud de asesoría sobre: " + req.Topic,
		Kind:    "info",
	}
	if err := s.store.CreateNotification(r.Context(), notification); err != nil {
		log.Printf("notification insert error: %v", err)
	}

	writeJSON(w, http.StatusCreated, map[string]advisoryPayload{"asesoria": mapAdvisory(advisory)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	users, err := s.store.ListUsers(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, userPayload{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
			Program:  user.Program,
			Semester: user.Semester,
		})
	}
	writeJSON(w, http.StatusOK, map[string][]userPayload{"usuarios": payload})
}

// authMiddleware authenticates the request from the session cookie. Missing,
// expired and tampered tokens all answer the same way.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.SessionTokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		claims, err := auth.ParseSessionToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "No autenticado")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles gates a route on the principal's role. An authenticated
// principal with the wrong role gets 403, distinguishable from the 401 the
// auth middleware produces.
func (s *Server) requireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "No autenticado")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Acceso denegado")
		})
	}
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
