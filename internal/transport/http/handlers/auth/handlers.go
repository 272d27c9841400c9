package authhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (auth.LoginResult, error)
	Logout(ctx context.Context, user auth.UserContext) error
	ChangePassword(ctx context.Context, user auth.UserContext, current, next string) error
	SessionValid(ctx context.Context, userID, sessionID string) (bool, error)
	CreateUser(ctx context.Context, payload auth.NewUser) (auth.User, error)
	GetUser(ctx context.Context, id string) (auth.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]auth.User, error)
}

type Handler struct {
	Service Service
	Audit   audit.Sink
}

func NewHandler(service Service, sink audit.Sink) *Handler {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Handler{Service: service, Audit: sink}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// RegisterPublicRoutes mounts the routes reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/refresh", h.handleRefresh)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/change-password", h.handleChangePassword)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermUsersManage))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Get("/{userID}", h.handleGetUser)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Log(r.Context(), audit.Entry{
		UserID:     result.User.ID,
		ActionType: audit.ActionLogin,
		EntityType: "user",
		EntityID:   result.User.ID,
		Message:    "login",
	})
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	result, err := h.Service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Logout(r.Context(), user); err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Log(r.Context(), audit.Entry{
		UserID:     user.UserID,
		ActionType: audit.ActionLogout,
		EntityType: "user",
		EntityID:   user.UserID,
		Message:    "logout",
	})
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload changePasswordRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.ChangePassword(r.Context(), user, payload.CurrentPassword, payload.NewPassword); err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Log(r.Context(), audit.Entry{
		UserID:     user.UserID,
		ActionType: audit.ActionUpdate,
		EntityType: "user",
		EntityID:   user.UserID,
		Message:    "password changed",
	})
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	record, err := h.Service.GetUser(r.Context(), user.UserID)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	users, err := h.Service.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload auth.NewUser
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	actor, _ := middleware.GetUser(r.Context())
	created, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.Audit.Log(r.Context(), audit.Entry{
		UserID:     actor.UserID,
		ActionType: audit.ActionCreate,
		EntityType: "user",
		EntityID:   created.ID,
		Message:    "user created",
		After:      created,
	})
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}
