package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/auth"
	"github.com/YelzhanWeb/cafe/internal/app/loyalty"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/go-chi/chi/v5"
)

// AccountHandler serves sign-up, sign-in, user administration and the
// loyalty pages.
type AccountHandler struct {
	sessions
	auth    *auth.Service
	loyalty *loyalty.Service
	logger  logger.Logger
}

func NewAccountHandler(manager *session.Manager, authService *auth.Service, loyaltyService *loyalty.Service, logger logger.Logger) *AccountHandler {
	return &AccountHandler{
		sessions: sessions{manager: manager},
		auth:     authService,
		loyalty:  loyaltyService,
		logger:   logger,
	}
}

type UserResponse struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Points    int         `json:"points"`
	Tier      domain.Tier `json:"tier"`
	Orders    []string    `json:"orders"`
	CreatedAt time.Time   `json:"createdAt"`
}

func newUserResponse(u *domain.User) UserResponse {
	orders := u.Orders
	if orders == nil {
		orders = []string{}
	}
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Points:    u.Points,
		Tier:      u.Tier(),
		Orders:    orders,
		CreatedAt: u.CreatedAt,
	}
}

type AuthResponse struct {
	UserResponse
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.auth.Register(r.Context(), auth.RegisterCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, CurrentUser(r.Context()))
	if err != nil {
		fail(w, r, h.logger, "register_failed", err)
		return
	}
	h.signIn(w, r, sess, http.StatusCreated)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, "Please provide email and password", http.StatusBadRequest, nil)
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, h.logger, "login_failed", err)
		return
	}
	h.signIn(w, r, sess, http.StatusOK)
}

// signIn remembers the user on the storefront session. The bearer token
// stays authoritative; the snapshot only feeds the UI.
func (h *AccountHandler) signIn(w http.ResponseWriter, r *http.Request, s *auth.Session, status int) {
	snapshot := &session.UserSnapshot{ID: s.User.ID, Name: s.User.Name, Email: s.User.Email}
	err := h.with(r, func(sess *session.Session) error {
		return sess.Do(r.Context(), func(st *session.State) error {
			return st.SaveUser(r.Context(), snapshot)
		})
	})
	if err != nil {
		h.logger.Error("session_user_save_failed", "Failed to remember user on session", RequestID(r.Context()), nil, err)
	}

	respondJSON(w, status, AuthResponse{
		UserResponse: newUserResponse(s.User),
		Token:        s.Token,
		ExpiresAt:    s.ExpiresAt,
	})
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.with(r, func(sess *session.Session) error {
		return sess.Do(r.Context(), func(st *session.State) error {
			return st.SaveUser(r.Context(), nil)
		})
	})
	if err != nil {
		fail(w, r, h.logger, "logout_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newUserResponse(CurrentUser(r.Context())))
}

// Пользователи

func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		fail(w, r, h.logger, "users_list_failed", err)
		return
	}
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AccountHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "user_get_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
}

type UpdateUserRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Role     *domain.Role `json:"role"`
}

func (h *AccountHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.UpdateUser(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id"), auth.UpdateUserCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		fail(w, r, h.logger, "user_update_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *AccountHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		fail(w, r, h.logger, "user_delete_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

// Программа лояльности

type LoyaltyResponse struct {
	*loyalty.Summary
	BirthdayReminder bool `json:"birthdayReminder"`
}

func (h *AccountHandler) LoyaltySummary(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	summary, err := h.loyalty.Summary(r.Context(), user.ID)
	if err != nil {
		fail(w, r, h.logger, "loyalty_summary_failed", err)
		return
	}

	var reminder bool
	err = h.with(r, func(sess *session.Session) error {
		var err error
		reminder, err = h.loyalty.BirthdayReminder(r.Context(), sess, user.ID)
		return err
	})
	if err != nil {
		fail(w, r, h.logger, "loyalty_summary_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, LoyaltyResponse{Summary: summary, BirthdayReminder: reminder})
}

func (h *AccountHandler) LoyaltyLevels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.loyalty.Levels())
}

func (h *AccountHandler) LoyaltyRewards(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.loyalty.Rewards())
}

type BirthdayReminderRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *AccountHandler) SetBirthdayReminder(w http.ResponseWriter, r *http.Request) {
	var req BirthdayReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := CurrentUser(r.Context())
	err := h.with(r, func(sess *session.Session) error {
		return h.loyalty.SetBirthdayReminder(r.Context(), sess, user.ID, req.Enabled)
	})
	if err != nil {
		fail(w, r, h.logger, "birthday_reminder_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, BirthdayReminderRequest{Enabled: req.Enabled})
}

type AwardPointsRequest struct {
	Points int `json:"points"`
}

// AwardPoints is the owner's manual adjustment, e.g. for a missed order.
func (h *AccountHandler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	var req AwardPointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Points <= 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
			{Field: "points", Message: "points must be positive"},
		})
		return
	}

	userID := chi.URLParam(r, "userID")
	if _, err := h.loyalty.AddPoints(r.Context(), userID, req.Points); err != nil {
		fail(w, r, h.logger, "loyalty_award_failed", err)
		return
	}

	summary, err := h.loyalty.Summary(r.Context(), userID)
	if err != nil {
		fail(w, r, h.logger, "loyalty_summary_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
