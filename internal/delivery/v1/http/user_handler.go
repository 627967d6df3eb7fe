package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userUC usecase.UserUC
	logger logger.Logger
}

func NewUserHandler(userUC usecase.UserUC, logger logger.Logger) *UserHandler {
	return &UserHandler{userUC: userUC, logger: logger}
}

// register
//
//	@Summary	Регистрация покупателя
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		user	body		registerRequest	true	"Имя, email, пароль"
//	@Success	201		{object}	UserResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/auth/register [post]
func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	h.createUser(w, r, "http.register", false)
}

func (h *UserHandler) adminCreateUser(w http.ResponseWriter, r *http.Request) {
	h.createUser(w, r, "http.adminCreateUser", true)
}

// createUser: роль из запроса учитывается только для администратора.
func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request, op string, allowRole bool) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	role := domain.RoleCustomer
	if allowRole && req.Role != "" {
		role = domain.Role(req.Role)
	}

	user, err := h.userUC.Register(r.Context(), &usecase.RegisterReq{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toUserResponse(user))
}

// login
//
//	@Summary	Вход
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		credentials	body		loginRequest	true	"Email и пароль"
//	@Success	200			{object}	LoginResponse
//	@Failure	401			{object}	ErrorResponse
//	@Router		/auth/login [post]
func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	const op = "http.login"

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	res, err := h.userUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, LoginResponse{Token: res.Token, User: toUserResponse(res.User)})
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	const op = "http.me"

	userID, err := currentUser(r)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	user, err := h.userUC.GetUser(r.Context(), userID)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userUC.ListUsers(r.Context())
	if err != nil {
		writeFailure(h.logger, w, "http.listUsers", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrUserResponse(users))
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userUC.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(h.logger, w, "http.getUser", err)
		return
	}

	WriteSuccess(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	const op = "http.updateUser"

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	upd := &usecase.UpdateUserReq{
		ID:    chi.URLParam(r, "id"),
		Name:  req.Name,
		Email: req.Email,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		upd.Role = &role
	}

	user, err := h.userUC.UpdateUser(r.Context(), upd)
	if err != nil {
		writeFailure(h.logger, w, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userUC.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(h.logger, w, "http.deleteUser", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
