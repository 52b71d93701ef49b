package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/firgame/internal/api/request"
	"github.com/mcoot/firgame/internal/api/response"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/users"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	userService *users.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *users.Service) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.userService.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UsersFromModel(list))
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	user, err := h.userService.Get(r.Context(), model.UserID(id))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserFromModel(*user))
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if err := request.Validate(req); err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	rating := req.Rating
	if rating == 0 {
		rating = model.DefaultRating
	}

	user, err := h.userService.Create(r.Context(), req.ID, req.Password, rating)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.UserFromModel(*user))
}

// GetAll handles GET /getall, the plain listing kept for older clients
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	h.List(w, r)
}
