package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/mcoot/firgame/internal/api/request"
	"github.com/mcoot/firgame/internal/api/response"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/datastore"
)

// GameHandler handles game record endpoints
type GameHandler struct {
	store datastore.StoreInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(store datastore.StoreInterface) *GameHandler {
	return &GameHandler{
		store: store,
	}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.store.SnapshotGames(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GamesFromModel(games))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	game, err := h.store.FindGame(r.Context(), model.GameID(id))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(*game))
}

// Import handles POST /api/v1/games, recording a game played elsewhere
func (h *GameHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req request.ImportGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if err := request.Validate(req); err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	result, err := resultFromRequest(req.Result, req.Winner)
	if err != nil {
		WriteError(w, err)
		return
	}

	record := model.GameRecord{
		ID:    model.GameID(uuid.NewString()),
		Black: identityFromRequest(req.Black),
		White: identityFromRequest(req.White),
		TimeControl: model.TimeControl{
			Seconds:   req.Seconds,
			Increment: req.Increment,
		},
		Moves: lo.Map(req.Moves, func(n request.Notation, _ int) model.Notation {
			return model.Notation{Side: model.SideFromBlack(n.IsBlack), X: n.X, Y: n.Y}
		}),
		Result:    result,
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
	}
	if record.TimeControl == (model.TimeControl{}) {
		record.TimeControl = model.DefaultTimeControl()
	}

	if err := h.store.Enqueue(r.Context(), datastore.GameUpdate{Record: record}); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.GameFromModel(record))
}

func resultFromRequest(kind, winner string) (model.GameResult, error) {
	switch model.ResultKind(kind) {
	case model.ResultWin, model.ResultResign:
		if winner == "" {
			return model.GameResult{}, NewInvalidRequestError("winner is required for win and resign")
		}
		side := model.Side(winner)
		if kind == string(model.ResultWin) {
			return model.Win(side), nil
		}
		// The loser is the side that resigned
		return model.Resign(side.Other()), nil
	case model.ResultDraw:
		return model.Draw(), nil
	default:
		return model.Abort(), nil
	}
}

func identityFromRequest(p request.Participant) model.Identity {
	rating := p.Rating
	if rating == 0 {
		rating = model.DefaultRating
	}
	return model.Identity{
		UserID:      model.UserID(p.UserID),
		DisplayName: p.DisplayName,
		Rating:      rating,
		Guest:       p.UserID == "",
	}
}
