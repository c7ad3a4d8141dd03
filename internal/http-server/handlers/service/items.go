package service

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"WaGate/internal/lib/api/response"
)

type ItemResponse struct {
	ItemID int     `json:"item_id"`
	Q      *string `json:"q"`
}

func GetItem(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := strconv.Atoi(chi.URLParam(r, "item_id"))
		if err != nil {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Fail("item_id must be an integer"))
			return
		}

		resp := ItemResponse{ItemID: itemID}
		query := r.URL.Query()
		if query.Has("q") {
			q := query.Get("q")
			resp.Q = &q
		}

		render.JSON(w, r, resp)
	}
}
