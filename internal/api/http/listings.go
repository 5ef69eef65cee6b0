package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nidohq/nido/internal/api/service"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/httpx"
	"github.com/nidohq/nido/pkg/nidosdk"
	"github.com/nidohq/nido/pkg/slogx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListingsHandler struct {
	ListingService *service.ListingService
}

// writeListingError maps listing service errors to wire errors.
func writeListingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrListingNotFound):
		nidosdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrNotOwner):
		nidosdk.ErrForbidden.WriteError(w)
	case errors.Is(err, service.ErrInvalidListing):
		nidosdk.ErrValidation.WriteError(w)
	default:
		nidosdk.ErrServerError.WriteError(w)
	}
}

func (h *ListingsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		nidosdk.ErrUnauthorized.WriteError(w)
		return
	}

	var in nidosdk.ListingInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}

	l, err := h.ListingService.Create(ctx, identity, listingFromInput(in))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidListing) {
			log.Error("listing create failed", "err", err)
		}
		writeListingError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, struct {
		Status  string              `json:"status"`
		Listing nidosdk.ListingView `json:"listing"`
	}{"ok", listingView(l)})
}

func (h *ListingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	l, err := h.ListingService.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeListingError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct {
		Status  string              `json:"status"`
		Listing nidosdk.ListingView `json:"listing"`
	}{"ok", listingView(l)})
}

// parseFilter builds a store filter from query parameters. Unparseable
// values are treated as absent rather than rejected.
func parseFilter(r *http.Request) store.ListingFilter {
	q := r.URL.Query()
	f := store.ListingFilter{
		Type:     q.Get("type"),
		Search:   q.Get("search"),
		OwnerRef: q.Get("owner_ref"),
		Limit:    defaultPageSize,
	}

	boolParam := func(name string) *bool {
		if v, err := strconv.ParseBool(q.Get(name)); q.Get(name) != "" && err == nil {
			return &v
		}
		return nil
	}
	f.Offer = boolParam("offer")
	f.Furnished = boolParam("furnished")
	f.Parking = boolParam("parking")

	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil && v > 0 {
		f.MinPrice = v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil && v > 0 {
		f.MaxPrice = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		f.Limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		f.Offset = v
	}
	return f
}

func (h *ListingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	listings, total, err := h.ListingService.List(ctx, parseFilter(r))
	if err != nil {
		log.Error("listing search failed", "err", err)
		nidosdk.ErrServerError.WriteError(w)
		return
	}

	views := make([]nidosdk.ListingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, listingView(l))
	}

	httpx.WriteJSON(w, http.StatusOK, nidosdk.ListingPage{
		Status:   "ok",
		Listings: views,
		Total:    total,
	})
}

func (h *ListingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		nidosdk.ErrUnauthorized.WriteError(w)
		return
	}

	var in nidosdk.ListingInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		nidosdk.ErrValidation.WriteError(w)
		return
	}

	l, err := h.ListingService.Update(ctx, identity, r.PathValue("id"), listingFromInput(in))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidListing) &&
			!errors.Is(err, service.ErrNotOwner) &&
			!errors.Is(err, service.ErrListingNotFound) {
			log.Error("listing update failed", "err", err)
		}
		writeListingError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct {
		Status  string              `json:"status"`
		Listing nidosdk.ListingView `json:"listing"`
	}{"ok", listingView(l)})
}

func (h *ListingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		nidosdk.ErrUnauthorized.WriteError(w)
		return
	}

	if err := h.ListingService.Delete(ctx, identity, r.PathValue("id")); err != nil {
		if !errors.Is(err, service.ErrNotOwner) && !errors.Is(err, service.ErrListingNotFound) {
			log.Error("listing delete failed", "err", err)
		}
		writeListingError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, nidosdk.MessageResponse{
		Status:  "ok",
		Message: "listing deleted",
	})
}
