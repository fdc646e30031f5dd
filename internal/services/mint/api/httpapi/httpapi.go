// Package httpapi exposes the issuance service over JSON HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"google.golang.org/grpc/codes"

	apperrors "github.com/gen-dot-art/legacy-contracts/internal/platform/errors"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/app"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/coordinator"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/funds"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/registry"
	"github.com/gen-dot-art/legacy-contracts/internal/services/mint/domain/token"
)

// Handler serves the issuance HTTP surface.
type Handler struct {
	svc *app.Service
}

// New wires the issuance routes into a mux and returns it.
func New(svc *app.Service) http.Handler {
	h := &Handler{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.handleHealth)

	mux.HandleFunc("POST /v1/groups", h.handleCreateGroup)
	mux.HandleFunc("GET /v1/groups/{groupID}", h.handleGetGroup)
	mux.HandleFunc("POST /v1/groups/{groupID}/price", h.handleUpdatePrice)

	mux.HandleFunc("POST /v1/collections", h.handleCreateCollection)
	mux.HandleFunc("GET /v1/collections/{collectionID}", h.handleGetCollection)
	mux.HandleFunc("POST /v1/collections/{collectionID}/script", h.handleUpdateScript)
	mux.HandleFunc("POST /v1/collections/{collectionID}/artist", h.handleUpdateArtist)

	mux.HandleFunc("POST /v1/mint", h.handleMint)

	mux.HandleFunc("GET /v1/tokens/{tokenID}", h.handleGetToken)
	mux.HandleFunc("POST /v1/tokens/{tokenID}/transfer", h.handleTransfer)
	mux.HandleFunc("POST /v1/tokens/{tokenID}/burn", h.handleBurn)
	mux.HandleFunc("POST /v1/tokens/{tokenID}/approve", h.handleApprove)
	mux.HandleFunc("POST /v1/approvals", h.handleSetApprovalForAll)

	mux.HandleFunc("GET /v1/supply", h.handleSupply)
	mux.HandleFunc("GET /v1/supply/{index}", h.handleTokenByIndex)
	mux.HandleFunc("GET /v1/owners/{address}/tokens", h.handleTokensOf)

	return mux
}

// bearerToken extracts a Bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if rest, ok := strings.CutPrefix(value, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}

// httpStatus maps an error to an HTTP status via its domain code.
func httpStatus(err error) int {
	switch apperrors.CodeOf(err).GRPCCode() {
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]string{
		"code":    string(apperrors.CodeOf(err)),
		"message": err.Error(),
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"code":    string(apperrors.CodeUnknown),
		"message": message,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeBadRequest(w, "invalid request body")
		return false
	}
	return true
}

// parseAmount parses a decimal amount string. An empty string yields nil.
func parseAmount(value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	return uint256.FromDecimal(value)
}

func parseCurrency(value string) (funds.Currency, error) {
	switch strings.TrimSpace(value) {
	case "", "primary":
		return funds.CurrencyPrimary, nil
	case "alternate":
		return funds.CurrencyAlternate, nil
	default:
		return 0, errors.New("currency must be primary or alternate")
	}
}

func parseTier(value string) (registry.Tier, error) {
	switch strings.TrimSpace(value) {
	case "standard":
		return registry.TierStandard, nil
	case "premium":
		return registry.TierPremium, nil
	case "open":
		return registry.TierOpen, nil
	default:
		return registry.TierUnspecified, errors.New("tier must be standard, premium, or open")
	}
}

func tierName(tier registry.Tier) string {
	switch tier {
	case registry.TierStandard:
		return "standard"
	case registry.TierPremium:
		return "premium"
	case registry.TierOpen:
		return "open"
	default:
		return "unspecified"
	}
}

func pathUint(r *http.Request, name string) (uint64, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(r.PathValue(name)), 10, 64)
	return value, err == nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createGroupRequest struct {
	GroupID        uint64 `json:"group_id"`
	Tier           string `json:"tier"`
	PricePrimary   string `json:"price_primary"`
	PriceAlternate string `json:"price_alternate"`
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	priceA, err := parseAmount(req.PricePrimary)
	if err != nil {
		writeBadRequest(w, "invalid price_primary")
		return
	}
	priceB, err := parseAmount(req.PriceAlternate)
	if err != nil {
		writeBadRequest(w, "invalid price_alternate")
		return
	}
	if priceA == nil {
		priceA = uint256.NewInt(0)
	}
	if priceB == nil {
		priceB = uint256.NewInt(0)
	}
	if err := h.svc.CreateGroup(r.Context(), bearerToken(r), req.GroupID, tier, priceA, priceB); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"group_id": req.GroupID})
}

func (h *Handler) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "groupID")
	if !ok {
		writeBadRequest(w, "invalid group id")
		return
	}
	group, err := h.svc.Group(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group_id":        group.ID,
		"tier":            tierName(group.Tier),
		"price_primary":   group.PriceA.Dec(),
		"price_alternate": group.PriceB.Dec(),
		"collections":     group.Members,
	})
}

type updatePriceRequest struct {
	PricePrimary   string `json:"price_primary"`
	PriceAlternate string `json:"price_alternate"`
}

func (h *Handler) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "groupID")
	if !ok {
		writeBadRequest(w, "invalid group id")
		return
	}
	var req updatePriceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	priceA, err := parseAmount(req.PricePrimary)
	if err != nil {
		writeBadRequest(w, "invalid price_primary")
		return
	}
	priceB, err := parseAmount(req.PriceAlternate)
	if err != nil {
		writeBadRequest(w, "invalid price_alternate")
		return
	}
	if err := h.svc.UpdatePrice(r.Context(), bearerToken(r), id, priceA, priceB); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"group_id": id})
}

type createCollectionRequest struct {
	Artist         string `json:"artist"`
	RewardPercent  uint8  `json:"reward_percent"`
	MaxInvocations uint64 `json:"max_invocations"`
	GroupID        uint64 `json:"group_id"`
	Script         string `json:"script"`
}

func (h *Handler) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var script []byte
	if req.Script != "" {
		script = []byte(req.Script)
	}
	id, err := h.svc.CreateCollection(r.Context(), bearerToken(r), token.Address(req.Artist), req.RewardPercent, req.MaxInvocations, req.GroupID, script)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"collection_id": id})
}

func (h *Handler) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "collectionID")
	if !ok {
		writeBadRequest(w, "invalid collection id")
		return
	}
	coll, err := h.svc.Collection(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection_id":    coll.ID,
		"group_id":         coll.GroupID,
		"artist":           coll.Artist,
		"reward_percent":   coll.ArtistRewardPercent,
		"invocation_count": coll.InvocationCount,
		"max_invocations":  coll.MaxInvocations,
		"script":           string(coll.Script),
	})
}

type updateScriptRequest struct {
	Script string `json:"script"`
}

func (h *Handler) handleUpdateScript(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "collectionID")
	if !ok {
		writeBadRequest(w, "invalid collection id")
		return
	}
	var req updateScriptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.UpdateScript(r.Context(), bearerToken(r), id, []byte(req.Script)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"collection_id": id})
}

type updateArtistRequest struct {
	Caller string `json:"caller"`
	Artist string `json:"artist"`
}

func (h *Handler) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "collectionID")
	if !ok {
		writeBadRequest(w, "invalid collection id")
		return
	}
	var req updateArtistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.UpdateArtistAddress(r.Context(), token.Address(req.Caller), id, token.Address(req.Artist)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"collection_id": id})
}

type mintRequest struct {
	Requester    string `json:"requester"`
	To           string `json:"to"`
	GroupID      uint64 `json:"group_id"`
	MembershipID uint64 `json:"membership_id"`
	Count        uint64 `json:"count"`
	Currency     string `json:"currency"`
	Offered      string `json:"offered"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	offered, err := parseAmount(req.Offered)
	if err != nil {
		writeBadRequest(w, "invalid offered amount")
		return
	}
	to := token.Address(req.To)
	if to.IsZero() {
		to = token.Address(req.Requester)
	}
	res, err := h.svc.Mint(r.Context(), coordinator.MintRequest{
		Requester:    token.Address(req.Requester),
		To:           to,
		GroupID:      req.GroupID,
		MembershipID: req.MembershipID,
		Count:        req.Count,
		Currency:     currency,
		Offered:      offered,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token_ids": res.TokenIDs})
}

func (h *Handler) handleGetToken(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "tokenID")
	if !ok {
		writeBadRequest(w, "invalid token id")
		return
	}
	tok, err := h.svc.Token(token.ID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token_id":      tok.ID,
		"owner":         tok.Owner,
		"collection_id": tok.CollectionID,
		"provenance":    tok.Provenance,
		"approved":      h.svc.Approved(tok.ID),
	})
}

type transferRequest struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "tokenID")
	if !ok {
		writeBadRequest(w, "invalid token id")
		return
	}
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.Transfer(r.Context(), token.Address(req.Caller), token.Address(req.To), token.ID(id)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"token_id": id})
}

type burnRequest struct {
	Caller string `json:"caller"`
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "tokenID")
	if !ok {
		writeBadRequest(w, "invalid token id")
		return
	}
	var req burnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.Burn(r.Context(), token.Address(req.Caller), token.ID(id)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"token_id": id})
}

type approveRequest struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "tokenID")
	if !ok {
		writeBadRequest(w, "invalid token id")
		return
	}
	var req approveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.Approve(r.Context(), token.Address(req.Caller), token.Address(req.Spender), token.ID(id)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"token_id": id})
}

type approvalForAllRequest struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

func (h *Handler) handleSetApprovalForAll(w http.ResponseWriter, r *http.Request) {
	var req approvalForAllRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.svc.SetApprovalForAll(r.Context(), token.Address(req.Owner), token.Address(req.Operator), req.Approved)
	writeJSON(w, http.StatusOK, map[string]bool{"approved": req.Approved})
}

func (h *Handler) handleSupply(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint64{"total_supply": h.svc.TotalSupply()})
}

func (h *Handler) handleTokenByIndex(w http.ResponseWriter, r *http.Request) {
	i, ok := pathUint(r, "index")
	if !ok {
		writeBadRequest(w, "invalid index")
		return
	}
	id, err := h.svc.TokenByIndex(i)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token_id": id})
}

func (h *Handler) handleTokensOf(w http.ResponseWriter, r *http.Request) {
	owner := token.Address(strings.TrimSpace(r.PathValue("address")))
	ids := h.svc.TokensOf(owner)
	if ids == nil {
		ids = []token.ID{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":     owner,
		"balance":   h.svc.BalanceOf(owner),
		"token_ids": ids,
	})
}
