package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/roastedworld/roasted"
	"github.com/roastedworld/roasted/internal/domain"
	"github.com/roastedworld/roasted/internal/present/rest/presenter"
	"github.com/roastedworld/roasted/internal/service"
	"github.com/roastedworld/roasted/internal/usecase"
)

const defaultFeedLimit = 10

// ComposerFactory builds a fresh composition session. Each mint request gets
// its own Composer; sessions never outlive the request.
type ComposerFactory func() *usecase.Composer

type Handler struct {
	identity    *usecase.IdentityUsecase
	feed        *usecase.FeedUsecase
	account     *usecase.AccountUsecase
	newComposer ComposerFactory
	quoter      usecase.PriceQuoter
	signal      *service.SignalService
	links       *service.LinkTokenService
}

func NewHandler(
	identity *usecase.IdentityUsecase,
	feed *usecase.FeedUsecase,
	account *usecase.AccountUsecase,
	newComposer ComposerFactory,
	quoter usecase.PriceQuoter,
	signal *service.SignalService,
	links *service.LinkTokenService,
) *Handler {
	return &Handler{
		identity:    identity,
		feed:        feed,
		account:     account,
		newComposer: newComposer,
		quoter:      quoter,
		signal:      signal,
		links:       links,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/user", h.handleUser)
	e.POST("/api/v1/save-identity", h.handleSaveIdentity)
	e.POST("/api/v1/generate-roast", h.handleGenerateRoast)
	e.GET("/api/v1/price-quote", h.handlePriceQuote)
	e.GET("/api/v1/feed", h.handleFeed)
	e.POST("/api/v1/roast", h.handleRoast)
	e.GET("/api/v1/account", h.handleAccount)
	e.POST("/api/v1/settings/price", h.handleSetPrice)
	e.POST("/api/v1/withdraw", h.handleWithdraw)
	e.POST("/api/v1/tip/:tokenId", h.handleTip)
	e.GET("/api/v1/link/begin", h.handleLinkBegin)
	e.POST("/api/v1/link/complete", h.handleLinkComplete)
	e.GET("/realtime", h.handleRealtime)
}

func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return presenter.BadRequest(c, err)
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	default:
		return presenter.InternalError(c, err)
	}
}

func (h *Handler) handleUser(c echo.Context) error {
	ctx := c.Request().Context()

	address := c.QueryParam("address")
	if address == "" {
		return presenter.BadRequestMessage(c, "address parameter is required")
	}

	lookup, err := h.identity.Lookup(ctx, address)
	if err != nil {
		return fail(c, err)
	}

	if !lookup.Exists {
		return presenter.OK(c, echo.Map{"exists": false, "canBeRoasted": false})
	}
	return presenter.OK(c, echo.Map{
		"exists":       true,
		"canBeRoasted": lookup.Roastable,
		"user":         lookup.Record,
	})
}

type saveIdentityRequest struct {
	WalletAddress string `json:"walletAddress"`
	ExternalID    string `json:"externalId"`
	Username      string `json:"username"`
	Handle        string `json:"handle"`
	AvatarURL     string `json:"avatarUrl"`
	Roastable     *bool  `json:"canBeRoasted"`
}

func (h *Handler) handleSaveIdentity(c echo.Context) error {
	ctx := c.Request().Context()

	var req saveIdentityRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	err := h.identity.Save(ctx, usecase.SaveIdentityInput{
		WalletAddress:    req.WalletAddress,
		ExternalID:       req.ExternalID,
		ExternalUsername: req.Username,
		ExternalHandle:   req.Handle,
		ExternalAvatar:   req.AvatarURL,
		Roastable:        req.Roastable,
	})
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type generateRoastRequest struct {
	AuthorWallet  string `json:"authorWallet"`
	SubjectWallet string `json:"subjectWallet"`
	Context       string `json:"context"`
}

func (h *Handler) handleGenerateRoast(c echo.Context) error {
	ctx := c.Request().Context()

	var req generateRoastRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	composer := h.newComposer()
	if err := composer.Begin(ctx, req.AuthorWallet, req.SubjectWallet); err != nil {
		return fail(c, err)
	}
	if err := composer.ChooseAI(); err != nil {
		return fail(c, err)
	}
	if err := composer.GenerateSuggestion(ctx, req.Context); err != nil {
		return fail(c, err)
	}

	return presenter.OK(c, echo.Map{"roast": composer.Draft().Text})
}

func (h *Handler) handlePriceQuote(c echo.Context) error {
	ctx := c.Request().Context()

	quote, err := h.quoter.Quote(ctx)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, quote)
}

func (h *Handler) handleFeed(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultFeedLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		limit = limitInt
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offsetInt, err := strconv.Atoi(offsetStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid offset parameter")
		}
		offset = offsetInt
	}

	page, err := h.feed.FetchPage(ctx, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, page)
}

type roastRequest struct {
	AuthorWallet  string `json:"authorWallet"`
	SubjectWallet string `json:"subjectWallet"`
	Text          string `json:"text"`
	RoastType     string `json:"roastType"`
	AIContext     string `json:"aiContext"`
}

func (h *Handler) handleRoast(c echo.Context) error {
	ctx := c.Request().Context()

	var req roastRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	composer := h.newComposer()
	if err := composer.Begin(ctx, req.AuthorWallet, req.SubjectWallet); err != nil {
		return fail(c, err)
	}

	switch req.RoastType {
	case roasted.OriginAI:
		if err := composer.ChooseAI(); err != nil {
			return fail(c, err)
		}
		if req.Text != "" {
			if err := composer.AdoptSuggestion(req.Text, req.AIContext); err != nil {
				return fail(c, err)
			}
		} else if err := composer.GenerateSuggestion(ctx, req.AIContext); err != nil {
			return fail(c, err)
		}
	default:
		if err := composer.ChooseCustom(); err != nil {
			return fail(c, err)
		}
		if err := composer.SetText(req.Text); err != nil {
			return fail(c, err)
		}
	}

	if err := composer.Mint(ctx); err != nil {
		return fail(c, err)
	}

	return presenter.OK(c, composer.Artifact())
}

func (h *Handler) handleAccount(c echo.Context) error {
	ctx := c.Request().Context()

	address := c.QueryParam("address")
	if address == "" {
		return presenter.BadRequestMessage(c, "address parameter is required")
	}

	summary, err := h.account.Refresh(ctx, address)
	if err != nil {
		return fail(c, err)
	}

	return presenter.OK(c, echo.Map{
		"summary": summary,
		"isOwner": h.account.IsOwner(c.QueryParam("viewer"), address),
	})
}

type setPriceRequest struct {
	WalletAddress string `json:"walletAddress"`
	Price         string `json:"price"`
}

func (h *Handler) handleSetPrice(c echo.Context) error {
	ctx := c.Request().Context()

	var req setPriceRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	receipt, err := h.account.UpdateRoastPrice(ctx, req.WalletAddress, req.Price)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, receipt)
}

func (h *Handler) handleWithdraw(c echo.Context) error {
	ctx := c.Request().Context()

	receipt, err := h.account.Withdraw(ctx)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, receipt)
}

func (h *Handler) handleTip(c echo.Context) error {
	ctx := c.Request().Context()

	receipt, err := h.account.Tip(ctx, c.Param("tokenId"))
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, receipt)
}

func (h *Handler) handleLinkBegin(c echo.Context) error {
	ctx := c.Request().Context()

	address := c.QueryParam("address")
	if !roasted.IsWalletAddress(address) {
		return presenter.BadRequestMessage(c, "invalid wallet address")
	}

	token, err := h.links.Issue(ctx, address)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"token": token})
}

type linkCompleteRequest struct {
	Token      string `json:"token"`
	ExternalID string `json:"externalId"`
	Username   string `json:"username"`
	Handle     string `json:"handle"`
	AvatarURL  string `json:"avatarUrl"`
}

func (h *Handler) handleLinkComplete(c echo.Context) error {
	ctx := c.Request().Context()

	var req linkCompleteRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	wallet, err := h.links.Redeem(ctx, req.Token)
	if err != nil {
		return fail(c, err)
	}

	err = h.identity.Save(ctx, usecase.SaveIdentityInput{
		WalletAddress:    wallet,
		ExternalID:       req.ExternalID,
		ExternalUsername: req.Username,
		ExternalHandle:   req.Handle,
		ExternalAvatar:   req.AvatarURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok", "walletAddress": wallet})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	events, err := h.signal.SubscribeMinted(ctx)
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to subscribe to mint signal",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return nil
	}

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			// Drain reads so pings and client closes are noticed.
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(ev); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
