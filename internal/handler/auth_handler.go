package handler

import (
	"net/http"

	"smartsales/internal/config"
	"smartsales/internal/middleware"
	"smartsales/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /authのHTTP
type AuthHandler struct {
	uc     *usecase.AuthUsecase
	cartUC *usecase.CartUsecase
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase, cartUC *usecase.CartUsecase) *AuthHandler {
	return &AuthHandler{uc: uc, cartUC: cartUC}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	e.POST("/auth/register", h.register)
	e.POST("/auth/login", h.login)

	g := e.Group("/auth")
	g.Use(middleware.AuthJWT(cfg))
	g.GET("/me", h.me)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	//匿名カートを持っていたら会員カートへ統合する
	if key := c.Request().Header.Get(SessionKeyHeader); key != "" {
		if _, err := h.cartUC.MergeCart(c.Request().Context(), out.User.ID, key); err != nil {
			//統合失敗でログインは止めない
			c.Logger().Warnf("cart merge failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
