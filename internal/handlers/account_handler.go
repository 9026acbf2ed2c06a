package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/common"
	"storefront/internal/middleware"
	"storefront/internal/services"
)

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	accounts *services.AccountService
	tokens   *services.TokenService
	limiter  fiber.Handler
}

// NewAccountHandler creates a new AccountHandler. limiter guards signup and login.
func NewAccountHandler(accounts *services.AccountService, tokens *services.TokenService, limiter fiber.Handler) *AccountHandler {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &AccountHandler{
		accounts: accounts,
		tokens:   tokens,
		limiter:  limiter,
	}
}

// RegisterRoutes registers the account routes.
func (h *AccountHandler) RegisterRoutes(router fiber.Router) {
	accountRoutes := router.Group("/account")
	accountRoutes.Post("/", h.limiter, h.HandleSignup)
	accountRoutes.Post("/login", h.limiter, h.HandleLogin)
	accountRoutes.Patch("/", middleware.Authenticate(h.tokens), h.HandleUpdateProfile)
	accountRoutes.Get("/:username", middleware.Authenticate(h.tokens), h.HandleGetUser)
}

// HandleSignup creates an account and returns its first token.
func (h *AccountHandler) HandleSignup(c *fiber.Ctx) error {
	var req services.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	token, err := h.accounts.Signup(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"msg":   "User create successfully",
		"token": token,
	})
}

// HandleLogin exchanges credentials for a token.
func (h *AccountHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	token, err := h.accounts.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"msg":   "Login successfully",
		"token": token,
	})
}

// HandleGetUser returns the caller's own profile. The username in the path must be the
// caller's; the account itself is loaded by the token's user id.
func (h *AccountHandler) HandleGetUser(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return common.NewError(common.ErrUnauthenticated, "Authorization header is required")
	}
	if claims.Username != c.Params("username") {
		return common.NewError(common.ErrForbidden, "You do not have permission to perform this action")
	}

	user, err := h.accounts.GetProfile(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return common.RespondWithJSON(c, fiber.StatusOK, "Get user successfully", user)
}

// HandleUpdateProfile applies a partial update to the caller's own account.
func (h *AccountHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return common.NewError(common.ErrUnauthenticated, "Authorization header is required")
	}

	var req services.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	user, err := h.accounts.UpdateProfile(c.UserContext(), claims.UserID, req)
	if err != nil {
		return err
	}
	return common.RespondWithJSON(c, fiber.StatusOK, "User was updated successfully", user)
}

func invalidBody() error {
	return common.NewError(common.ErrValidation, "Invalid request body")
}
