package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/fitsbi/fitsbi-backend/internal/models"
	"github.com/fitsbi/fitsbi-backend/internal/repository"
	"github.com/fitsbi/fitsbi-backend/internal/services"
	"github.com/fitsbi/fitsbi-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthHandler struct {
	db             *pgxpool.Pool
	userRepo       *repository.UserRepository
	profileService *services.ProfileService
	jwtSecret      string
}

func NewAuthHandler(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	profileService *services.ProfileService,
	jwtSecret string,
) *AuthHandler {
	return &AuthHandler{
		db:             db,
		userRepo:       userRepo,
		profileService: profileService,
		jwtSecret:      jwtSecret,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleSyncRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email format"})
	}
	req.Email = strings.ToLower(parsedEmail.Address)
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Password must be at least 8 characters"})
	}

	existing, err := h.userRepo.GetByEmail(c.Context(), req.Email)
	if err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to check email"})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to hash password"})
	}

	user := &models.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hashed,
		Provider:     "local",
	}
	if err := h.createUserWithProfile(c, user); err != nil {
		return err
	}

	token, err := utils.GenerateToken(user.ID, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  userPayload(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email format"})
	}
	req.Email = strings.ToLower(parsedEmail.Address)

	user, err := h.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": "Invalid email or password"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to lookup user"})
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "Invalid email or password"})
	}

	if err := h.userRepo.TouchLastLogin(c.Context(), user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to record login"})
	}

	token, err := utils.GenerateToken(user.ID, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  userPayload(user),
	})
}

// GoogleSync upserts an OAuth-verified account. First contact creates the
// user and seeds the profile with baseline field values so the assistant has
// something to work from; later calls only refresh last_login.
func (h *AuthHandler) GoogleSync(c *fiber.Ctx) error {
	var req googleSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email format"})
	}
	email := strings.ToLower(parsedEmail.Address)

	created := false
	user, err := h.userRepo.GetByEmail(c.Context(), email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to lookup user"})
		}

		user = &models.User{
			Email:    email,
			Name:     strings.TrimSpace(req.Name),
			Provider: "google",
		}
		if err := h.createUserWithProfile(c, user); err != nil {
			return err
		}
		created = true

		if _, _, err := h.profileService.ApplyUpdate(c.Context(), user.ID, models.DefaultOAuthProfileFields); err != nil {
			return mapServiceError(c, err, "Failed to seed profile")
		}
	} else {
		if err := h.userRepo.TouchLastLogin(c.Context(), user.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to record login"})
		}
	}

	token, err := utils.GenerateToken(user.ID, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	profile, err := h.profileService.GetProfile(c.Context(), user.ID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{
		"token":   token,
		"user":    userPayload(user),
		"profile": profile,
		"created": created,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	profile, err := h.profileService.GetProfile(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{
		"user":                 userPayload(user),
		"profile":              profile,
		"onboarding_completed": profile.OnboardingCompleted,
	})
}

// createUserWithProfile creates the account row and its empty profile in one
// transaction so a half-registered user can never exist.
func (h *AuthHandler) createUserWithProfile(c *fiber.Ctx, user *models.User) error {
	tx, err := h.db.Begin(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to start registration transaction"})
	}
	defer func() {
		_ = tx.Rollback(c.Context())
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txProfileRepo := repository.NewUserProfileRepository(tx)

	if err := txUserRepo.CreateUser(c.Context(), user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).
				JSON(fiber.Map{"error": "Email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to create user"})
	}

	if err := txProfileRepo.CreateEmpty(c.Context(), user.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to create user profile"})
	}

	if err := tx.Commit(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to finalize registration"})
	}
	return nil
}

func userPayload(user *models.User) fiber.Map {
	return fiber.Map{
		"id":       user.ID,
		"email":    user.Email,
		"name":     user.Name,
		"provider": user.Provider,
	}
}
