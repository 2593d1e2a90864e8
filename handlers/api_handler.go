package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/districtone/backend/models"
	"github.com/districtone/backend/services"
	"github.com/districtone/backend/verify"
	ws "github.com/districtone/backend/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CodeVerifier is the slice of the verification provider the dispatcher
// needs; tests substitute a fake.
type CodeVerifier interface {
	SendCode(dialCode, phoneNumber string) error
	CheckCode(dialCode, phoneNumber, code string) (verify.CheckResult, error)
}

type Handler struct {
	Abuse    *services.AbuseService
	Accounts *services.AccountService
	Sessions *services.SessionService
	Likes    *services.LikesService
	Teams    *services.TeamService
	Verifier CodeVerifier
	Hub      *ws.Hub
}

// Dispatch serves the single mobile-client endpoint: every request is a
// POST / with a requestType discriminator, the shape the deployed apps
// already speak.
func (h *Handler) Dispatch(c *fiber.Ctx) error {
	var base struct {
		RequestType string `json:"requestType"`
	}
	if err := c.BodyParser(&base); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	log.Printf("HTTP %s / from %s | %s", c.Method(), clientIP(c), base.RequestType)

	switch base.RequestType {
	case "ping":
		return c.SendString("pong")
	case "sendSMS":
		return h.sendSMS(c)
	case "checkCode":
		return h.checkCode(c)
	case "checkSessionKey":
		return h.checkSessionKey(c)
	case "likeTeam":
		return h.withSession(c, h.likeTeam)
	case "unlikeTeam":
		return h.withSession(c, h.unlikeTeam)
	case "likeEvent":
		return h.withSession(c, h.likeEvent)
	case "unlikeEvent":
		return h.withSession(c, h.unlikeEvent)
	case "getTeamAndEventLikes":
		return h.withSession(c, h.getTeamAndEventLikes)
	case "getTeamsForTeamList":
		return h.getTeamsForTeamList(c)
	case "getAvatarsForTeams":
		return h.getAvatarsForTeams(c)
	default:
		return c.Status(fiber.StatusBadRequest).
			SendString(fmt.Sprintf("Unsupported requestType %q", base.RequestType))
	}
}

// clientIP resolves the caller address behind App Engine / proxies, in the
// order the original deployment trusted.
func clientIP(c *fiber.Ctx) string {
	if ip := c.Get("X-Appengine-User-Ip"); ip != "" {
		return ip
	}
	if ip := c.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return c.IP()
}

func (h *Handler) sendSMS(c *fiber.Ctx) error {
	var req struct {
		DialCode    string `json:"dialCode" validate:"required"`
		PhoneNumber string `json:"phoneNumber" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not all fields filled"})
	}

	ip := clientIP(c)

	// The abuse check runs before the attempt is recorded, so this request
	// does not count against itself.
	abusive, err := h.Abuse.IsAbusive(c.Context(), ip, req.DialCode, req.PhoneNumber)
	if err != nil {
		return err
	}
	if abusive {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":   "Rate limit",
			"message": "You are sending too many requests",
		})
	}

	// Fire and forget: delivery must not hold up the response, the outcome
	// is only logged.
	go func(dialCode, phoneNumber string) {
		if err := h.Verifier.SendCode(dialCode, phoneNumber); err != nil {
			log.Printf("🔥 Failed to send verification code to +%s%s: %v", dialCode, phoneNumber, err)
		}
	}(req.DialCode, req.PhoneNumber)

	if err := h.Abuse.RecordSendAttempt(c.Context(), ip, req.DialCode, req.PhoneNumber); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *Handler) checkCode(c *fiber.Ctx) error {
	var req struct {
		DialCode     string  `json:"dialCode" validate:"required"`
		PhoneNumber  string  `json:"phoneNumber" validate:"required"`
		Code         *string `json:"code" validate:"required"`
		ReferrerCode string  `json:"referrerCode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Missing params")
	}

	result, err := h.Verifier.CheckCode(req.DialCode, req.PhoneNumber, *req.Code)
	if err != nil {
		return err
	}
	switch result {
	case verify.ResultExpired:
		// The code is gone at the provider; the user may request a new one.
		return c.SendStatus(fiber.StatusNotFound)
	case verify.ResultApproved:
	default:
		return c.SendStatus(fiber.StatusBadRequest)
	}

	exists, err := h.Accounts.Exists(c.Context(), req.DialCode, req.PhoneNumber)
	if err != nil {
		return err
	}
	if !exists {
		_, err := h.Accounts.Create(c.Context(), req.DialCode, req.PhoneNumber, req.ReferrerCode)
		// A concurrent verification for the same number may have won the
		// conditional insert; that account is just as good.
		if err != nil && !errors.Is(err, services.ErrAccountExists) {
			return err
		}
	}

	sessionKey, err := h.Sessions.Create(c.Context(), req.DialCode, req.PhoneNumber, clientIP(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sessionKey": sessionKey})
}

func (h *Handler) checkSessionKey(c *fiber.Ctx) error {
	var req struct {
		SessionKey *string `json:"sessionKey" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Missing params")
	}

	session, err := h.Sessions.Validate(c.Context(), *req.SessionKey)
	if err != nil {
		return err
	}
	if session == nil {
		return c.JSON(fiber.Map{"valid": false})
	}

	gaveReward, err := h.Sessions.GrantDailyReward(c.Context(), session)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true, "gaveReward": gaveReward})
}

// withSession gates an operation behind a valid session, the way the
// original's preCaller did.
func (h *Handler) withSession(c *fiber.Ctx, fn func(*fiber.Ctx, *models.Session) error) error {
	var req struct {
		SessionKey *string `json:"sessionKey"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.SessionKey == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error_msg": "Missing session key"})
	}

	session, err := h.Sessions.Validate(c.Context(), *req.SessionKey)
	if err != nil {
		return err
	}
	if session == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error_msg": "Invalid session key"})
	}
	return fn(c, session)
}

// account resolves the session's phone identity to its account row. A
// session without an account should not happen (accounts are created before
// sessions), so a miss reads as an invalid session.
func (h *Handler) account(c *fiber.Ctx, session *models.Session) (*models.Account, error) {
	account, err := h.Accounts.FindByPhone(c.Context(), session.DialCode, session.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error_msg": "Invalid session key"})
	}
	return account, nil
}

func (h *Handler) publishTeamLikes(c *fiber.Ctx, teamNumber int) {
	if h.Hub == nil {
		return
	}
	count, err := h.Likes.TeamLikeCount(c.Context(), teamNumber)
	if err != nil {
		log.Printf("🔥 Failed to count likes for team %d: %v", teamNumber, err)
		return
	}
	h.Hub.Publish(ws.LikeUpdate{TeamNumber: teamNumber, Likes: count})
}

func (h *Handler) likeTeam(c *fiber.Ctx, session *models.Session) error {
	var req struct {
		TeamNumber *int `json:"teamNumber"`
	}
	if err := c.BodyParser(&req); err != nil || req.TeamNumber == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error_msg": "Missing params"})
	}

	account, err := h.account(c, session)
	if account == nil {
		return err
	}
	if err := h.Likes.LikeTeam(c.Context(), account.ID, *req.TeamNumber); err != nil {
		return err
	}
	h.publishTeamLikes(c, *req.TeamNumber)

	teamLikes, eventLikes, err := h.Likes.TeamAndEventLikes(c.Context(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success_msg": fmt.Sprintf("You now like FRC team %d", *req.TeamNumber),
		"teamLikes":   teamLikes,
		"eventLikes":  eventLikes,
	})
}

func (h *Handler) unlikeTeam(c *fiber.Ctx, session *models.Session) error {
	var req struct {
		TeamNumber *int `json:"teamNumber"`
	}
	if err := c.BodyParser(&req); err != nil || req.TeamNumber == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error_msg": "Missing params"})
	}

	account, err := h.account(c, session)
	if account == nil {
		return err
	}
	if err := h.Likes.UnlikeTeam(c.Context(), account.ID, *req.TeamNumber); err != nil {
		return err
	}
	h.publishTeamLikes(c, *req.TeamNumber)

	teamLikes, eventLikes, err := h.Likes.TeamAndEventLikes(c.Context(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success_msg": fmt.Sprintf("You no longer like FRC team %d", *req.TeamNumber),
		"teamLikes":   teamLikes,
		"eventLikes":  eventLikes,
	})
}

func (h *Handler) likeEvent(c *fiber.Ctx, session *models.Session) error {
	var req struct {
		EventKey string `json:"eventKey"`
	}
	if err := c.BodyParser(&req); err != nil || req.EventKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error_msg": "Missing params"})
	}

	account, err := h.account(c, session)
	if account == nil {
		return err
	}
	if err := h.Likes.LikeEvent(c.Context(), account.ID, req.EventKey); err != nil {
		return err
	}

	teamLikes, eventLikes, err := h.Likes.TeamAndEventLikes(c.Context(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success_msg": fmt.Sprintf("You now like event %s", req.EventKey),
		"teamLikes":   teamLikes,
		"eventLikes":  eventLikes,
	})
}

func (h *Handler) unlikeEvent(c *fiber.Ctx, session *models.Session) error {
	var req struct {
		EventKey string `json:"eventKey"`
	}
	if err := c.BodyParser(&req); err != nil || req.EventKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error_msg": "Missing params"})
	}

	account, err := h.account(c, session)
	if account == nil {
		return err
	}
	if err := h.Likes.UnlikeEvent(c.Context(), account.ID, req.EventKey); err != nil {
		return err
	}

	teamLikes, eventLikes, err := h.Likes.TeamAndEventLikes(c.Context(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success_msg": fmt.Sprintf("You no longer like event %s", req.EventKey),
		"teamLikes":   teamLikes,
		"eventLikes":  eventLikes,
	})
}

func (h *Handler) getTeamAndEventLikes(c *fiber.Ctx, session *models.Session) error {
	account, err := h.account(c, session)
	if account == nil {
		return err
	}

	teamLikes, eventLikes, err := h.Likes.TeamAndEventLikes(c.Context(), account.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"teamLikes": teamLikes, "eventLikes": eventLikes})
}

func (h *Handler) getTeamsForTeamList(c *fiber.Ctx) error {
	teams, err := h.Teams.ListTeams(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"teams": teams})
}

func (h *Handler) getAvatarsForTeams(c *fiber.Ctx) error {
	var req struct {
		TeamNumbers []int `json:"list_of_team_number"`
	}
	if err := c.BodyParser(&req); err != nil || req.TeamNumbers == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error_msg": "Missing params"})
	}

	avatars, err := h.Teams.AvatarsForTeams(c.Context(), req.TeamNumbers)
	if err != nil {
		return err
	}
	return c.JSON(avatars)
}
