package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/tarotgarden/internal/interpret"
	"github.com/charlesng35/tarotgarden/internal/middleware"
	"github.com/charlesng35/tarotgarden/internal/models"
	"github.com/charlesng35/tarotgarden/internal/services"
	"github.com/charlesng35/tarotgarden/internal/tarot"
	"github.com/charlesng35/tarotgarden/internal/usage"
	apperrors "github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/logger"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// ErrInterpretationFailed is rendered when the generator errors or times out.
var ErrInterpretationFailed = apperrors.New("INTERPRETATION_FAILED", "The reading could not be interpreted right now", http.StatusBadGateway)

// ReadingHandler draws gated readings and keeps the history of signed-in users.
type ReadingHandler struct {
	gate     *usage.Gate
	subs     *services.SubscriptionService
	users    *services.UserService
	readings *services.ReadingService
	interp   *interpret.Interpreter
	log      *zap.Logger
}

func NewReadingHandler(
	gate *usage.Gate,
	subs *services.SubscriptionService,
	users *services.UserService,
	readings *services.ReadingService,
	interp *interpret.Interpreter,
) *ReadingHandler {
	return &ReadingHandler{
		gate:     gate,
		subs:     subs,
		users:    users,
		readings: readings,
		interp:   interp,
		log:      logger.WithModule("readings"),
	}
}

type drawnCardPayload struct {
	Card     string `json:"card" validate:"required,max=64"`
	Reversed bool   `json:"reversed"`
}

type createReadingPayload struct {
	Spread   string             `json:"spread" validate:"required,max=64"`
	Theme    string             `json:"theme" validate:"omitempty,max=32"`
	Question string             `json:"question" validate:"max=500"`
	Cards    []drawnCardPayload `json:"cards" validate:"required,min=1,max=11,dive"`
}

type readingDTO struct {
	ID             string             `json:"id,omitempty"`
	Spread         string             `json:"spread"`
	SpreadName     string             `json:"spread_name"`
	Theme          string             `json:"theme"`
	Question       string             `json:"question"`
	Cards          []models.DrawnCard `json:"cards"`
	Interpretation string             `json:"interpretation"`
	Provider       string             `json:"provider"`
	Saved          bool               `json:"saved"`
	CreatedAt      string             `json:"created_at,omitempty"`
}

func mapReading(reading *models.Reading, saved bool) readingDTO {
	createdAt := ""
	if !reading.CreatedAt.IsZero() {
		createdAt = reading.CreatedAt.Format(time.RFC3339)
	}
	return readingDTO{
		ID:             reading.ID,
		Spread:         reading.Spread,
		SpreadName:     tarot.SpreadName(reading.Spread),
		Theme:          reading.Theme,
		Question:       reading.Question,
		Cards:          reading.Cards,
		Interpretation: reading.Interpretation,
		Provider:       reading.Provider,
		Saved:          saved,
		CreatedAt:      createdAt,
	}
}

// POST /api/readings
func (h *ReadingHandler) Create(c *gin.Context) {
	var payload createReadingPayload
	if !bindAndValidate(c, &payload) {
		return
	}

	spread, ok := tarot.LookupSpread(strings.TrimSpace(payload.Spread))
	if !ok {
		response.Error(c, apperrors.NewBadRequest(fmt.Sprintf("unknown spread %q", payload.Spread)))
		return
	}
	if len(payload.Cards) != spread.CardCount {
		response.Error(c, apperrors.NewBadRequest(fmt.Sprintf("%s needs exactly %d cards", spread.ID, spread.CardCount)))
		return
	}
	for _, card := range payload.Cards {
		if !tarot.IsCard(strings.TrimSpace(card.Card)) {
			response.Error(c, apperrors.NewBadRequest(fmt.Sprintf("unknown card %q", card.Card)))
			return
		}
	}
	theme := strings.TrimSpace(payload.Theme)
	if theme == "" {
		theme = tarot.ThemeGeneral
	}
	if _, ok := tarot.LookupTheme(theme); !ok {
		response.Error(c, apperrors.NewBadRequest(fmt.Sprintf("unknown theme %q", payload.Theme)))
		return
	}
	question := strings.TrimSpace(payload.Question)
	if question == "" {
		question = tarot.QuestionFor(theme)
	}

	premium, err := resolvePremium(c, h.subs)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	ctx := requestContext(c)
	gate := deviceGate(c, h.gate)
	if !gate.TryUse(ctx, spread.ID, premium) {
		response.Error(c, apperrors.ErrUsageLimit.WithMessage(gate.BuildLimitMessage(ctx)))
		return
	}

	cards := make([]models.DrawnCard, len(payload.Cards))
	for i, card := range payload.Cards {
		cards[i] = models.DrawnCard{
			Card:     strings.TrimSpace(card.Card),
			Position: spread.Positions[i],
			Reversed: card.Reversed,
		}
	}

	result, err := h.interp.Interpret(ctx, interpret.Request{
		Spread:   spread,
		Theme:    theme,
		Question: question,
		Cards:    cards,
	})
	if err != nil {
		response.Error(c, ErrInterpretationFailed.WithInternal(err))
		return
	}

	reading := &models.Reading{
		Spread:         spread.ID,
		Theme:          theme,
		Question:       question,
		Cards:          cards,
		Interpretation: result.Text,
		Provider:       result.Provider,
	}

	saved := false
	if userID := currentUserID(c); userID != "" {
		saved = h.persist(c, userID, reading)
	}

	response.Success(c, http.StatusCreated, mapReading(reading, saved))
}

// persist stores the reading for a signed-in user. The interpretation is
// still returned when storage fails.
func (h *ReadingHandler) persist(c *gin.Context, userID string, reading *models.Reading) bool {
	ctx := requestContext(c)
	email, provider := "", ""
	if claims, ok := middleware.ClaimsFrom(c); ok {
		email, provider = claims.Email, claims.Provider
	}
	if _, err := h.users.EnsureUser(ctx, userID, email, provider); err != nil {
		h.log.Warn("ensure user failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}

	reading.UserID = userID
	if err := h.readings.Create(ctx, reading); err != nil {
		h.log.Warn("save reading failed", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return true
}

// GET /api/readings
func (h *ReadingHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	readings, err := h.readings.ListForUser(requestContext(c), userID, parseIntQuery(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]readingDTO, len(readings))
	for i := range readings {
		out[i] = mapReading(&readings[i], true)
	}
	response.Success(c, http.StatusOK, out)
}
