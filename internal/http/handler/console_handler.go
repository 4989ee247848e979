package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/app/notify"
	"github.com/sifan077/ushort/internal/app/service"
	"github.com/sifan077/ushort/internal/app/validator"
	"github.com/sifan077/ushort/internal/app/workflow"
	"github.com/sifan077/ushort/internal/http/view"
	"go.uber.org/zap"
)

const recentHistory = 5

// ConsoleDeps groups dependencies required by console handlers.
type ConsoleDeps struct {
	Logger        *zap.Logger
	Shorten       *workflow.ShortenWorkflow
	Analytics     *workflow.AnalyticsWorkflow
	Notifications *notify.Scheduler
	History       *service.HistoryService
}

// ConsoleHandler serves the local web console. Every route drives one of the
// shared workflows and then renders, or redirects back to, the page.
type ConsoleHandler struct {
	logger        *zap.Logger
	shorten       *workflow.ShortenWorkflow
	analytics     *workflow.AnalyticsWorkflow
	notifications *notify.Scheduler
	history       *service.HistoryService
}

// NewConsoleHandler creates a console handler with the provided dependencies.
func NewConsoleHandler(deps ConsoleDeps) *ConsoleHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleHandler{
		logger:        logger,
		shorten:       deps.Shorten,
		analytics:     deps.Analytics,
		notifications: deps.Notifications,
		history:       deps.History,
	}
}

// Register wires console routes onto the provided router.
func (h *ConsoleHandler) Register(router fiber.Router) {
	router.Get("/", h.Index)
	router.Get("/health", h.Health)
	router.Post("/shorten", h.Shorten)
	router.Post("/copy", h.Copy)
	router.Get("/analytics", h.Analytics)
	router.Post("/notification/dismiss", h.DismissNotification)
	router.Get("/api/state", h.State)
}

// Health reports that the console is up.
func (h *ConsoleHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "ushort",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Index renders the console page from the current workflow states.
func (h *ConsoleHandler) Index(c *fiber.Ctx) error {
	shorten := h.shorten.State()
	analytics := h.analytics.State()

	data := view.ConsolePageData{
		Input:            shorten.Input,
		InlineError:      shorten.Message,
		Busy:             shorten.Busy(),
		Result:           shorten.Result,
		CopyLabel:        h.shorten.CopyButtonLabel(),
		AnalyticsInput:   analytics.Input,
		AnalyticsBusy:    analytics.Busy(),
		AnalyticsMessage: analytics.Message,
		Analytics:        analytics.Result,
	}
	if status, ok := h.analytics.Status(); ok {
		data.Status = status
	}
	if n, ok := h.notifications.Current(); ok {
		data.Notification = &n
	}
	if h.history.Enabled() {
		entries, err := h.history.Recent(c.UserContext(), recentHistory)
		if err != nil {
			h.logger.Warn("failed to load history", zap.Error(err))
		}
		data.History = entries
	}

	html, err := view.RenderConsolePage(data)
	if err != nil {
		h.logger.Error("failed to render console page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to render page",
		})
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}

// Shorten handles POST /shorten with form field url.
func (h *ConsoleHandler) Shorten(c *fiber.Ctx) error {
	// The workflow keeps the input after the request buffer is recycled.
	_, err := h.shorten.Submit(c.UserContext(), utils.CopyString(c.FormValue("url")))
	if errors.Is(err, workflow.ErrBusy) {
		return busy(c)
	}

	var verr *validator.ValidationError
	if err != nil && !errors.As(err, &verr) {
		h.logger.Debug("shorten failed", zap.Error(err))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Copy handles POST /copy.
func (h *ConsoleHandler) Copy(c *fiber.Ctx) error {
	if _, err := h.shorten.Copy(c.UserContext()); errors.Is(err, workflow.ErrNothingToCopy) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Analytics handles GET /analytics?code= and renders the result in place.
func (h *ConsoleHandler) Analytics(c *fiber.Ctx) error {
	if _, err := h.analytics.Lookup(c.UserContext(), utils.CopyString(c.Query("code"))); errors.Is(err, workflow.ErrBusy) {
		return busy(c)
	}
	return h.Index(c)
}

// DismissNotification handles POST /notification/dismiss.
func (h *ConsoleHandler) DismissNotification(c *fiber.Ctx) error {
	h.notifications.Dismiss()
	return c.Redirect("/", fiber.StatusSeeOther)
}

// ShortenView is the JSON form of the shorten workflow.
type ShortenView struct {
	Phase     string               `json:"phase"`
	Input     string               `json:"input"`
	Busy      bool                 `json:"busy"`
	Message   string               `json:"message,omitempty"`
	Result    *model.ShortenResult `json:"result,omitempty"`
	CopyLabel string               `json:"copy_label"`
}

// AnalyticsView is the JSON form of the analytics workflow.
type AnalyticsView struct {
	Phase   string                 `json:"phase"`
	Code    string                 `json:"code,omitempty"`
	Busy    bool                   `json:"busy"`
	Message string                 `json:"message,omitempty"`
	Result  *model.AnalyticsResult `json:"result,omitempty"`
	Status  model.LinkStatus       `json:"status,omitempty"`
}

// StateResponse is returned by GET /api/state.
type StateResponse struct {
	Shorten      ShortenView         `json:"shorten"`
	Analytics    AnalyticsView       `json:"analytics"`
	Notification *model.Notification `json:"notification"`
}

// State handles GET /api/state.
func (h *ConsoleHandler) State(c *fiber.Ctx) error {
	shorten := h.shorten.State()
	analytics := h.analytics.State()

	resp := StateResponse{
		Shorten: ShortenView{
			Phase:     shorten.Phase.String(),
			Input:     shorten.Input,
			Busy:      shorten.Busy(),
			Message:   shorten.Message,
			Result:    shorten.Result,
			CopyLabel: h.shorten.CopyButtonLabel(),
		},
		Analytics: AnalyticsView{
			Phase:   analytics.Phase.String(),
			Code:    analytics.Code,
			Busy:    analytics.Busy(),
			Message: analytics.Message,
			Result:  analytics.Result,
		},
	}
	if status, ok := h.analytics.Status(); ok {
		resp.Analytics.Status = status
	}
	if n, ok := h.notifications.Current(); ok {
		resp.Notification = &n
	}

	return c.JSON(resp)
}

func busy(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error": workflow.ErrBusy.Error(),
	})
}
