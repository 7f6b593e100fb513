package hatifyHandler

import (
	hatifyService "ProjectHatify/internal/api/hatify/service"
	"ProjectHatify/internal/middleware"
	"ProjectHatify/pkg/limits"
	"ProjectHatify/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type HatifyHandler struct {
	log           *logrus.Logger
	validator     *validator.Validate
	middleware    middleware.Middleware
	hatifyService hatifyService.IHatifyService
	utils         utils.IUtils
	limits        *limits.Limits
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	hs hatifyService.IHatifyService,
	utils utils.IUtils,
	lim *limits.Limits,
) *HatifyHandler {
	return &HatifyHandler{
		hatifyService: hs,
		log:           log,
		validator:     validator,
		middleware:    middleware,
		utils:         utils,
		limits:        lim,
	}
}

func (h *HatifyHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Post("/overlay", h.ProcessUpload)

	overlay := srv.Group("/overlay")
	overlay.Post("/url", h.ProcessURL)
	overlay.Get("/limits", h.GetLimits)
	overlay.Use("/ws", wsMiddleware)
	overlay.Get("/ws", websocket.New(h.handleWebSocket))
}
