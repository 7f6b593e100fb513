package config

import (
	hatifyHandler "ProjectHatify/internal/api/hatify/handler"
	hatifyService "ProjectHatify/internal/api/hatify/service"
	"ProjectHatify/internal/middleware"
	"ProjectHatify/pkg/facemesh"
	"ProjectHatify/pkg/limits"
	"ProjectHatify/pkg/overlay"
	"ProjectHatify/pkg/redis"
	"ProjectHatify/pkg/s3"
	"ProjectHatify/pkg/utils"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	handlers       []handler
	redisServer    redis.IRedis
	s3Client       s3.ItfS3
	faceMeshClient facemesh.ItfFaceMesh
	overlayEngine  *overlay.Engine
	extractor      *overlay.Extractor
	limits         *limits.Limits
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before S3 client")
		}
		client, err := s3.New(s.log)
		if err != nil {
			s.log.Errorf("Failed to initialize S3 client: %v", err)
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithFaceMeshClient(client facemesh.ItfFaceMesh) ServerOption {
	return func(s *Server) error {
		s.faceMeshClient = client
		return nil
	}
}

func WithLimits() ServerOption {
	return func(s *Server) error {
		s.limits = limits.New()
		return nil
	}
}

// WithOverlayAsset loads the hat bitmap plus its sidecar positioning config
// and builds the geometry pipeline around them.
func WithOverlayAsset() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before overlay asset")
		}
		if s.validator == nil {
			return fmt.Errorf("validator must be initialized before overlay asset")
		}

		assetPath := os.Getenv("HAT_ASSET_PATH")
		if assetPath == "" {
			assetPath = "./static/santa_hat.png"
		}

		asset, err := overlay.LoadAsset(assetPath)
		if err != nil {
			s.log.Errorf("Failed to load overlay asset: %v", err)
			return fmt.Errorf("failed to load overlay asset: %w", err)
		}

		if err := s.validator.Struct(asset.Positioning); err != nil {
			return fmt.Errorf("invalid overlay positioning config: %w", err)
		}

		s.overlayEngine = overlay.NewEngine(asset.Image, asset.Positioning, s.log)
		s.extractor = overlay.NewExtractor(overlay.MediaPipeFaceMeshScheme())

		s.log.Infof("Loaded overlay asset from %s", assetPath)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	hatifyServices := hatifyService.NewHatifyService(
		s.log,
		s.faceMeshClient,
		s.extractor,
		s.overlayEngine,
		s.s3Client,
		s.redisServer,
		s.utils,
		s.limits,
	)
	hatifyHandlers := hatifyHandler.New(s.log, s.validator, s.middleware, hatifyServices, s.utils, s.limits)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, hatifyHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())
	s.engine.Use(s.middleware.NewRateLimiter)

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.faceMeshClient != nil {
			s.faceMeshClient.Close()
		}
		return err
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
