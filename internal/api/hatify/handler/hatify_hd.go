package hatifyHandler

import (
	"ProjectHatify/internal/api/hatify"
	contextPkg "ProjectHatify/pkg/context"
	"ProjectHatify/pkg/handlerUtil"
	"ProjectHatify/pkg/log"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const processingTimeout = 30 * time.Second

func (h *HatifyHandler) ProcessUpload(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), processingTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing overlay upload request")

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.Handle(ctx, requestID, hatify.ErrBadRequest, ctx.Path(), "read_form_file")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"file_name":  file.Filename,
		"file_size":  file.Size,
	}).Debug("Processing file upload")

	if contentType := file.Header.Get("Content-Type"); !h.limits.IsAllowedImageType(contentType) {
		return errHandler.Handle(ctx, requestID, hatify.ErrInvalidFileType, ctx.Path(), "validate_content_type")
	}

	if err := h.utils.ValidateImageFile(file, h.limits.MaxFileSizeBytes); err != nil {
		return errHandler.Handle(ctx, requestID, hatify.ErrFileTooLarge, ctx.Path(), "validate_image_file")
	}

	scale, err := parseScale(ctx.FormValue("scale"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, hatify.ErrInvalidScale, ctx.Path(), "parse_scale")
	}

	fileContent, err := file.Open()
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_file")
	}
	defer fileContent.Close()

	data, err := io.ReadAll(fileContent)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_file")
	}

	result, err := h.hatifyService.HatifyImage(c, data, scale)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_image")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"faces":      result.FaceCount,
			"cache_hit":  result.CacheHit,
		}).Info("Overlay processing successful")
		return h.sendProcessedImage(ctx, result)
	}
}

func (h *HatifyHandler) ProcessURL(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), processingTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing overlay URL request")

	var req hatify.URLRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, hatify.ErrBadRequest, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	scale := req.Scale
	if scale == 0 {
		scale = 1.0
	}

	result, err := h.hatifyService.HatifyURL(c, req.ImageURL, scale)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_url")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"faces":      result.FaceCount,
			"cache_hit":  result.CacheHit,
		}).Info("Overlay URL processing successful")
		return h.sendProcessedImage(ctx, result)
	}
}

func (h *HatifyHandler) GetLimits(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, hatify.LimitsResponse{
		Limits: h.hatifyService.LimitsInfo(),
	})
}

// handleWebSocket streams frames through the overlay pipeline: binary image
// in, processed JPEG out. Frame-level errors are reported as JSON so the
// stream survives a bad frame.
func (h *HatifyHandler) handleWebSocket(c *websocket.Conn) {
	h.log.Info("Overlay WebSocket client connected")
	defer h.log.Info("Overlay WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Overlay WebSocket error: %v", err)
			} else {
				h.log.Info("Overlay WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		frame, err := h.hatifyService.HatifyFrame(message)
		if err != nil {
			h.log.Errorf("Error processing overlay frame: %v", err)
			if writeErr := c.WriteJSON(map[string]string{"error": err.Error()}); writeErr != nil {
				h.log.Errorf("Error sending error response: %v", writeErr)
				break
			}
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			h.log.Errorf("Error writing processed frame: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}

func (h *HatifyHandler) sendProcessedImage(ctx *fiber.Ctx, result *hatify.ProcessResult) error {
	ctx.Set("Content-Type", "image/jpeg")
	ctx.Set("X-Faces-Detected", strconv.Itoa(result.FaceCount))
	if result.CacheHit {
		ctx.Set("X-Cache", "HIT")
	} else {
		ctx.Set("X-Cache", "MISS")
	}

	return ctx.Status(fiber.StatusOK).Send(result.Data)
}

// parseScale treats a missing form field as the default scale of 1.0.
func parseScale(raw string) (float64, error) {
	if raw == "" {
		return 1.0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
