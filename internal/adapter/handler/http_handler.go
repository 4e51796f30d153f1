package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/core/service"
	"github.com/rl1809/laventory/internal/port"
)

const maxImageSize = 10 << 20

type HTTPHandler struct {
	ledger      *service.LedgerService
	detection   *service.DetectionService
	recipes     *service.RecipeService
	images      *service.ImageService
	idempotency port.IdempotencyStore
	silent      bool
	logger      *slog.Logger
}

type HTTPOption func(*HTTPHandler)

// WithIdempotency deduplicates add requests carrying an Idempotency-Key.
func WithIdempotency(store port.IdempotencyStore) HTTPOption {
	return func(h *HTTPHandler) {
		h.idempotency = store
	}
}

// WithImages serves item pictures from images. Without it every picture
// lookup fails as a remote failure.
func WithImages(images *service.ImageService) HTTPOption {
	return func(h *HTTPHandler) {
		h.images = images
	}
}

// WithSilentErrors answers failed inventory calls with 200 and the last
// readable snapshot.
func WithSilentErrors(silent bool) HTTPOption {
	return func(h *HTTPHandler) {
		h.silent = silent
	}
}

type AddItemRequest struct {
	Name string `json:"name"`
	// Quantity is a number, a numeric string or absent.
	Quantity json.RawMessage `json:"quantity,omitempty"`
}

type RecipeRequest struct {
	Ingredients []string `json:"ingredients"`
}

type InventoryResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
	Items     domain.Snapshot `json:"items"`
}

type DetectResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	ErrorKind  string             `json:"error_kind,omitempty"`
	Detections []domain.Detection `json:"detections,omitempty"`
	Added      *domain.Detection  `json:"added,omitempty"`
	Items      domain.Snapshot    `json:"items,omitempty"`
}

type ImageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	URL       string `json:"url,omitempty"`
}

type RecipeResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Recipe    *domain.Recipe `json:"recipe,omitempty"`
}

func NewHTTPHandler(ledger *service.LedgerService, detection *service.DetectionService, recipes *service.RecipeService, logger *slog.Logger, opts ...HTTPOption) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HTTPHandler{
		ledger:    ledger,
		detection: detection,
		recipes:   recipes,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.images == nil {
		h.images = service.NewImageService(ledger, nil, logger)
	}
	return h
}

func (h *HTTPHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListInventory(c echo.Context) error {
	ctx := c.Request().Context()
	id := identityFrom(c)

	snap, err := h.ledger.Search(ctx, id, c.QueryParam("q"))
	if err != nil {
		return h.inventoryError(c, id, err)
	}
	return c.JSON(http.StatusOK, InventoryResponse{Success: true, Items: snap})
}

func (h *HTTPHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	id := identityFrom(c)

	var req AddItemRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, InventoryResponse{
			Success:   false,
			Message:   "invalid request body",
			ErrorKind: service.KindName(service.ErrInvalidInput),
		})
	}

	quantity, err := parseQuantity(req.Quantity)
	if err != nil {
		return c.JSON(http.StatusBadRequest, InventoryResponse{
			Success:   false,
			Message:   err.Error(),
			ErrorKind: service.KindName(service.ErrInvalidInput),
		})
	}

	var reserved string
	if key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key")); key != "" && h.idempotency != nil && id.SignedIn() {
		reserved = id.UserID + ":" + key
		first, err := h.idempotency.SetIdempotency(ctx, reserved)
		if err != nil {
			h.logger.ErrorContext(ctx, "idempotency check failed", "user_id", id.UserID, "error", err)
			return h.inventoryError(c, id, err)
		}
		if !first {
			return c.JSON(http.StatusConflict, InventoryResponse{
				Success: false,
				Message: "duplicate request",
			})
		}
	}

	snap, err := h.ledger.Add(ctx, id, req.Name, quantity)
	if err != nil {
		if reserved != "" {
			if relErr := h.idempotency.ReleaseIdempotency(ctx, reserved); relErr != nil {
				h.logger.WarnContext(ctx, "idempotency release failed", "user_id", id.UserID, "error", relErr)
			}
		}
		return h.inventoryError(c, id, err)
	}
	return c.JSON(http.StatusOK, InventoryResponse{Success: true, Message: "item added", Items: snap})
}

func (h *HTTPHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	id := identityFrom(c)

	snap, err := h.ledger.Remove(ctx, id, c.Param("name"))
	if err != nil {
		return h.inventoryError(c, id, err)
	}
	return c.JSON(http.StatusOK, InventoryResponse{Success: true, Message: "item removed", Items: snap})
}

func (h *HTTPHandler) Detect(c echo.Context) error {
	ctx := c.Request().Context()
	id := identityFrom(c)

	image, mimeType, err := readImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, DetectResponse{
			Success:   false,
			Message:   err.Error(),
			ErrorKind: service.KindName(service.ErrInvalidInput),
		})
	}

	if c.QueryParam("add") == "true" {
		top, snap, err := h.detection.DetectAndAdd(ctx, id, image, mimeType)
		if err != nil {
			return c.JSON(errorStatus(err), DetectResponse{
				Success:   false,
				Message:   errorMessage(err),
				ErrorKind: service.KindName(err),
			})
		}
		return c.JSON(http.StatusOK, DetectResponse{
			Success:    true,
			Message:    "item added",
			Detections: []domain.Detection{top},
			Added:      &top,
			Items:      snap,
		})
	}

	detections, err := h.detection.Detect(ctx, id, image, mimeType)
	if err != nil {
		return c.JSON(errorStatus(err), DetectResponse{
			Success:   false,
			Message:   errorMessage(err),
			ErrorKind: service.KindName(err),
		})
	}
	return c.JSON(http.StatusOK, DetectResponse{Success: true, Detections: detections})
}

func (h *HTTPHandler) GenerateRecipe(c echo.Context) error {
	ctx := c.Request().Context()
	id := identityFrom(c)

	var req RecipeRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, RecipeResponse{
			Success:   false,
			Message:   "invalid request body",
			ErrorKind: service.KindName(service.ErrInvalidInput),
		})
	}

	recipe, err := h.recipes.Generate(ctx, id, req.Ingredients)
	if err != nil {
		return c.JSON(errorStatus(err), RecipeResponse{
			Success:   false,
			Message:   errorMessage(err),
			ErrorKind: service.KindName(err),
		})
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(recipe.Markdown()), &buf); err != nil {
			return err
		}
		return c.HTMLBlob(http.StatusOK, buf.Bytes())
	}
	return c.JSON(http.StatusOK, RecipeResponse{Success: true, Recipe: recipe})
}

func (h *HTTPHandler) ItemImage(c echo.Context) error {
	ctx := c.Request().Context()
	id := identityFrom(c)

	u, err := h.images.Find(ctx, id, c.Param("name"))
	if err != nil {
		return c.JSON(errorStatus(err), ImageResponse{
			Success:   false,
			Message:   errorMessage(err),
			ErrorKind: service.KindName(err),
		})
	}
	return c.JSON(http.StatusOK, ImageResponse{Success: true, URL: u})
}

// inventoryError writes a failed inventory call. In silent mode the failure
// is only logged and the caller gets whatever can still be read.
func (h *HTTPHandler) inventoryError(c echo.Context, id *domain.Identity, err error) error {
	if h.silent {
		snap := domain.Snapshot{}
		if id.SignedIn() {
			if current, listErr := h.ledger.List(c.Request().Context(), id); listErr == nil {
				snap = current
			}
		}
		h.logger.WarnContext(c.Request().Context(), "inventory error suppressed", "error", err)
		return c.JSON(http.StatusOK, InventoryResponse{Success: true, Items: snap})
	}

	return c.JSON(errorStatus(err), InventoryResponse{
		Success:   false,
		Message:   errorMessage(err),
		ErrorKind: service.KindName(err),
	})
}

func errorStatus(err error) int {
	switch service.KindOf(err) {
	case service.ErrUnauthenticated:
		return http.StatusUnauthorized
	case service.ErrNotFound, service.ErrNoRecipe, service.ErrNoDetection, service.ErrNoImage:
		return http.StatusNotFound
	case service.ErrInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func errorMessage(err error) string {
	switch service.KindOf(err) {
	case service.ErrUnauthenticated:
		return "sign in required"
	case service.ErrNotFound:
		return "item not found"
	case service.ErrInvalidInput:
		var svcErr *service.Error
		if errors.As(err, &svcErr) && svcErr.Err != nil {
			return svcErr.Err.Error()
		}
		return "invalid input"
	case service.ErrNoRecipe:
		return "no recipe found"
	case service.ErrNoDetection:
		return "no object detected"
	case service.ErrNoImage:
		return "no image found"
	default:
		return "upstream service unavailable"
	}
}

// parseQuantity reads the quantity field. Strings get the lenient prefix
// parse, numbers must be integers within range.
func parseQuantity(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return domain.DefaultQuantity, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.ParseQuantity(s)
	}
	if bytes.ContainsAny(raw, ".eE") {
		return 0, fmt.Errorf("%w: %s is not a whole number", domain.ErrInvalidQuantity, raw)
	}
	return domain.CheckQuantity(string(raw))
}

func readImage(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, "", errors.New("missing image file")
	}
	if fh.Size > maxImageSize {
		return nil, "", errors.New("image too large")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.New("unreadable image file")
	}
	defer f.Close()

	image, err := io.ReadAll(io.LimitReader(f, maxImageSize))
	if err != nil {
		return nil, "", errors.New("unreadable image file")
	}

	mimeType := fh.Header.Get(echo.HeaderContentType)
	if mimeType == "" || mimeType == echo.MIMEOctetStream {
		mimeType = http.DetectContentType(image)
	}
	return image, mimeType, nil
}
