package handler

import (
	"context"
	"log/slog"

	"github.com/rl1809/laventory/internal/adapter/handler/ledgerpb"
	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/core/service"
	"github.com/rl1809/laventory/internal/port"
)

type GRPCHandler struct {
	ledgerpb.UnimplementedLedgerServer
	ledger    *service.LedgerService
	detection *service.DetectionService
	recipes   *service.RecipeService
	verifier  port.IdentityVerifier
	logger    *slog.Logger
}

func NewGRPCHandler(ledger *service.LedgerService, detection *service.DetectionService, recipes *service.RecipeService, verifier port.IdentityVerifier, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{
		ledger:    ledger,
		detection: detection,
		recipes:   recipes,
		verifier:  verifier,
		logger:    logger,
	}
}

func (h *GRPCHandler) List(ctx context.Context, req *ledgerpb.ListRequest) (*ledgerpb.InventoryReply, error) {
	id, ok := h.identity(ctx)
	if !ok {
		return &ledgerpb.InventoryReply{Success: false, Message: "invalid token", ErrorKind: unauthenticatedKind()}, nil
	}

	snap, err := h.ledger.Search(ctx, id, req.Query)
	if err != nil {
		return inventoryFailure(err), nil
	}
	return &ledgerpb.InventoryReply{Success: true, Items: toPBItems(snap)}, nil
}

func (h *GRPCHandler) Add(ctx context.Context, req *ledgerpb.AddRequest) (*ledgerpb.InventoryReply, error) {
	id, ok := h.identity(ctx)
	if !ok {
		return &ledgerpb.InventoryReply{Success: false, Message: "invalid token", ErrorKind: unauthenticatedKind()}, nil
	}

	quantity := domain.DefaultQuantity
	if req.Quantity != nil {
		quantity = int(*req.Quantity)
	}

	snap, err := h.ledger.Add(ctx, id, req.Name, quantity)
	if err != nil {
		return inventoryFailure(err), nil
	}
	return &ledgerpb.InventoryReply{Success: true, Message: "item added", Items: toPBItems(snap)}, nil
}

func (h *GRPCHandler) Remove(ctx context.Context, req *ledgerpb.RemoveRequest) (*ledgerpb.InventoryReply, error) {
	id, ok := h.identity(ctx)
	if !ok {
		return &ledgerpb.InventoryReply{Success: false, Message: "invalid token", ErrorKind: unauthenticatedKind()}, nil
	}

	snap, err := h.ledger.Remove(ctx, id, req.Name)
	if err != nil {
		return inventoryFailure(err), nil
	}
	return &ledgerpb.InventoryReply{Success: true, Message: "item removed", Items: toPBItems(snap)}, nil
}

func (h *GRPCHandler) Detect(ctx context.Context, req *ledgerpb.DetectRequest) (*ledgerpb.DetectReply, error) {
	id, ok := h.identity(ctx)
	if !ok {
		return &ledgerpb.DetectReply{Success: false, Message: "invalid token", ErrorKind: unauthenticatedKind()}, nil
	}

	if req.Add {
		top, snap, err := h.detection.DetectAndAdd(ctx, id, req.Image, req.MimeType)
		if err != nil {
			return &ledgerpb.DetectReply{Success: false, Message: errorMessage(err), ErrorKind: service.KindName(err)}, nil
		}
		added := toPBDetection(top)
		return &ledgerpb.DetectReply{
			Success:    true,
			Message:    "item added",
			Detections: []*ledgerpb.Detection{added},
			Added:      added,
			Items:      toPBItems(snap),
		}, nil
	}

	detections, err := h.detection.Detect(ctx, id, req.Image, req.MimeType)
	if err != nil {
		return &ledgerpb.DetectReply{Success: false, Message: errorMessage(err), ErrorKind: service.KindName(err)}, nil
	}
	out := make([]*ledgerpb.Detection, 0, len(detections))
	for _, d := range detections {
		out = append(out, toPBDetection(d))
	}
	return &ledgerpb.DetectReply{Success: true, Detections: out}, nil
}

func (h *GRPCHandler) GenerateRecipe(ctx context.Context, req *ledgerpb.RecipeRequest) (*ledgerpb.RecipeReply, error) {
	id, ok := h.identity(ctx)
	if !ok {
		return &ledgerpb.RecipeReply{Success: false, Message: "invalid token", ErrorKind: unauthenticatedKind()}, nil
	}

	recipe, err := h.recipes.Generate(ctx, id, req.Ingredients)
	if err != nil {
		return &ledgerpb.RecipeReply{Success: false, Message: errorMessage(err), ErrorKind: service.KindName(err)}, nil
	}
	return &ledgerpb.RecipeReply{
		Success: true,
		Recipe: &ledgerpb.Recipe{
			Name:         recipe.Name,
			Ingredients:  recipe.Ingredients,
			Instructions: recipe.Instructions,
		},
	}, nil
}

// identity resolves the bearer token of the call. ok is false only when a
// token was sent and rejected; no token means a signed-out caller.
func (h *GRPCHandler) identity(ctx context.Context) (*domain.Identity, bool) {
	token := ledgerpb.TokenFromContext(ctx)
	if token == "" {
		return nil, true
	}
	id, err := h.verifier.Verify(ctx, token)
	if err != nil {
		h.logger.InfoContext(ctx, "token rejected", "error", err)
		return nil, false
	}
	return id, true
}

func inventoryFailure(err error) *ledgerpb.InventoryReply {
	return &ledgerpb.InventoryReply{
		Success:   false,
		Message:   errorMessage(err),
		ErrorKind: service.KindName(err),
	}
}

func unauthenticatedKind() string {
	return service.KindName(service.ErrUnauthenticated)
}

// toPBItems narrows quantities to int32, stored quantities never exceed
// domain.MaxQuantity.
func toPBItems(snap domain.Snapshot) []*ledgerpb.Item {
	out := make([]*ledgerpb.Item, 0, len(snap))
	for _, item := range snap {
		out = append(out, &ledgerpb.Item{Name: item.Name, Quantity: int32(item.Quantity)})
	}
	return out
}

func toPBDetection(d domain.Detection) *ledgerpb.Detection {
	return &ledgerpb.Detection{Label: d.Label, Score: d.Score}
}
