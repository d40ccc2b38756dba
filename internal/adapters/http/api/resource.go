package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"plinth/internal/domain/schema"
	"plinth/internal/gateway"
	"plinth/internal/router"
)

// ResourceHandler serves the CRUD surface of one collection. Records are
// rendered as flat JSON objects with the key field inlined next to the
// attribute fields.
type ResourceHandler struct {
	deps Dependencies
	name string
	key  string
}

// NewResourceHandler creates a handler for collection c.
func NewResourceHandler(deps Dependencies, c schema.Collection) *ResourceHandler {
	return &ResourceHandler{deps: deps, name: c.Name, key: c.Key}
}

// HandleCreate handles POST /{collection}.
func (h *ResourceHandler) HandleCreate(ctx context.Context, req *router.Request) (*router.Response, error) {
	rec, err := h.decodeRecord(req.Body)
	if err != nil {
		return respondError(err), nil
	}
	created, err := h.deps.Create(ctx, h.name, rec)
	if err != nil {
		if gateway.Kind(err) == gateway.ErrInternal {
			return nil, err
		}
		return respondError(err), nil
	}
	return router.JSON(http.StatusCreated, h.renderRecord(created)), nil
}

// HandleGet handles GET /{collection}/{key}.
func (h *ResourceHandler) HandleGet(ctx context.Context, req *router.Request) (*router.Response, error) {
	rec, err := h.deps.Find(ctx, h.name, req.Params[h.key])
	if err != nil {
		if gateway.Kind(err) == gateway.ErrInternal {
			return nil, err
		}
		return respondError(err), nil
	}
	return router.JSON(http.StatusOK, h.renderRecord(rec)), nil
}

// HandleUpdate handles PUT /{collection}/{key}. The body is a partial
// field object; the key itself is taken from the path and cannot change.
func (h *ResourceHandler) HandleUpdate(ctx context.Context, req *router.Request) (*router.Response, error) {
	patch, err := h.decodePatch(req.Body)
	if err != nil {
		return respondError(err), nil
	}
	rec, err := h.deps.Update(ctx, h.name, req.Params[h.key], patch)
	if err != nil {
		if gateway.Kind(err) == gateway.ErrInternal {
			return nil, err
		}
		return respondError(err), nil
	}
	return router.JSON(http.StatusOK, h.renderRecord(rec)), nil
}

// HandleDelete handles DELETE /{collection}/{key}. Idempotent: deleting an
// absent key still returns 204.
func (h *ResourceHandler) HandleDelete(ctx context.Context, req *router.Request) (*router.Response, error) {
	if err := h.deps.Delete(ctx, h.name, req.Params[h.key]); err != nil {
		if gateway.Kind(err) == gateway.ErrInternal {
			return nil, err
		}
		return respondError(err), nil
	}
	return router.NoContent(http.StatusNoContent), nil
}

// HandleList handles GET /{collection}?limit=N.
func (h *ResourceHandler) HandleList(ctx context.Context, req *router.Request) (*router.Response, error) {
	limit := 0
	if raw := req.Query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return respondError(gateway.WrapKind("api.list", gateway.ErrValidation,
				fmt.Errorf("limit must be a non-negative integer"))), nil
		}
		limit = n
	}
	recs, err := h.deps.List(ctx, h.name, limit)
	if err != nil {
		if gateway.Kind(err) == gateway.ErrInternal {
			return nil, err
		}
		return respondError(err), nil
	}
	items := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		items = append(items, h.renderRecord(rec))
	}
	return router.JSON(http.StatusOK, map[string]any{"items": items, "count": len(items)}), nil
}

// decodeRecord splits a flat JSON object into key and fields.
func (h *ResourceHandler) decodeRecord(body []byte) (gateway.Record, error) {
	const op = "api.decode"
	raw, err := decodeObject(body)
	if err != nil {
		return gateway.Record{}, err
	}
	rec := gateway.Record{Fields: raw}
	if keyVal, ok := raw[h.key]; ok {
		key, ok := keyVal.(string)
		if !ok {
			return gateway.Record{}, gateway.WrapKind(op, gateway.ErrValidation,
				fmt.Errorf("field %q must be a string", h.key))
		}
		rec.Key = key
		delete(raw, h.key)
	}
	return rec, nil
}

func (h *ResourceHandler) decodePatch(body []byte) (map[string]any, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	// The key comes from the path; an echoed key field in the body is
	// dropped rather than treated as an attempted key change.
	delete(raw, h.key)
	return raw, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	const op = "api.decode"
	if len(body) == 0 {
		return nil, gateway.WrapKind(op, gateway.ErrValidation, fmt.Errorf("empty request body"))
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, gateway.WrapKind(op, gateway.ErrValidation, fmt.Errorf("request body is not a JSON object"))
	}
	return raw, nil
}

func (h *ResourceHandler) renderRecord(rec gateway.Record) map[string]any {
	out := make(map[string]any, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		out[k] = v
	}
	out[h.key] = rec.Key
	return out
}
