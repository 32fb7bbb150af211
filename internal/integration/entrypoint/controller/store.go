package controller

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/lifeos/backend/internal/application/usecase/lifestore"
)

// StoreOp runs one store operation for a request and returns the value to
// answer with.
type StoreOp func(s *lifestore.Store, ctx *gin.Context) (interface{}, error)

// StoreController serves the entity store of the authenticated user.
// Payloads are decoded into the validation schemas and checked by the store.
type StoreController struct {
	stores *lifestore.UserStores
}

// NewStoreController creates a new store controller instance.
func NewStoreController(stores *lifestore.UserStores) *StoreController {
	return &StoreController{stores: stores}
}

// Handle wraps op into a handler answering status on success. A nil result
// answers with no body.
func (c *StoreController) Handle(op StoreOp, status int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		store, ok := c.open(ctx)
		if !ok {
			return
		}
		result, err := op(store, ctx)
		if err != nil {
			if bad, ok := err.(badBody); ok {
				respondBadBody(ctx, bad.err)
				return
			}
			respondError(ctx, err)
			return
		}
		if result == nil {
			ctx.Status(status)
			return
		}
		ctx.JSON(status, result)
	}
}

// open resolves the store of the caller, answering the request when it fails.
func (c *StoreController) open(ctx *gin.Context) (*lifestore.Store, bool) {
	userID, ok := requireUser(ctx)
	if !ok {
		return nil, false
	}
	store, err := c.stores.Open(userID)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	return store, true
}

// badBody marks a request body that could not be decoded.
type badBody struct{ err error }

func (b badBody) Error() string { return b.err.Error() }

// bind decodes the JSON body into a value of T. An empty body decodes to
// the zero value.
func bind[T any](ctx *gin.Context) (T, error) {
	var in T
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return in, nil
	}
	if err := ctx.ShouldBindJSON(&in); err != nil {
		return in, badBody{err}
	}
	return in, nil
}

// Read adapts a store read without arguments.
func Read[R any](fn func(*lifestore.Store, context.Context) (R, error)) StoreOp {
	return func(s *lifestore.Store, ctx *gin.Context) (interface{}, error) {
		return fn(s, ctx.Request.Context())
	}
}

// ByID adapts a store operation on the record named by the :id parameter.
func ByID[R any](fn func(*lifestore.Store, context.Context, string) (R, error)) StoreOp {
	return func(s *lifestore.Store, ctx *gin.Context) (interface{}, error) {
		return fn(s, ctx.Request.Context(), ctx.Param("id"))
	}
}

// WithBody adapts a store operation taking a decoded payload.
func WithBody[In, R any](fn func(*lifestore.Store, context.Context, In) (R, error)) StoreOp {
	return func(s *lifestore.Store, ctx *gin.Context) (interface{}, error) {
		in, err := bind[In](ctx)
		if err != nil {
			return nil, err
		}
		return fn(s, ctx.Request.Context(), in)
	}
}

// ByIDWithBody adapts a store operation on the :id record taking a payload.
func ByIDWithBody[In, R any](fn func(*lifestore.Store, context.Context, string, In) (R, error)) StoreOp {
	return func(s *lifestore.Store, ctx *gin.Context) (interface{}, error) {
		in, err := bind[In](ctx)
		if err != nil {
			return nil, err
		}
		return fn(s, ctx.Request.Context(), ctx.Param("id"), in)
	}
}

// Remove adapts a store delete of the :id record.
func Remove(fn func(*lifestore.Store, context.Context, string) error) StoreOp {
	return func(s *lifestore.Store, ctx *gin.Context) (interface{}, error) {
		return nil, fn(s, ctx.Request.Context(), ctx.Param("id"))
	}
}

// ToggleMilestone handles POST /goals/:id/milestones/:milestoneId/toggle.
func ToggleMilestone(s *lifestore.Store, ctx *gin.Context) (interface{}, error) {
	return s.ToggleMilestone(ctx.Request.Context(), ctx.Param("id"), ctx.Param("milestoneId"))
}

// RefreshSkillDecay handles POST /skills/decay.
func RefreshSkillDecay(s *lifestore.Store, ctx *gin.Context) (interface{}, error) {
	n, err := s.RefreshSkillDecay(ctx.Request.Context())
	if err != nil {
		return nil, err
	}
	return gin.H{"decayed": n}, nil
}
