package controller

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifeos/backend/internal/application/usecase/lifestore"
)

const (
	maxImportBytes = 16 << 20
	eventHeartbeat = 25 * time.Second
	eventBuffer    = 16
)

// DataController handles backup, reset and change notification endpoints.
type DataController struct {
	*StoreController
}

// NewDataController creates a new data controller instance.
func NewDataController(stores *StoreController) *DataController {
	return &DataController{StoreController: stores}
}

// Export handles GET /export requests.
func (c *DataController) Export(ctx *gin.Context) {
	store, ok := c.open(ctx)
	if !ok {
		return
	}
	raw, err := store.ExportJSON(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	filename := "lifeos-export-" + time.Now().UTC().Format("2006-01-02") + ".json"
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, "application/json", raw)
}

// Import handles POST /import requests. The body is an export document.
func (c *DataController) Import(ctx *gin.Context) {
	store, ok := c.open(ctx)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		respondBadBody(ctx, err)
		return
	}
	summary, err := store.Import(ctx.Request.Context(), raw)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

// Clear handles DELETE /data requests.
func (c *DataController) Clear(ctx *gin.Context) {
	store, ok := c.open(ctx)
	if !ok {
		return
	}
	if err := store.Clear(ctx.Request.Context()); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Diagnostics handles GET /diagnostics requests.
func (c *DataController) Diagnostics(ctx *gin.Context) {
	store, ok := c.open(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"diagnostics": store.Diagnostics()})
}

// Events handles GET /events requests, streaming change events of the
// caller's store as server-sent events until the client goes away.
func (c *DataController) Events(ctx *gin.Context) {
	store, ok := c.open(ctx)
	if !ok {
		return
	}

	events := make(chan lifestore.ChangeEvent, eventBuffer)
	unsubscribe := store.Subscribe(func(ev lifestore.ChangeEvent) {
		select {
		case events <- ev:
		default:
			// slow reader, drop
		}
	})
	defer unsubscribe()

	heartbeat := time.NewTicker(eventHeartbeat)
	defer heartbeat.Stop()

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Request.Context().Done():
			return false
		case ev := <-events:
			ctx.SSEvent("change", ev)
			return true
		case <-heartbeat.C:
			ctx.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
