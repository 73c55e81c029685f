// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/watch4deal/admin-backend/internal/models"
	"github.com/watch4deal/admin-backend/internal/projection"
	"github.com/watch4deal/admin-backend/internal/store"
	"github.com/watch4deal/admin-backend/internal/utils"
)

// CatalogHandler serves the public storefront reads from its own live
// projections, independent of any admin session.
type CatalogHandler struct {
	projections  map[models.RecordKind]*projection.Projection
	unsubscribes []store.Unsubscribe
}

func NewCatalogHandler(st store.RemoteStore) *CatalogHandler {
	h := &CatalogHandler{
		projections: make(map[models.RecordKind]*projection.Projection),
	}

	for _, kind := range models.Kinds {
		kind := kind
		p := projection.New(kind)
		h.projections[kind] = p

		unsub := st.Subscribe(kind.Collection(),
			func(snap store.Snapshot) { p.OnSnapshot(snap) },
			func(err error) {
				logrus.WithError(err).WithField("kind", kind).Error("Catalog subscription failed")
			},
		)
		h.unsubscribes = append(h.unsubscribes, unsub)
	}
	return h
}

// Close releases the catalog subscriptions.
func (h *CatalogHandler) Close() {
	for _, unsub := range h.unsubscribes {
		unsub()
	}
	h.unsubscribes = nil
}

// GET /watches
func (h *CatalogHandler) GetWatches(c *gin.Context) {
	h.list(c, models.KindWatches)
}

// GET /testimonials
func (h *CatalogHandler) GetTestimonials(c *gin.Context) {
	h.list(c, models.KindTestimonials)
}

func (h *CatalogHandler) list(c *gin.Context, kind models.RecordKind) {
	params := utils.GetPaginationParams(c)
	entries := h.projections[kind].Entries()
	utils.PaginatedResponse(c, utils.PaginateEntries(entries, params))
}
