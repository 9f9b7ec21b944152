// Package products provides the product browser feature for the UI.
package products

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures routes for the products feature.
func SetupRoutes(router chi.Router, h *Handlers) error {
	router.Route("/products", func(r chi.Router) {
		r.Get("/", h.ProductsPage)
		r.Get("/updates", h.ProductsUpdates)

		r.Post("/sort", h.action(h.sort))
		r.Post("/search", h.action(h.search))
		r.Post("/tab", h.action(h.tab))
		r.Post("/mode", h.action(h.mode))

		r.Post("/filters/set", h.action(h.setFilter))
		r.Post("/filters/toggle", h.action(h.toggleFilter))
		r.Post("/filters/bound", h.action(h.setBound))
		r.Post("/filters/rating", h.action(h.setRating))
		r.Post("/filters/remove", h.action(h.removeFilter))
		r.Post("/filters/clear", h.action(h.clearFilters))

		r.Post("/page", h.action(h.page))
		r.Post("/page/next", h.action(h.nextPage))
		r.Post("/page/prev", h.action(h.prevPage))
		r.Post("/size", h.action(h.pageSize))

		r.Post("/select", h.action(h.selectRow))
		r.Post("/select/all", h.action(h.selectAll))
		r.Post("/select/clear", h.action(h.clearSelection))

		r.Post("/resize/start", h.action(h.resizeStart))
		r.Post("/resize/move", h.action(h.resizeMove))
		r.Post("/resize/end", h.action(h.resizeEnd))

		r.Post("/notices/dismiss", h.action(h.dismissNotice))
	})

	return nil
}
