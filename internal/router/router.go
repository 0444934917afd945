package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/handler"
	mw "github.com/yahyashhah/ninjaTextAi-sub001/internal/middleware"
)

func New(
	reportH *handler.ReportHandler,
	queueH *handler.QueueHandler,
	templateH *handler.TemplateHandler,
	dashH *handler.DashboardHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	r.Route("/api/v1", func(r chi.Router) {
		// Dashboard
		r.Get("/dashboard", dashH.Dashboard)

		// Templates
		r.Get("/templates", templateH.List)
		r.Post("/templates", templateH.Create)
		r.Get("/templates/{templateId}", templateH.Get)
		r.Put("/templates/{templateId}", templateH.Update)

		// Reports
		r.Post("/reports", reportH.Submit)
		r.Get("/reports/{reportId}", reportH.Get)
		r.Post("/reports/{reportId}/information", reportH.AddInformation)

		// Review queue
		r.Get("/queue", queueH.List)
		r.Post("/queue/{itemId}/actions", queueH.Act)
		r.Get("/stats", queueH.Stats)

		// Admin
		r.Post("/admin/reconcile", queueH.Reconcile)
	})

	return r
}
