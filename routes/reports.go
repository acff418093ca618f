package routes

import (
	"alternanceetmoi.fr/reports/controllers"
	"github.com/gofiber/fiber/v2"
)

// RegisterReportRoutes expects a group that already requires a session.
func RegisterReportRoutes(g fiber.Router) {
	g.Get("", controllers.GetReports).Name("reports.index")
	g.Get("/export", controllers.ExportReports).Name("reports.export")
	g.Get("/new", controllers.NewReportForm).Name("reports.new")
	g.Post("/new", controllers.CreateReport).Name("reports.create")
	g.Get("/:id<guid>/edit", controllers.EditReportForm).Name("reports.edit")
	g.Post("/:id<guid>/edit", controllers.UpdateReport).Name("reports.update")
	g.Post("/:id<guid>/delete", controllers.DeleteReport).Name("reports.delete")
	g.Post("/:id<guid>/attachments/:index<int>/delete", controllers.DeleteReportAttachment).Name("reports.attachments.delete")
}
