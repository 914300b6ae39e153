package routes

import (
	"anchor/server/internal/handlers"
	"anchor/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Anchor API is running",
		})
	})

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.StrictRateLimiter(), h.Register)
	auth.Post("/login", middleware.StrictRateLimiter(), h.Login)
	auth.Post("/refresh", middleware.StrictRateLimiter(), h.RefreshToken)
	auth.Post("/logout", middleware.AuthMiddleware, h.Logout)
	auth.Get("/me", middleware.AuthMiddleware, h.GetMe)

	// Child routes (protected)
	children := api.Group("/children", middleware.AuthMiddleware)
	children.Post("/", h.CreateChild)
	children.Get("/", h.GetChildren)
	children.Post("/join", h.JoinChild)
	children.Get("/:childId", h.GetChild)
	children.Put("/:childId", h.UpdateChild)

	// Collaborator routes (protected)
	children.Post("/:childId/collaborators", h.AddCollaborator)
	children.Get("/:childId/collaborators", h.GetCollaborators)
	children.Put("/:childId/collaborators/:userId", h.UpdateCollaboratorRole)
	children.Delete("/:childId/collaborators/:userId", h.RemoveCollaborator)

	// Care record routes (protected, child-scoped)
	children.Post("/:childId/medications", h.CreateMedication)
	children.Get("/:childId/medications", h.GetMedications)
	children.Put("/:childId/medications/:medicationId", h.UpdateMedication)
	children.Delete("/:childId/medications/:medicationId", h.DeleteMedication)

	children.Post("/:childId/appointments", h.CreateAppointment)
	children.Get("/:childId/appointments", h.GetAppointments)
	children.Put("/:childId/appointments/:appointmentId", h.UpdateAppointment)
	children.Delete("/:childId/appointments/:appointmentId", h.DeleteAppointment)

	children.Post("/:childId/todos", h.CreateTodo)
	children.Get("/:childId/todos", h.GetTodos)
	children.Put("/:childId/todos/:todoId", h.UpdateTodo)
	children.Post("/:childId/todos/:todoId/complete", h.CompleteTodo)
	children.Delete("/:childId/todos/:todoId", h.DeleteTodo)

	children.Post("/:childId/notes", h.CreateNote)
	children.Get("/:childId/notes", h.GetNotes)
	children.Put("/:childId/notes/:noteId", h.UpdateNote)
	children.Delete("/:childId/notes/:noteId", h.DeleteNote)

	children.Post("/:childId/questions", h.CreateQuestion)
	children.Get("/:childId/questions", h.GetQuestions)
	children.Post("/:childId/questions/:questionId/answer", h.AnswerQuestion)
	children.Delete("/:childId/questions/:questionId", h.DeleteQuestion)

	children.Post("/:childId/reminders", h.CreateReminder)
	children.Get("/:childId/reminders", h.GetReminders)
	children.Put("/:childId/reminders/:reminderId", h.UpdateReminder)
	children.Post("/:childId/reminders/:reminderId/complete", h.CompleteReminder)
	children.Delete("/:childId/reminders/:reminderId", h.DeleteReminder)

	children.Post("/:childId/contacts", h.CreateCareContact)
	children.Get("/:childId/contacts", h.GetCareContacts)
	children.Put("/:childId/contacts/:contactId", h.UpdateCareContact)
	children.Delete("/:childId/contacts/:contactId", h.DeleteCareContact)

	children.Post("/:childId/medical-data", h.CreateMedicalData)
	children.Get("/:childId/medical-data", h.GetMedicalData)
	children.Delete("/:childId/medical-data/:medicalDataId", h.DeleteMedicalData)

	// Linkable entity picker (protected, child-scoped)
	children.Get("/:childId/linkable/:entityType", h.GetLinkableEntities)

	// Message routes (protected, child-scoped)
	children.Post("/:childId/messages", middleware.MessageRateLimiter(), h.SendMessage)
	children.Get("/:childId/messages", h.GetMessages)
	children.Put("/:childId/messages/:messageId", h.EditMessage)
	children.Delete("/:childId/messages/:messageId", h.DeleteMessage)

	// Upload routes (protected)
	uploads := api.Group("/upload", middleware.AuthMiddleware)
	uploads.Post("/attachment", middleware.UploadRateLimiter(), h.UploadAttachment)
	uploads.Post("/avatar", middleware.UploadRateLimiter(), h.UploadAvatar)

	// Serve uploaded files (public)
	app.Get("/uploads/:type/:filename", h.GetFile)

	// WebSocket route (protected)
	api.Get("/ws", middleware.AuthMiddleware, handlers.WebSocketUpgrade, websocket.New(h.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", middleware.AuthMiddleware, h.GetWebSocketStats)
}
