package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"felicity/cmd/middleware"
	"felicity/internal/chat"
	"felicity/internal/model"
	"felicity/internal/service"
)

type Routers struct {
	Service   service.Service
	Chat      *chat.Hub
	JWTSecret string
	UploadDir string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	auth := middleware.Authenticate(r.JWTSecret)

	apiGroup := app.Group("/v1")

	apiGroup.POST("/auth/signup", r.Service.Signup)
	apiGroup.POST("/auth/login", r.Service.Login)

	// Participant-facing catalogue and registrations.
	general := apiGroup.Group("", auth)
	general.GET("/auth/role", r.Service.Role)
	general.GET("/events", r.Service.AllEvents)
	general.GET("/events/:id", r.Service.EventDetail)
	general.GET("/events/:id/register", middleware.RequireRole(model.RoleParticipant), r.Service.RegistrationForm)
	general.POST("/events/:id/register", middleware.RequireRole(model.RoleParticipant), r.Service.Register)
	general.GET("/organizers", r.Service.AllOrganizers)
	general.GET("/organizers/:id", r.Service.OrganizerDetail)
	general.POST("/organizers/:id/follow", middleware.RequireRole(model.RoleParticipant), r.Service.Follow)
	general.POST("/organizers/:id/unfollow", middleware.RequireRole(model.RoleParticipant), r.Service.Unfollow)

	profile := apiGroup.Group("/profile", auth, middleware.RequireRole(model.RoleParticipant))
	profile.GET("", r.Service.Profile)
	profile.PATCH("", r.Service.UpdateProfile)
	profile.GET("/registrations", r.Service.MyRegistrations)
	profile.GET("/registrations/:id", r.Service.RegistrationDetail)
	profile.POST("/registrations/:id/cancel", r.Service.CancelRegistration)
	profile.POST("/registrations/:id/proof", r.Service.UploadPaymentProof)
	profile.POST("/password", r.Service.ChangePassword)

	organizer := apiGroup.Group("/organizer", auth, middleware.RequireRole(model.RoleOrganizer))
	organizer.GET("/profile", r.Service.OrganizerProfile)
	organizer.PATCH("/profile", r.Service.UpdateOrganizerProfile)
	organizer.POST("/reset", r.Service.RequestReset)
	organizer.GET("/reset", r.Service.MyResets)
	organizer.GET("/events", r.Service.MyEvents)
	organizer.POST("/events", r.Service.CreateDraft)
	organizer.GET("/events/ongoing", r.Service.OngoingEvents)
	organizer.GET("/events/:id", r.Service.GetEvent)
	organizer.PATCH("/events/:id", r.Service.EditEvent)
	organizer.GET("/events/:id/view", r.Service.ViewEvent)
	organizer.POST("/events/:id/scan", r.Service.ScanTicket)
	organizer.GET("/dashboard", r.Service.Dashboard)
	organizer.GET("/payments", r.Service.PendingPayments)
	organizer.POST("/payments/:id/approve", r.Service.ApprovePayment)
	organizer.POST("/payments/:id/reject", r.Service.RejectPayment)

	admin := apiGroup.Group("/admin", auth, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/organizers", r.Service.AdminOrganizers)
	admin.POST("/organizers", r.Service.AddOrganizer)
	admin.POST("/organizers/:id/suspend", r.Service.SuspendOrganizer)
	admin.POST("/organizers/:id/enable", r.Service.EnableOrganizer)
	admin.DELETE("/organizers/:id", r.Service.RemoveOrganizer)
	admin.GET("/resets", r.Service.ListResets)
	admin.POST("/resets/decide", r.Service.DecideReset)

	app.GET("/ws/:eventId", r.Chat.Handler)
	app.Static("/uploads", r.UploadDir)

	return app
}
