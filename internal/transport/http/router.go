package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/core/services"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/db"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"github.com/taskhub/backend/internal/transport/http/handlers"
	httpmw "github.com/taskhub/backend/internal/transport/http/middleware"
	"gorm.io/gorm"
)

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
}

// Background holds the long-running workers the router wires up; main owns
// their goroutines and lifecycle.
type Background struct {
	Scheduler *services.ReminderScheduler
	Sweeper   *services.Sweeper
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) Background {
	// Initialize repositories
	taskRepo := db.NewTaskRepository(cfg.DB, cfg.Logger)
	userRepo := db.NewUserRepository(cfg.DB, cfg.Logger)
	commentRepo := db.NewCommentRepository(cfg.DB, cfg.Logger)
	notificationRepo := db.NewNotificationRepository(cfg.DB, cfg.Logger)
	reminderRepo := db.NewReminderRepository(cfg.DB, cfg.Logger)

	hierarchy := domain.DefaultHierarchy()

	// The task service and the scheduler share one lock table so a reminder
	// fire and a status transition on the same task serialize.
	locks := services.NewKeyedMutex()

	notificationService := services.NewNotificationService(notificationRepo, cfg.Logger)

	scheduler := services.NewReminderScheduler(services.ReminderSchedulerConfig{
		Sink:   notificationService,
		Repo:   reminderRepo,
		Locks:  locks,
		Logger: cfg.Logger,
	})

	taskService := services.NewTaskService(services.TaskServiceConfig{
		TaskRepo:            taskRepo,
		UserRepo:            userRepo,
		CommentRepo:         commentRepo,
		Hierarchy:           hierarchy,
		Scheduler:           scheduler,
		Sink:                notificationService,
		Estimator:           services.NewHeuristicEstimator(),
		ConfidenceThreshold: cfg.Config.Scheduler.ConfidenceThreshold,
		ReminderLeadTime:    cfg.Config.Scheduler.ReminderLeadTime,
		Locks:               locks,
		Logger:              cfg.Logger,
	})

	userService := services.NewUserService(userRepo, hierarchy, notificationService, cfg.Logger)

	sweeper := services.NewSweeper(taskService, cfg.Config.Scheduler.SweepInterval, cfg.Logger)

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Logger)
	userHandler := handlers.NewUserHandler(userService, cfg.Logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, cfg.Logger)
	streamHandler := handlers.NewStreamHandler(notificationService, cfg.Logger)

	// Notification stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/notifications/:userID", websocket.New(streamHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1")

	// User routes. Registration comes from the bot frontend; approval is an
	// admin-side action.
	users := api.Group("/users", httpmw.BotAuth(cfg.Config))
	users.Post("/", userHandler.Register)
	users.Post("/register", userHandler.Register)
	users.Get("/:id", userHandler.GetUser)
	users.Post("/:id/approve", httpmw.AdminAuth(cfg.Config), userHandler.Approve)

	// Task routes
	tasks := api.Group("/tasks", httpmw.BotAuth(cfg.Config))
	tasks.Post("/", taskHandler.CreateTask)
	tasks.Get("/", taskHandler.ListTasks)
	tasks.Get("/:id", taskHandler.GetTask)
	tasks.Post("/:id/transition", taskHandler.Transition)
	tasks.Post("/:id/comments", taskHandler.AddComment)
	tasks.Get("/:id/comments", taskHandler.ListComments)
	tasks.Post("/:id/attachments", taskHandler.AttachFile)

	// Notification routes
	notifications := api.Group("/users/:userID/notifications", httpmw.BotAuth(cfg.Config))
	notifications.Get("/", notificationHandler.List)
	notifications.Get("/stats", notificationHandler.Stats)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)
	notifications.Post("/:id/read", notificationHandler.MarkRead)
	notifications.Delete("/:id", notificationHandler.Delete)

	return Background{Scheduler: scheduler, Sweeper: sweeper}
}
