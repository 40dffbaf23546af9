package api

import (
	"net/http"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler onto the router. Route groups follow the
// caller's role: /api/personal for trainers, /api/admin for admins, and
// /api/renovacao and /api/notificacoes shared between them.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	entitlementService service.EntitlementService,
	studentService service.StudentService,
	planService service.PlanService,
	migrationService service.MigrationService,
	renewalService service.RenewalService,
	notificationService service.NotificationService,
) {
	authHandler := NewAuthHandler(authService)
	entitlementHandler := NewEntitlementHandler(entitlementService)
	studentHandler := NewStudentHandler(studentService)
	adminHandler := NewAdminHandler(planService, migrationService)
	renewalHandler := NewRenewalHandler(renewalService)
	notificationHandler := NewNotificationHandler(notificationService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Falha ao ler identificador do token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Trainer routes ---
		trainerGroup := protected.Group("/personal")
		trainerGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerGroup.GET("/can-activate/:quantidade", entitlementHandler.CanActivate)
			trainerGroup.GET("/meu-plano", entitlementHandler.MyPlan)
			trainerGroup.GET("/vagas", entitlementHandler.ListAssignments)

			trainerGroup.POST("/alunos", studentHandler.AddStudent)
			trainerGroup.GET("/alunos", studentHandler.ListStudents)
			trainerGroup.POST("/alunos/:studentId/ativar", studentHandler.ActivateStudent)
			trainerGroup.POST("/alunos/:studentId/desativar", studentHandler.DeactivateStudent)
		}

		tokenGroup := protected.Group("/tokens")
		tokenGroup.Use(RoleMiddleware(domain.RoleTrainer, domain.RoleAdmin))
		{
			tokenGroup.GET("/student/:studentId", entitlementHandler.StudentAssignment)
		}

		// --- Renewal workflow ---
		renewalGroup := protected.Group("/renovacao")
		{
			trainerRenewal := renewalGroup.Group("")
			trainerRenewal.Use(RoleMiddleware(domain.RoleTrainer))
			{
				trainerRenewal.POST("", renewalHandler.Create)
				trainerRenewal.GET("/minhas", renewalHandler.ListMine)
				trainerRenewal.POST("/:requestId/comprovante/link", renewalHandler.SubmitProofLink)
				trainerRenewal.POST("/:requestId/comprovante/upload", renewalHandler.RequestProofUpload)
				trainerRenewal.POST("/:requestId/comprovante/confirmar", renewalHandler.ConfirmProofUpload)
			}
		}

		// --- Notifications (any authenticated user) ---
		notificationGroup := protected.Group("/notificacoes")
		{
			notificationGroup.GET("", notificationHandler.List)
			notificationGroup.POST("/:notificationId/lida", notificationHandler.MarkRead)
		}

		// --- Admin routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.POST("/planos", adminHandler.CreatePlan)
			adminGroup.GET("/planos", adminHandler.ListPlans)
			adminGroup.PUT("/planos/:planId", adminHandler.UpdatePlan)
			adminGroup.DELETE("/planos/:planId", adminHandler.DeactivatePlan)
			adminGroup.POST("/planos/assign", adminHandler.AssignPlan)

			adminGroup.POST("/tokens", adminHandler.GrantToken)
			adminGroup.GET("/tokens/:tokenId", adminHandler.GetToken)
			adminGroup.GET("/personal/:trainerId/tokens", adminHandler.ListTrainerTokens)

			adminGroup.GET("/renovacoes", renewalHandler.ListByStatus)
			adminGroup.GET("/renovacoes/:requestId/comprovante", renewalHandler.ProofDownload)
			adminGroup.POST("/renovacoes/:requestId/link", renewalHandler.AttachPaymentLink)
			adminGroup.POST("/renovacoes/:requestId/aprovar", renewalHandler.Approve)
			adminGroup.POST("/renovacoes/:requestId/rejeitar", renewalHandler.Reject)

			adminGroup.POST("/migracao", adminHandler.RunMigration)
		}
	}
}
