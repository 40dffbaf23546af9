package api

import (
	"fmt"
	"net/http"

	"gestorfit/personal-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudentHandler exposes roster management to trainers.
type StudentHandler struct {
	studentService service.StudentService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

type AddStudentRequest struct {
	Name     string `json:"nome" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required,min=8"`
}

// AddStudent registers a new (inactive) student under the trainer.
func (h *StudentHandler) AddStudent(c *gin.Context) {
	var req AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	student, err := h.studentService.AddStudent(c.Request.Context(), trainerID, req.Name, req.Email, req.Password)
	if err != nil {
		if err == service.ErrUserAlreadyExists {
			abortWithError(c, http.StatusConflict, "Já existe um usuário com este email")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(student))
}

// ListStudents returns the trainer's roster.
func (h *StudentHandler) ListStudents(c *gin.Context) {
	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	students, err := h.studentService.ListStudents(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if students == nil {
		c.JSON(http.StatusOK, []UserResponse{})
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(students))
}

// ActivateStudent consumes a slot and marks the student active. Capacity and
// duplicate-assignment failures come back with the evaluator's breakdown.
func (h *StudentHandler) ActivateStudent(c *gin.Context) {
	h.setStatus(c, true)
}

// DeactivateStudent marks the student inactive and frees the slot.
func (h *StudentHandler) DeactivateStudent(c *gin.Context) {
	h.setStatus(c, false)
}

func (h *StudentHandler) setStatus(c *gin.Context, activate bool) {
	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	studentID, err := primitive.ObjectIDFromHex(c.Param("studentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do aluno inválido")
		return
	}

	mutate := h.studentService.DeactivateStudent
	if activate {
		mutate = h.studentService.ActivateStudent
	}

	student, err := mutate(c.Request.Context(), trainerID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(student))
}
