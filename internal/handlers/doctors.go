package handlers

import (
	"github.com/gin-gonic/gin"

	"patient-portal/internal/models"
	"patient-portal/internal/utils"
)

// DepartmentsResponse lists the bookable departments in display order.
type DepartmentsResponse struct {
	Departments []models.Department `json:"departments"`
	Default     models.Department   `json:"default"`
}

// GetDepartments returns the fixed department list.
func GetDepartments(c *gin.Context) {
	utils.Success(c, "Departments fetched successfully", DepartmentsResponse{
		Departments: models.Departments(),
		Default:     models.DefaultDepartment(),
	})
}

// GetDoctors lists the mounted directory's doctors for a department. Without
// a department query the form's current department is used.
func (h *AppointmentHandler) GetDoctors(c *gin.Context) {
	ctrl := h.mounted(c)

	department := models.Department(c.Query("department"))
	if department == "" {
		department = ctrl.State().Department
	}
	if !department.Valid() {
		utils.BadRequest(c, "Unknown department: "+string(department))
		return
	}

	utils.Success(c, "Doctors fetched successfully", ctrl.Doctors(department))
}
