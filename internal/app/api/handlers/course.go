package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/m073med011/lms-api/internal/app/service/catalog"
	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/response"
)

// @Summary      List Courses
// @Description  Pages over the published catalog with optional category and level filters.
// @Tags         Courses
// @Produce      json
// @Param        category query string false "Category filter"
// @Param        level query string false "Level filter"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200  {object}  handlers.RespCourseList
// @Router       /api/v1/courses [get]
func ApiListCourses(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.ListCoursesRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ListPublished(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Course
// @Tags         Courses
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200  {object}  handlers.RespCourse
// @Router       /api/v1/courses/{id} [get]
func ApiGetCourse(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		course, err := svc.GetCourse(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, catalog.ErrCourseNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(course))
	}
}

// @Summary      Create Course
// @Description  Creates a course owned by the authenticated instructor.
// @Tags         Courses
// @Accept       json
// @Produce      json
// @Param        request body catalog.CreateCourseRequest true "Course to create"
// @Success      200  {object}  handlers.RespCourse
// @Router       /api/v1/courses [post]
func ApiCreateCourse(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.CreateCourseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		course, err := svc.CreateCourse(c.Request.Context(), c.GetString("userID"), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(course))
	}
}

// @Summary      Course Students
// @Description  Lists the users enrolled in a course.
// @Tags         Courses
// @Produce      json
// @Param        id path string true "Course ID"
// @Success      200  {object}  handlers.RespStudentList
// @Router       /api/v1/courses/{id}/students [get]
func ApiCourseStudents(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		students, err := svc.StudentsOf(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, catalog.ErrCourseNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		ids := lo.Map(students, func(u models.User, _ int) string { return u.ID })
		c.JSON(http.StatusOK, response.OKT(ids))
	}
}

// @Summary      My Courses
// @Description  Lists the courses the authenticated user owns.
// @Tags         Courses
// @Produce      json
// @Success      200  {object}  handlers.RespCourseItems
// @Router       /api/v1/my/courses [get]
func ApiMyCourses(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.CoursesOf(c.Request.Context(), c.GetString("userID"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(items))
	}
}
