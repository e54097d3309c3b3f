package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/m073med011/lms-api/internal/app/service/users"
	"github.com/m073med011/lms-api/pkg/response"
)

// @Summary      Register
// @Description  Creates a student or instructor account and returns a signed token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body users.RegisterRequest true "Registration request"
// @Success      200  {object}  handlers.RespLogin
// @Router       /api/v1/auth/register [post]
func ApiRegister(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req users.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		user, err := svc.Register(c.Request.Context(), &req)
		if err != nil {
			if errors.Is(err, users.ErrEmailTaken) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		token, err := svc.IssueToken(user)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&users.LoginResponse{Token: token, User: user}))
	}
}

// @Summary      Login
// @Description  Exchanges email and password for a signed token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body handlers.LoginRequest true "Login request"
// @Success      200  {object}  handlers.RespLogin
// @Router       /api/v1/auth/login [post]
func ApiLogin(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, users.ErrInvalidCredentials) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Current user
// @Description  Returns the authenticated user's profile.
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  handlers.RespUser
// @Router       /api/v1/auth/me [get]
func ApiMe(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Get(c.Request.Context(), c.GetString("userID"))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	}
}

func RegisterAuthRoutes(r gin.IRouter, authed gin.IRouter, svc *users.Service) {
	r.POST("/register", ApiRegister(svc))
	r.POST("/login", ApiLogin(svc))
	authed.GET("/me", ApiMe(svc))
}
