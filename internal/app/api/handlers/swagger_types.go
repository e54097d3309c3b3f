package handlers

import (
	"github.com/m073med011/lms-api/internal/app/service/catalog"
	"github.com/m073med011/lms-api/internal/app/service/checkout"
	"github.com/m073med011/lms-api/internal/app/service/purchase"
	"github.com/m073med011/lms-api/internal/app/service/users"
	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespLogin wraps the token and user returned by register and login.
type RespLogin struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    users.LoginResponse      `json:"data"`
}

// RespUser wraps a single user profile.
type RespUser struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.User              `json:"data"`
}

// RespCourse wraps a single course.
type RespCourse struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Course            `json:"data"`
}

// RespCourseList wraps the paginated catalog listing.
type RespCourseList struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    catalog.ListCoursesResponse `json:"data"`
}

// RespCourseItems wraps a plain list of courses.
type RespCourseItems struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Course          `json:"data"`
}

// RespStudentList wraps the enrolled user ids of a course.
type RespStudentList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []string                 `json:"data"`
}

// RespCheckout wraps the hosted payment page redirect.
type RespCheckout struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    checkout.RedirectTarget  `json:"data"`
}

// RespPurchaseStatus wraps the polled purchase status.
type RespPurchaseStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    map[string]string        `json:"data"`
}

// RespScanPurchases wraps the admin purchase listing.
type RespScanPurchases struct {
	Code    response.APIResponseCode       `json:"code"`
	Message string                         `json:"message"`
	Data    purchase.ScanPurchasesResponse `json:"data"`
}

// RespRevenueStatistics wraps the admin revenue statistics.
type RespRevenueStatistics struct {
	Code    response.APIResponseCode           `json:"code"`
	Message string                             `json:"message"`
	Data    purchase.RevenueStatisticsResponse `json:"data"`
}
