// Package api serves the display's REST interface.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is a failed request. Fields carries per-field validation tags.
type APIError struct {
	Code    int
	Message string
	Fields  map[string]string
}

func errorf(code int, msg string) *APIError {
	return &APIError{Code: code, Message: msg}
}

// HandlerFunc returns the response body or an error.
type HandlerFunc func(c *gin.Context) (any, *APIError)

// Resolve adapts h to gin.
func Resolve(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, apiErr := h(c)
		if apiErr != nil {
			body := gin.H{"error": apiErr.Message}
			if len(apiErr.Fields) > 0 {
				body["fields"] = apiErr.Fields
			}
			c.JSON(apiErr.Code, body)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// Controller is a route group whose handlers go through Resolve.
type Controller struct {
	group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFunc) {
	c.group.GET(path, Resolve(h))
}

func (c *Controller) POST(path string, h HandlerFunc) {
	c.group.POST(path, Resolve(h))
}

func (c *Controller) PUT(path string, h HandlerFunc) {
	c.group.PUT(path, Resolve(h))
}

// Module attaches a set of endpoints to a Controller.
type Module interface {
	Mount(c *Controller)
}

// ModuleFunc lets a plain function act as a Module.
type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// MountGroup mounts modules under prefix.
func MountGroup(r gin.IRouter, prefix string, modules ...Module) {
	ctl := &Controller{group: r.Group(prefix)}
	for _, m := range modules {
		m.Mount(ctl)
	}
}
