// Package view holds the template-rendering collaborator: handlers hand it a
// view name and a data bag and stay ignorant of the template engine.
package view

import "github.com/gin-gonic/gin"

type Renderer interface {
	Render(c *gin.Context, status int, view string, data gin.H)
}

// HTML delegates to gin's HTML renderer; templates are loaded by the server
// at startup.
type HTML struct{}

func (HTML) Render(c *gin.Context, status int, view string, data gin.H) {
	c.HTML(status, view+".html", data)
}
