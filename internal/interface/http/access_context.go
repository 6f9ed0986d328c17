package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-clock/internal/domain/access"
)

const readingPassKey = "reading_pass"

func setPass(c *gin.Context, pass access.Pass) {
	c.Set(readingPassKey, pass)
}

func getPass(c *gin.Context) (access.Pass, bool) {
	value, ok := c.Get(readingPassKey)
	if !ok {
		return access.Pass{}, false
	}
	pass, ok := value.(access.Pass)
	return pass, ok
}
