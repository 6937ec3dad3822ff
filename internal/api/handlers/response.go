package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/autopo-py/planner-go/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func errorResponse(c *gin.Context, statusCode int, message string) {
	if statusCode >= http.StatusInternalServerError {
		log.Error().Str("path", c.FullPath()).Msg(message)
	}
	c.JSON(statusCode, gin.H{"error": message})
}

// sessionError maps store errors; anything but ErrNotFound is a server fault.
func sessionError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		errorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	errorResponse(c, http.StatusInternalServerError, err.Error())
}
