package main

import (
	"errors"
	"net/http"

	"github.com/fpang/meme-magic/internal/feed"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/fpang/meme-magic/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps an operation error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, studio.ErrAlreadyPending),
		errors.Is(err, studio.ErrBusy),
		errors.Is(err, studio.ErrStale):
		return http.StatusConflict
	case errors.Is(err, studio.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrNotFound):
		return http.StatusNotFound
	}

	var me *meme.Error
	if !errors.As(err, &me) {
		return http.StatusInternalServerError
	}
	switch me.Kind {
	case meme.KindValidation:
		return http.StatusBadRequest
	case meme.KindDecode:
		return http.StatusUnprocessableEntity
	case meme.KindService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the user-facing message of err with its mapped status.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": meme.UserMessage(err, err.Error())})
}

func httpError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
