// Package handlers contains the HTTP entrypoints: the LINE webhook, which
// drives the whole reservation dialogue, and the health endpoint.
package handlers

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"yoyaku/config"
	"yoyaku/services/line"
	"yoyaku/utils"
)

// Webhook returns the LINE webhook endpoint. The signature is validated
// against the raw body before parsing; events are then handled
// concurrently, and the endpoint always acknowledges with 200 once the
// batch is processed so LINE does not redeliver.
func Webhook(dialogue *DialogueHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger().Sugar()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "failed to read request body", err.Error())
			return
		}

		signature := c.GetHeader("X-Line-Signature")
		if !line.ValidateSignature(config.AppConfig.LineChannelSecret, body, signature) {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "signature validation failed")
			return
		}

		req, err := line.ParseWebhook(body)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}

		ctx := c.Request.Context()
		var wg sync.WaitGroup
		for i := range req.Events {
			event := &req.Events[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						logger.Errorw("panic while handling webhook event", "panic", r)
					}
				}()
				if err := dialogue.HandleEvent(ctx, event); err != nil {
					logger.Errorw("failed to handle webhook event",
						"type", event.Type, "userID", event.Source.UserID, "error", err)
				}
			}()
		}
		wg.Wait()

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
