package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Tharun-Kumar-228/portfolio/internal/mailer"
)

// handleContact validates a contact form post, stores it, then delivers it.
// HTMX swaps the returned fragment into the form, so every outcome is a 200.
func (app *application) handleContact(c *gin.Context) {
	msg := mailer.Message{
		Name:  c.PostForm("fullName"),
		Email: c.PostForm("email"),
		Body:  c.PostForm("message"),
		To:    app.contactTo,
	}

	if err := msg.Validate(); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please check the form: " + strings.TrimPrefix(err.Error(), mailer.ErrInvalidInput.Error()+": "),
		})
		return
	}

	log := app.log.WithField("from", app.hashIP(c.ClientIP()))
	ctx := c.Request.Context()

	id, err := app.store.SaveContactMessage(ctx, msg.Name, msg.Email, msg.Body)
	if err != nil {
		log.WithError(err).Error("store contact message")
		id = uuid.Nil
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	sendErr := app.sender.Send(sendCtx, msg)

	if id != uuid.Nil {
		if err := app.store.MarkDelivery(ctx, id, sendErr); err != nil {
			log.WithError(err).Warn("mark contact message delivery")
		}
	}

	if sendErr != nil {
		log.WithError(sendErr).Error("send contact message")
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": ContactFailure,
		})
		return
	}

	log.WithField("message_id", id.String()).Info("contact message sent")
	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": ContactSuccess,
	})
}
