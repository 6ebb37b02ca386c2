package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/errors"
	"github.com/sintudecorators/contact-backend/internal/admission"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/types"
)

const contactSuccessMessage = "Thank you! Your inquiry has been submitted successfully."

type ContactHandler struct {
	store    SubmissionWriter
	notifier ConfirmationDispatcher
}

func NewContactHandler(store SubmissionWriter, notifier ConfirmationDispatcher) *ContactHandler {
	return &ContactHandler{store: store, notifier: notifier}
}

// SubmitContactHandler godoc
// @Summary Submit a contact inquiry
// @Description Stores an inquiry the contact pipeline has already validated and normalized, then queues a confirmation email to the submitter.
// @Tags contact
// @Accept json
// @Produce json
// @Param request body types.ContactRequest true "Inquiry"
// @Success 201 {object} types.ContactResponse "Inquiry stored"
// @Failure 400 {object} types.ErrorResponse "Validation failed"
// @Failure 413 {object} types.ErrorResponse "Payload too large"
// @Failure 429 {object} types.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} types.ErrorResponse "Storage failure"
// @Router /contact [post]
func (h *ContactHandler) SubmitContactHandler(c *gin.Context) {
	log := logger.GetLogger()

	sub, ok := admission.SubmissionFrom(c)
	if !ok {
		_ = c.Error(errors.ValidationFailed("Validation failed", "submission missing from request context"))
		return
	}

	if err := h.store.Insert(c.Request.Context(), sub); err != nil {
		_ = c.Error(errors.NewDatabaseError(err, "Failed to submit contact form. Please try again later."))
		return
	}

	log.Infow("Contact submission stored",
		"submission_id", sub.ID,
		"event_type", sub.EventType,
		"email", logger.MaskEmail(sub.Email))

	if h.notifier != nil {
		h.notifier.Dispatch(sub)
	}

	c.JSON(http.StatusCreated, types.ContactResponse{
		Success: true,
		Message: contactSuccessMessage,
		ID:      sub.ID,
	})
}
