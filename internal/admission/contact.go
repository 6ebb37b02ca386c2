package admission

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/types"
)

// SubmissionKey is the context key under which ContactValidation stores the
// normalized *types.Submission.
const SubmissionKey = "admission.submission"

const (
	minNameLength    = 2
	maxNameLength    = 100
	maxMessageLength = 2000
)

// ContactValidation checks and normalizes a contact form body. On success
// the handler reads the result with SubmissionFrom; the request body itself
// is left untouched.
func ContactValidation(bodyLimit int64) Stage {
	return NewStage("contact_validation", func(c *gin.Context) *Rejection {
		raw, err := readBody(c)
		if err != nil {
			return bodyRejection(err, bodyLimit)
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return requiredFieldsMissing()
		}

		var req types.ContactRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return Reject(http.StatusBadRequest, "Invalid input",
					"Field "+typeErr.Field+" has an invalid type.")
			}
			return bodyRejection(err, bodyLimit)
		}

		sub, rej := normalizeContact(&req)
		if rej != nil {
			return rej
		}
		c.Set(SubmissionKey, sub)
		return nil
	})
}

// SubmissionFrom returns the submission validated for this request.
func SubmissionFrom(c *gin.Context) (*types.Submission, bool) {
	v, ok := c.Get(SubmissionKey)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*types.Submission)
	return sub, ok
}

func requiredFieldsMissing() *Rejection {
	return Reject(http.StatusBadRequest, "Validation failed",
		"Full name, email, and event type are required.")
}

func normalizeContact(req *types.ContactRequest) (*types.Submission, *Rejection) {
	if strings.TrimSpace(req.FullName) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.EventType) == "" {
		return nil, requiredFieldsMissing()
	}

	sub := &types.Submission{}

	sub.FullName = Sanitize(req.FullName)
	if n := utf8.RuneCountInString(sub.FullName); n < minNameLength || n > maxNameLength {
		return nil, Reject(http.StatusBadRequest, "Invalid input",
			"Full name must be between 2 and 100 characters.")
	}

	sub.Email = strings.ToLower(Sanitize(req.Email))
	if !ValidEmail(sub.Email) {
		return nil, Reject(http.StatusBadRequest, "Invalid email",
			"Please provide a valid email address.")
	}

	if phone := Sanitize(req.Phone); phone != "" {
		if !ValidPhone(phone) {
			return nil, Reject(http.StatusBadRequest, "Invalid phone",
				"Please provide a valid phone number.")
		}
		sub.Phone = &phone
	}

	sub.EventType = types.EventType(strings.ToLower(strings.TrimSpace(req.EventType)))
	if !sub.EventType.Valid() {
		return nil, Reject(http.StatusBadRequest, "Invalid event type",
			"Please select a valid event type.")
	}

	if date := strings.TrimSpace(req.EventDate); date != "" {
		parsed, ok := ParseEventDate(date)
		if !ok {
			return nil, Reject(http.StatusBadRequest, "Invalid date",
				"Please provide a valid event date.")
		}
		sub.EventDate = &parsed
	}

	count, provided, valid := ParseGuestCount(req.GuestCount)
	if !valid {
		return nil, Reject(http.StatusBadRequest, "Invalid guest count",
			"Guest count must be between 1 and 10,000.")
	}
	if provided {
		sub.GuestCount = &count
	}

	if msg := Sanitize(req.Message); msg != "" {
		if utf8.RuneCountInString(msg) > maxMessageLength {
			return nil, Reject(http.StatusBadRequest, "Invalid message",
				"Message must not exceed 2000 characters.")
		}
		sub.Message = &msg
	}

	return sub, nil
}
