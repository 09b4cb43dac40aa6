package webserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sam-Sparxz/Portfolio/src/api/config"
	"github.com/Sam-Sparxz/Portfolio/src/api/notify"
	"github.com/Sam-Sparxz/Portfolio/src/api/types"
	"github.com/Sam-Sparxz/Portfolio/src/logging"
)

const (
	maxBodyBytes = 64 << 10

	defaultListLimit = 25
	maxListLimit     = 100

	receivedReply = "Message received. I will get back to you soon."
)

type submitResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type Messages struct {
	store    MessageStore
	notifier notify.Notifier
}

func NewMessages(store MessageStore, notifier notify.Notifier) Messages {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return Messages{store: store, notifier: notifier}
}

// Create handles POST /api/contact.
func (m Messages) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req types.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			submissions.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Request body too large"})
			return
		}
		submissions.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"detail": "Request body must be a JSON object with name, email, subject and message",
		})
		return
	}

	req.Normalize()
	if errs := validateStruct(req); len(errs) > 0 {
		submissions.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": summarize(errs), "errors": errs})
		return
	}

	// bots get the normal reply and nothing else
	if req.IsSpam() {
		submissions.WithLabelValues("spam").Inc()
		logFor(c).WithField("client", c.ClientIP()).Info("honeypot filled, dropping submission")
		c.JSON(http.StatusOK, submitResponse{OK: true, Message: receivedReply})
		return
	}

	msg := req.ToMessage()
	if err := m.store.Insert(c.Request.Context(), &msg); err != nil {
		submissions.WithLabelValues("error").Inc()
		logFor(c).WithError(err).Error("store contact message")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to store message"})
		return
	}
	submissions.WithLabelValues("stored").Inc()

	if err := m.notifier.Notify(c.Request.Context(), msg); err != nil {
		entry := logFor(c).WithError(err).WithField("message_id", msg.ID)
		if logging.IsTemporary(err) {
			entry.Warn("notification failed, will not retry")
		} else {
			entry.Error("notification failed")
		}
	}

	c.JSON(http.StatusOK, submitResponse{OK: true, Message: receivedReply})
}

// List handles GET /api/messages.
func (m Messages) List(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"detail": "limit must be an integer between 1 and 100",
			"errors": []FieldError{{Field: "limit", Message: "must be an integer between 1 and 100"}},
		})
		return
	}

	msgs, err := m.store.List(c.Request.Context(), limit)
	if err != nil {
		logFor(c).WithError(err).Error("list contact messages")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to read messages"})
		return
	}
	if msgs == nil {
		msgs = []types.ContactMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

func parseLimit(c *gin.Context) (int, bool) {
	raw, present := c.GetQuery("limit")
	if !present {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, false
	}
	return n, true
}

// Health handles GET /api/health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": config.ServiceName})
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, types.ContactMessage) error { return nil }
