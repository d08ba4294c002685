package middleware

import (
	"context"

	"hr-rag-assistant/internal/audit"
	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/telemetry"
	"hr-rag-assistant/utils"

	"github.com/gin-gonic/gin"
)

const (
	auditActorKey    = "audit_actor"
	auditResourceKey = "audit_resource"
)

// SetAuditActor names the actor for requests that have no admin subject yet (login).
func SetAuditActor(c *gin.Context, actor string) {
	c.Set(auditActorKey, actor)
}

// SetAuditResource names the document or target the handler acted on.
func SetAuditResource(c *gin.Context, resource string) {
	c.Set(auditResourceKey, resource)
}

// AuditMiddleware records one audit event per request once the handler has
// finished. Audit failures are logged and never change the response.
func AuditMiddleware(recorder audit.Recorder, metrics *telemetry.Metrics, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		actor := GetSubject(c)
		if actor == "" {
			actor = c.GetString(auditActorKey)
		}
		resource := c.GetString(auditResourceKey)
		if resource == "" {
			resource = c.Param("filename")
		}

		event := &audit.Event{
			Actor:     actor,
			Action:    action,
			Resource:  resource,
			Success:   c.Writer.Status() < 400,
			Status:    c.Writer.Status(),
			RequestID: GetRequestID(c),
			IPAddress: utils.GetClientIP(c.Request),
			UserAgent: utils.GetUserAgent(c.Request),
		}

		ctx, cancel := utils.WithTimeout(context.WithoutCancel(c.Request.Context()))
		defer cancel()

		if err := recorder.Record(ctx, event); err != nil {
			logger.Error("Failed to record audit event", "action", action, "error", err, "request_id", event.RequestID)
			return
		}
		metrics.RecordAuditEvent(action, event.Success)
	}
}
