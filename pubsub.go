package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"bitbucket.org/mmdatafocus/ratings_backend/workflow"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const documentLockTTL = 10 * time.Minute

type PubSubMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryable reports whether Pub/Sub should redeliver after err. Request and
// data problems are acked; a retry cannot fix them.
func retryable(err error) bool {
	switch utils.ErrorKindOf(err) {
	case utils.ErrorKindNotFound, utils.ErrorKindInvalidRequest, utils.ErrorKindNoRowsFound,
		utils.ErrorKindNoHistoricalData, utils.ErrorKindEmptyReportData, utils.ErrorKindConflict:
		return false
	default:
		return true
	}
}

func (a *app) documentPubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg PubSubMessage
		logger := a.logger

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "pubsub.go", "documentPubSubHandler", "io.ReadAll", nil, err)
			// Malformed request body: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		// byte slice unmarshalling handles base64 decoding.
		if err := json.Unmarshal(body, &msg); err != nil {
			config.LogError(logger, "pubsub.go", "documentPubSubHandler", "Unmarshal body", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		var m config.DocumentRequestMessage
		if err := json.Unmarshal(msg.Message.Data, &m); err != nil {
			config.LogError(logger, "pubsub.go", "documentPubSubHandler", "Unmarshal pubsub message", string(msg.Message.Data), err)
			c.Status(http.StatusNoContent)
			return
		}

		// Basic validation to avoid retry loops on poisoned messages.
		if m.RequestId == "" || m.MeetingRef == "" || m.DocumentKind == "" {
			config.LogError(logger, "pubsub.go", "documentPubSubHandler", "Invalid pubsub message (missing required fields)", m, fmt.Errorf("request_id/meeting_ref/document_kind required"))
			c.Status(http.StatusNoContent)
			return
		}

		correlationID := m.CorrelationId
		if correlationID == "" {
			correlationID = msg.Message.ID
		}
		fields := logrus.Fields{
			"field":          "documentPubSubHandler",
			"request_id":     m.RequestId,
			"meeting_ref":    m.MeetingRef,
			"document_kind":  m.DocumentKind,
			"message_id":     msg.Message.ID,
			"correlation_id": correlationID,
		}

		// Redelivered after a successful run: the registry already has it.
		if existing, err := a.registry.FindByArtifactId(c.Request.Context(), m.RequestId); err == nil && existing != nil {
			logger.WithFields(fields).Info("[docgen.duplicate]")
			c.Status(http.StatusNoContent)
			return
		} else if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
			config.LogError(logger, "pubsub.go", "documentPubSubHandler", "FindByArtifactId", m.RequestId, err)
			c.Status(http.StatusInternalServerError)
			return
		}

		// Best-effort: a concurrent delivery of the same request holds the lock.
		var lock *redislock.Lock
		if a.locker == nil {
			logger.WithFields(fields).Warn("redis lock not ready; proceeding without redis lock")
		} else {
			lock, err = a.locker.Obtain(c.Request.Context(), fmt.Sprintf("lock:docgen:%s", m.RequestId), documentLockTTL, nil)
			if errors.Is(err, redislock.ErrNotObtained) {
				logger.WithFields(fields).Warn("request is being generated by another delivery")
				c.Status(http.StatusConflict)
				return
			} else if err != nil {
				logger.WithFields(fields).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(context.Background()); releaseErr != nil {
				logger.WithFields(fields).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		ctx := utils.SetUserIdInContext(c.Request.Context(), m.CreatorId)
		ctx = utils.SetCorrelationIdInContext(ctx, correlationID)
		_, err = a.pipeline.Generate(ctx, workflow.GenerateRequest{
			MeetingRef:   m.MeetingRef,
			CompanyRef:   m.CompanyRef,
			DocumentKind: models.DocumentKind(m.DocumentKind),
			OutputFormat: models.DocumentFormat(m.OutputFormat),
			CreatorId:    m.CreatorId,
			RequestId:    m.RequestId,
		})
		if err != nil {
			if errors.Is(err, workflow.ErrArtifactAlreadyRegistered) {
				logger.WithFields(fields).Info("[docgen.duplicate]")
				c.Status(http.StatusNoContent)
				return
			}
			if !retryable(err) {
				logger.WithFields(fields).Warn("dropping document request: " + err.Error())
				c.Status(http.StatusNoContent)
				return
			}
			logger.WithFields(fields).Error("pubsub processing failed: " + err.Error())
			// Non-2xx tells Pub/Sub to retry (and potentially route to DLQ).
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
