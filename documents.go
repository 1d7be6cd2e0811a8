package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/middlewares"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"bitbucket.org/mmdatafocus/ratings_backend/workflow"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type generator interface {
	Generate(ctx context.Context, req workflow.GenerateRequest) (*workflow.GenerateResult, error)
}

type downloadSigner interface {
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
	SignDownload(ctx context.Context, objectKey string, expires time.Duration) (*utils.SignedDownload, error)
}

type enqueueFunc func(ctx context.Context, msg config.DocumentRequestMessage) (string, error)

// app holds the collaborators of the HTTP handlers.
type app struct {
	pipeline generator
	registry workflow.RegistryStore
	signer   downloadSigner
	enqueue  enqueueFunc
	locker   *redislock.Client
	logger   *logrus.Logger
}

type generateDocumentRequest struct {
	MeetingRef   string `json:"meetingRef"`
	CompanyRef   string `json:"companyRef"`
	DocumentKind string `json:"documentKind"`
	OutputFormat string `json:"outputFormat"`
	RequestId    string `json:"requestId"`
	// Async queues the request on Pub/Sub instead of generating inline.
	Async bool `json:"async"`
}

type meetingDocumentsResponse struct {
	MeetingRef string                      `json:"meetingRef"`
	Documents  []*models.GeneratedDocument `json:"documents"`
}

func statusForError(err error) int {
	switch utils.ErrorKindOf(err) {
	case utils.ErrorKindNotFound:
		return http.StatusNotFound
	case utils.ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case utils.ErrorKindNoRowsFound, utils.ErrorKindNoHistoricalData, utils.ErrorKindEmptyReportData:
		return http.StatusUnprocessableEntity
	case utils.ErrorKindConflict:
		return http.StatusConflict
	case utils.ErrorKindConversionFailed, utils.ErrorKindUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{
		"error": utils.PublicMessage(err),
		"kind":  utils.ErrorKindOf(err),
	})
}

func (a *app) generateDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := middlewares.CtxValue(c.Request.Context())
		if claim == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var body generateDocumentRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		if body.Async {
			a.enqueueDocument(c, claim.ID, body)
			return
		}

		res, err := a.pipeline.Generate(c.Request.Context(), workflow.GenerateRequest{
			MeetingRef:   body.MeetingRef,
			CompanyRef:   body.CompanyRef,
			DocumentKind: models.DocumentKind(body.DocumentKind),
			OutputFormat: models.DocumentFormat(body.OutputFormat),
			CreatorId:    claim.ID,
			RequestId:    body.RequestId,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

func (a *app) enqueueDocument(c *gin.Context, creatorId int, body generateDocumentRequest) {
	if a.enqueue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "asynchronous generation is not configured"})
		return
	}
	kind, err := models.ParseDocumentKind(body.DocumentKind)
	if err != nil {
		respondError(c, err)
		return
	}
	if strings.TrimSpace(body.MeetingRef) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meetingRef is required"})
		return
	}
	requestId := strings.ToLower(strings.TrimSpace(body.RequestId))
	if requestId == "" {
		requestId = uuid.NewString()
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())

	messageId, err := a.enqueue(c.Request.Context(), config.DocumentRequestMessage{
		RequestId:     requestId,
		MeetingRef:    strings.TrimSpace(body.MeetingRef),
		CompanyRef:    strings.TrimSpace(body.CompanyRef),
		DocumentKind:  string(kind),
		OutputFormat:  body.OutputFormat,
		CreatorId:     creatorId,
		RequestedAt:   time.Now().UTC(),
		CorrelationId: correlationId,
	})
	if err != nil {
		config.LogError(a.logger, "documents.go", "enqueueDocument", "PublishDocumentRequest", requestId, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not queue request"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"requestId": requestId, "messageId": messageId})
}

func (a *app) meetingDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := loadMeetingDocuments(c.Request.Context(), c.Param("meetingRef"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// listDocumentsHandler serves GET /api/documents?meetingRef=a&meetingRef=b;
// the per-meeting reads are batched by the request's loaders.
func (a *app) listDocumentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		refs := utils.UniqueSlice(c.QueryArray("meetingRef"))
		if len(refs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "meetingRef is required"})
			return
		}

		results := make([]*meetingDocumentsResponse, len(refs))
		errs := make([]error, len(refs))
		var wg sync.WaitGroup
		for i, ref := range refs {
			wg.Add(1)
			go func(i int, ref string) {
				defer wg.Done()
				results[i], errs[i] = loadMeetingDocuments(c.Request.Context(), ref)
			}(i, ref)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				respondError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"meetings": results})
	}
}

func loadMeetingDocuments(ctx context.Context, meetingRef string) (*meetingDocumentsResponse, error) {
	meeting, err := middlewares.GetMeeting(ctx, strings.TrimSpace(meetingRef))
	if err != nil {
		return nil, err
	}
	docs, err := middlewares.GetMeetingDocuments(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	return &meetingDocumentsResponse{MeetingRef: meeting.Ref, Documents: docs}, nil
}

func (a *app) downloadDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.signer == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "downloads are not configured"})
			return
		}
		doc, err := a.registry.FindByArtifactId(c.Request.Context(), c.Param("artifactId"))
		if err != nil {
			respondError(c, err)
			return
		}
		exists, err := a.signer.ObjectExists(c.Request.Context(), doc.ObjectKey)
		if err != nil {
			config.LogError(a.logger, "documents.go", "downloadDocumentHandler", "ObjectExists", doc.ObjectKey, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not reach storage"})
			return
		}
		if !exists {
			// registered but removed from the bucket out of band
			respondError(c, fmt.Errorf("%w: artifact %s has no stored object", utils.ErrorRecordNotFound, doc.ArtifactId))
			return
		}
		signed, err := a.signer.SignDownload(c.Request.Context(), doc.ObjectKey, config.SignedURLTTL())
		if err != nil {
			config.LogError(a.logger, "documents.go", "downloadDocumentHandler", "SignDownload", doc.ArtifactId, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not sign download"})
			return
		}
		a.logger.WithFields(logrus.Fields{
			"artifactId": doc.ArtifactId,
			"objectKey":  doc.ObjectKey,
		}).Info("[download.sign]")
		c.JSON(http.StatusOK, signed)
	}
}
