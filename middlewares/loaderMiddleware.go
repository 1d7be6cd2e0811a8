package middlewares

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the registry read path of one request.
type Loaders struct {
	meetingLoader  *dataloader.Loader[string, *models.Meeting]
	documentLoader *dataloader.Loader[int, []*models.GeneratedDocument]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	meetingReader := &meetingReader{db: conn}
	documentReader := &documentReader{db: conn}

	return &Loaders{
		meetingLoader:  dataloader.NewBatchedLoader(meetingReader.getMeetings, dataloader.WithWait[string, *models.Meeting](time.Millisecond)),
		documentLoader: dataloader.NewBatchedLoader(documentReader.GetDocuments, dataloader.WithWait[int, []*models.GeneratedDocument](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := WithLoaders(c.Request.Context(), loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}
