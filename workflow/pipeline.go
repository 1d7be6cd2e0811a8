package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/convert"
	"bitbucket.org/mmdatafocus/ratings_backend/metrics"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
	"bitbucket.org/mmdatafocus/ratings_backend/render"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("ratings-docgen")

type GenerateRequest struct {
	MeetingRef   string                `json:"meetingRef" validate:"required,max=100"`
	CompanyRef   string                `json:"companyRef" validate:"max=100"`
	DocumentKind models.DocumentKind   `json:"documentKind" validate:"required"`
	OutputFormat models.DocumentFormat `json:"outputFormat"`
	CreatorId    int                   `json:"creatorId" validate:"gt=0"`
	// RequestId tags the scratch directory, the object key and the registry
	// row. A uuid is generated when empty.
	RequestId string `json:"requestId" validate:"max=64"`
}

type GenerateResult struct {
	ArtifactAddress string          `json:"artifactAddress"`
	RegistryId      int             `json:"registryId"`
	ArtifactId      string          `json:"artifactId"`
	ObjectKey       string          `json:"objectKey"`
	FileType        models.FileType `json:"fileType"`
}

type ReportAssembler interface {
	Assemble(ctx context.Context, req reports.AssembleRequest) (*reports.ReportData, error)
}

type DocumentConverter interface {
	Convert(ctx context.Context, requestId string, doc *render.Document, format models.DocumentFormat) (*convert.Artifact, error)
}

// Pipeline runs assemble, render, convert, publish and register in order and
// stops at the first failure. Nothing is registered unless the upload
// succeeded.
type Pipeline struct {
	Assembler ReportAssembler
	Policies  reports.PolicySource
	Converter DocumentConverter
	Publisher *Publisher
	Registry  RegistryStore
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
	Render    render.Options
}

func (p *Pipeline) logger() *logrus.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return config.GetLogger()
}

func (p *Pipeline) normalize(req *GenerateRequest) error {
	req.MeetingRef = strings.TrimSpace(req.MeetingRef)
	req.CompanyRef = strings.TrimSpace(req.CompanyRef)
	req.RequestId = strings.TrimSpace(req.RequestId)
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	kind, err := models.ParseDocumentKind(string(req.DocumentKind))
	if err != nil {
		return err
	}
	req.DocumentKind = kind
	format, err := models.ParseDocumentFormat(string(req.OutputFormat))
	if err != nil {
		return err
	}
	req.OutputFormat = format
	if req.RequestId == "" {
		req.RequestId = uuid.NewString()
	}
	if utils.SanitizeSegment(req.RequestId) != strings.ToLower(req.RequestId) {
		return fmt.Errorf("%w: request id may only contain letters, digits, '-' and '_'", utils.ErrorInvalidRequest)
	}
	req.RequestId = strings.ToLower(req.RequestId)
	return nil
}

func (p *Pipeline) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "docgen."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(utils.ErrorKindOf(err)))
		return err
	}
	return nil
}

func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) (result *GenerateResult, err error) {
	started := time.Now()
	logger := p.logger()

	if err := p.normalize(&req); err != nil {
		p.Metrics.ObserveGeneration(string(req.DocumentKind), string(req.OutputFormat), string(utils.ErrorKindOf(err)), time.Since(started))
		return nil, err
	}
	ctx = utils.SetRequestIdInContext(ctx, req.RequestId)
	ctx, span := tracer.Start(ctx, "docgen.generate", trace.WithAttributes(
		attribute.String("docgen.request_id", req.RequestId),
		attribute.String("docgen.meeting_ref", req.MeetingRef),
		attribute.String("docgen.kind", string(req.DocumentKind)),
		attribute.String("docgen.format", string(req.OutputFormat)),
	))
	defer span.End()

	fields := logrus.Fields{
		"requestId":  req.RequestId,
		"meetingRef": req.MeetingRef,
		"companyRef": req.CompanyRef,
		"kind":       req.DocumentKind,
		"format":     req.OutputFormat,
	}
	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = string(utils.ErrorKindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
			config.LogError(logger, "workflow", "Pipeline.Generate", status, fields, err)
		}
		p.Metrics.ObserveGeneration(string(req.DocumentKind), string(req.OutputFormat), status, time.Since(started))
	}()

	policy, ok := p.Policies.Policy(string(req.DocumentKind))
	if !ok {
		return nil, fmt.Errorf("%w: no policy for document kind %q", utils.ErrorInvalidRequest, req.DocumentKind)
	}

	// A registered artifact id is never generated again, so its object is
	// never rewritten.
	if existing, err := p.Registry.FindByArtifactId(ctx, req.RequestId); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %w: %s", utils.ErrorArtifactExists, ErrArtifactAlreadyRegistered, req.RequestId)
	} else if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, fmt.Errorf("registry lookup %s: %w", req.RequestId, err)
	}

	var data *reports.ReportData
	if err := p.step(ctx, "assemble", func(ctx context.Context) error {
		var err error
		data, err = p.Assembler.Assemble(ctx, reports.AssembleRequest{
			MeetingRef: req.MeetingRef,
			CompanyRef: req.CompanyRef,
			Kind:       req.DocumentKind,
		})
		return err
	}); err != nil {
		return nil, err
	}

	var doc *render.Document
	if err := p.step(ctx, "render", func(ctx context.Context) error {
		var err error
		doc, err = render.Render(data, policy, p.Render)
		return err
	}); err != nil {
		return nil, err
	}

	var artifact *convert.Artifact
	if err := p.step(ctx, "convert", func(ctx context.Context) error {
		var err error
		artifact, err = p.Converter.Convert(ctx, req.RequestId, doc, req.OutputFormat)
		return err
	}); err != nil {
		return nil, err
	}

	objectKey := ObjectKey(data.Meeting.Ref, req.DocumentKind, req.RequestId, artifact.FileType)
	var address string
	if err := p.step(ctx, "publish", func(ctx context.Context) error {
		var err error
		address, err = p.Publisher.Publish(ctx, objectKey, artifact.Data, artifact.FileType)
		return err
	}); err != nil {
		return nil, err
	}
	p.Metrics.ObserveArtifact(string(req.DocumentKind), string(req.OutputFormat), len(artifact.Data))

	record := &models.GeneratedDocument{
		ArtifactId:     req.RequestId,
		MeetingId:      data.Meeting.ID,
		DocumentKind:   req.DocumentKind,
		DocumentFormat: req.OutputFormat,
		FileType:       artifact.FileType,
		ObjectKey:      objectKey,
		StorageUrl:     address,
		CreatedBy:      req.CreatorId,
	}
	if data.Company != nil {
		companyId := data.Company.ID
		record.CompanyId = &companyId
	}
	if err := p.step(ctx, "register", func(ctx context.Context) error {
		if err := p.Registry.Create(ctx, record); err != nil {
			if errors.Is(err, utils.ErrorRegistryWriteFailed) {
				return err
			}
			return fmt.Errorf("%w: %w", utils.ErrorRegistryWriteFailed, err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	logger.WithFields(fields).WithFields(logrus.Fields{
		"registryId": record.ID,
		"objectKey":  objectKey,
		"bytes":      len(artifact.Data),
		"elapsedMs":  time.Since(started).Milliseconds(),
	}).Info("[docgen.published]")

	return &GenerateResult{
		ArtifactAddress: address,
		RegistryId:      record.ID,
		ArtifactId:      record.ArtifactId,
		ObjectKey:       objectKey,
		FileType:        artifact.FileType,
	}, nil
}
