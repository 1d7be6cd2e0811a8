package workflow

import (
	"fmt"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/convert"
	"bitbucket.org/mmdatafocus/ratings_backend/metrics"
	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
	"bitbucket.org/mmdatafocus/ratings_backend/render"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/sirupsen/logrus"
)

// LoadPolicies reads DOCUMENT_KINDS_FILE when set, falling back to the
// built-in policies.
func LoadPolicies() (*config.KindPolicies, error) {
	path := config.DocumentKindsFile()
	if path == "" {
		return config.DefaultKindPolicies(), nil
	}
	return config.LoadKindPolicies(path)
}

// NewPipeline wires the production collaborators: the global database, the
// GCS bucket, LibreOffice and headless Chrome.
func NewPipeline(policies *config.KindPolicies, logger *logrus.Logger, m *metrics.Metrics) (*Pipeline, error) {
	engine, err := render.NewMarkupEngine()
	if err != nil {
		return nil, err
	}
	logo, err := render.LoadLetterhead(config.LetterheadLogoPath())
	if err != nil {
		return nil, err
	}
	if config.GetDB() == nil {
		return nil, fmt.Errorf("database is not connected")
	}

	publisher := &Publisher{}
	if store, err := utils.NewGCSBlobStore(); err != nil {
		logger.WithFields(logrus.Fields{"field": "NewPipeline"}).Warn("blob store disabled: " + err.Error())
	} else {
		publisher.Store = store
	}

	return &Pipeline{
		Assembler: reports.NewAssembler(policies),
		Policies:  policies,
		Converter: convert.NewConverter(engine),
		Publisher: publisher,
		Registry:  &GormRegistry{DB: config.GetDB()},
		Metrics:   m,
		Logger:    logger,
		Render: render.Options{
			AgencyName: config.AgencyName(),
			Timezone:   config.DisplayTimezone(),
			Logo:       logo,
		},
	}, nil
}
