package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/metrics"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"bitbucket.org/mmdatafocus/ratings_backend/workflow"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// cliUserId is recorded as the creator of documents generated from the CLI.
const cliUserId = 1

// exitCode maps error kinds to distinct process exit codes for scripts.
func exitCode(err error) int {
	switch utils.ErrorKindOf(err) {
	case utils.ErrorKindInvalidRequest:
		return 2
	case utils.ErrorKindNotFound:
		return 3
	case utils.ErrorKindNoRowsFound, utils.ErrorKindNoHistoricalData, utils.ErrorKindEmptyReportData:
		return 4
	case utils.ErrorKindConflict:
		return 5
	default:
		return 1
	}
}

func connect() (*gorm.DB, error) {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("database not initialized (config.GetDB returned nil). Set DB_* env vars")
	}
	return db, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func generateCmd() *cobra.Command {
	var (
		meetingRef string
		companyRef string
		kind       string
		format     string
		requestId  string
		creatorId  int
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Assemble, render, convert, publish and register one document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := connect(); err != nil {
				return err
			}
			logger := config.GetLogger()
			policies, err := workflow.LoadPolicies()
			if err != nil {
				return err
			}
			pipeline, err := workflow.NewPipeline(policies, logger, metrics.New())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			ctx = utils.SetUserIdInContext(ctx, creatorId)
			res, err := pipeline.Generate(ctx, workflow.GenerateRequest{
				MeetingRef:   meetingRef,
				CompanyRef:   companyRef,
				DocumentKind: models.DocumentKind(kind),
				OutputFormat: models.DocumentFormat(format),
				CreatorId:    creatorId,
				RequestId:    requestId,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&meetingRef, "meeting", "m", "", "meeting reference")
	cmd.Flags().StringVarP(&companyRef, "company", "c", "", "company reference (letters, press release, optional rating sheet filter)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "document kind: "+kindNames())
	cmd.Flags().StringVarP(&format, "format", "f", string(models.DocumentFormatDerived), "output format: source or derived")
	cmd.Flags().StringVar(&requestId, "request-id", "", "request id (generated when empty)")
	cmd.Flags().IntVar(&creatorId, "creator", cliUserId, "user id recorded as creator")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline")
	_ = cmd.MarkFlagRequired("meeting")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

type historyOutput struct {
	Meeting   *models.Meeting              `json:"meeting"`
	Previous  *models.HistoricalMeetingRef `json:"previous"`
	Documents []*models.GeneratedDocument  `json:"documents"`
}

func historyCmd() *cobra.Command {
	var meetingRef string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the preceding meeting and the documents registered for a meeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			meeting, err := models.GetMeetingByRef(ctx, db, meetingRef)
			if err != nil {
				return err
			}
			previous, err := models.GetPreviousMeeting(ctx, db, meeting)
			if err != nil {
				return err
			}
			docs, err := models.ListGeneratedDocuments(ctx, db, []int{meeting.ID})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), historyOutput{Meeting: meeting, Previous: previous, Documents: docs})
		},
	}
	cmd.Flags().StringVarP(&meetingRef, "meeting", "m", "", "meeting reference")
	_ = cmd.MarkFlagRequired("meeting")
	return cmd
}

func enqueueCmd() *cobra.Command {
	var (
		meetingRef string
		companyRef string
		kind       string
		format     string
		creatorId  int
	)
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish an asynchronous generation request to Pub/Sub",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := models.ParseDocumentKind(kind)
			if err != nil {
				return err
			}
			f, err := models.ParseDocumentFormat(format)
			if err != nil {
				return err
			}
			if strings.TrimSpace(meetingRef) == "" {
				return fmt.Errorf("%w: meeting reference is required", utils.ErrorInvalidRequest)
			}
			msg := config.DocumentRequestMessage{
				RequestId:    uuid.NewString(),
				MeetingRef:   strings.TrimSpace(meetingRef),
				CompanyRef:   strings.TrimSpace(companyRef),
				DocumentKind: string(k),
				OutputFormat: string(f),
				CreatorId:    creatorId,
				RequestedAt:  time.Now().UTC(),
			}
			messageId, err := config.PublishDocumentRequest(cmd.Context(), msg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"requestId": msg.RequestId, "messageId": messageId})
		},
	}
	cmd.Flags().StringVarP(&meetingRef, "meeting", "m", "", "meeting reference")
	cmd.Flags().StringVarP(&companyRef, "company", "c", "", "company reference")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "document kind: "+kindNames())
	cmd.Flags().StringVarP(&format, "format", "f", string(models.DocumentFormatDerived), "output format: source or derived")
	cmd.Flags().IntVar(&creatorId, "creator", cliUserId, "user id recorded as creator")
	_ = cmd.MarkFlagRequired("meeting")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tables used by the document service",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			if err := models.MigrateTable(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func kindNames() string {
	names := make([]string, 0, len(models.AllDocumentKinds))
	for _, k := range models.AllDocumentKinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
