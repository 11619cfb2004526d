package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/dbx"
	sc "github.com/clamea-app/server/internal/server/config"
	"github.com/clamea-app/server/internal/server/models"
	"github.com/clamea-app/server/internal/server/repositories/cases"
	"github.com/clamea-app/server/internal/server/repositories/repomanager"
	"github.com/clamea-app/server/internal/server/validation"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// allowedAttachmentExtensions lists the file types accepted as case
// attachments.
var allowedAttachmentExtensions = []string{"pdf", "jpg", "jpeg", "png"}

// CaseService manages insurance claims and their attachments. Attachment
// blobs never pass through the server: clients upload and download directly
// against S3-compatible storage using presigned URLs, while the case row
// tracks the storage keys.
type CaseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewCaseService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *CaseService {
	return &CaseService{db: db, repomanager: m, config: cfg}
}

// Create files a new case for the account.
func (s *CaseService) Create(ctx context.Context, accountID, typeOfInjury string, dateOfIncident time.Time, description string) (*models.Case, error) {
	now := time.Now().UTC()
	c := &models.Case{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		TypeOfInjury:   typeOfInjury,
		DateOfIncident: dateOfIncident,
		Description:    description,
		Files:          []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.repomanager.Cases(s.db).Create(ctx, c)
}

// List returns the account's cases, newest first.
func (s *CaseService) List(ctx context.Context, accountID string) ([]*models.Case, error) {
	return s.repomanager.Cases(s.db).ListByAccount(ctx, accountID)
}

// Get returns one case. A case owned by a different account yields
// ErrorNotFound, the same as an absent one.
func (s *CaseService) Get(ctx context.Context, accountID, caseID string) (*models.Case, error) {
	return s.getOwned(ctx, s.repomanager.Cases(s.db), accountID, caseID)
}

// Update replaces the editable fields of a case.
func (s *CaseService) Update(ctx context.Context, accountID, caseID, typeOfInjury string, dateOfIncident time.Time, description string) (*models.Case, error) {
	var updated *models.Case
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Cases(tx)
		c, err := s.getOwned(ctx, repo, accountID, caseID)
		if err != nil {
			return err
		}
		c.TypeOfInjury = typeOfInjury
		c.DateOfIncident = dateOfIncident
		c.Description = description
		c.UpdatedAt = time.Now().UTC()
		if err := repo.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a case. The attachment blobs stay in object storage; a
// separate retention job reaps unreferenced keys.
func (s *CaseService) Delete(ctx context.Context, accountID, caseID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Cases(tx)
		if _, err := s.getOwned(ctx, repo, accountID, caseID); err != nil {
			return err
		}
		return repo.Delete(ctx, caseID)
	})
}

// AttachmentUploadURL reserves a storage key for a new attachment, records it
// on the case, and returns a presigned PUT URL the client uploads against.
func (s *CaseService) AttachmentUploadURL(ctx context.Context, accountID, caseID, filename string) (string, string, error) {
	var v validation.Errors
	if err := v.FileExtension("file", filename, allowedAttachmentExtensions).ErrorOrNil(); err != nil {
		return "", "", err
	}

	key := attachmentStorageKey(caseID)

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Cases(tx)
		c, err := s.getOwned(ctx, repo, accountID, caseID)
		if err != nil {
			return err
		}
		c.Files = append(c.Files, key)
		c.UpdatedAt = time.Now().UTC()
		return repo.Update(ctx, c)
	}); err != nil {
		return "", "", err
	}

	url, err := s.presignPut(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// AttachmentDownloadURL returns a presigned GET URL for a key recorded on the
// case. Keys the case does not reference yield ErrorNotFound.
func (s *CaseService) AttachmentDownloadURL(ctx context.Context, accountID, caseID, key string) (string, error) {
	c, err := s.getOwned(ctx, s.repomanager.Cases(s.db), accountID, caseID)
	if err != nil {
		return "", err
	}
	var found bool
	for _, f := range c.Files {
		if f == key {
			found = true
			break
		}
	}
	if !found {
		return "", common.ErrorNotFound
	}
	return s.presignGet(ctx, key)
}

func (s *CaseService) getOwned(ctx context.Context, repo cases.Repository, accountID, caseID string) (*models.Case, error) {
	c, err := repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func attachmentStorageKey(caseID string) string {
	d := time.Now()
	return fmt.Sprintf("cases/%s/%d/%d/%d/%v", caseID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *CaseService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *CaseService) presignPut(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}
	bucket := s.config.S3Bucket
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *CaseService) presignGet(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}
	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
