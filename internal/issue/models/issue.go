package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "stockroom/pkg/domain-errors"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusResolved Status = "Resolved"
)

const maxDescriptionLength = 1024

// AssetIssue records defective units reported against an asset. The
// issue_quantity is the number of units pulled out of available stock when
// the issue was reported, and the number put back if the issue is deleted.
type AssetIssue struct {
	ID            uuid.UUID
	AssetID       uuid.UUID
	IssueType     string
	Description   string
	Priority      string
	IssueQuantity int
	Status        Status
	ReportedBy    string
	UserName      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAssetIssue validates report input. Stock sufficiency is not checked
// here; the store's conditional deduct is the only authority on that.
func NewAssetIssue(id, assetID uuid.UUID, issueType, description, priority string, issueQuantity int, reportedBy, userName string, now time.Time) (*AssetIssue, error) {
	issueType = strings.TrimSpace(issueType)
	if issueType == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "issue type is required")
	}
	if issueQuantity <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "issue_quantity must be positive")
	}
	if len(description) > maxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeBadRequest, "description too long")
	}

	return &AssetIssue{
		ID:            id,
		AssetID:       assetID,
		IssueType:     issueType,
		Description:   description,
		Priority:      normalizePriority(priority),
		IssueQuantity: issueQuantity,
		Status:        StatusPending,
		ReportedBy:    reportedBy,
		UserName:      userName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func normalizePriority(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "high":
		return "High"
	case "low":
		return "Low"
	default:
		return "Medium"
	}
}
