package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/fintrack/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWorkflowRepository implements WorkflowRepository using GORM
type GormWorkflowRepository struct {
	db *gorm.DB
}

// NewGormWorkflowRepository creates a new GormWorkflowRepository
func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

// FindByID finds a workflow by its ID, including steps ordered by index
func (r *GormWorkflowRepository) FindByID(ctx context.Context, id uuid.UUID) (*workflow.Workflow, error) {
	var w workflow.Workflow
	if err := dbFromContext(ctx, r.db).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("workflow_steps.step_index ASC")
		}).
		First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// FindBySubject finds all workflows attached to an aggregate
func (r *GormWorkflowRepository) FindBySubject(ctx context.Context, subjectType string, subjectID uuid.UUID) ([]workflow.Workflow, error) {
	var workflows []workflow.Workflow
	if err := dbFromContext(ctx, r.db).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("workflow_steps.step_index ASC")
		}).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("created_at ASC").
		Find(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

// FindActiveBySubject finds the in-progress workflow for an aggregate
func (r *GormWorkflowRepository) FindActiveBySubject(ctx context.Context, subjectType string, subjectID uuid.UUID) (*workflow.Workflow, error) {
	var w workflow.Workflow
	if err := dbFromContext(ctx, r.db).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("workflow_steps.step_index ASC")
		}).
		Where("subject_type = ? AND subject_id = ? AND status = ?",
			subjectType, subjectID, workflow.WorkflowStatusInProgress).
		First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// FindAll finds all workflows matching the filter
func (r *GormWorkflowRepository) FindAll(ctx context.Context, filter workflow.WorkflowFilter) ([]workflow.Workflow, error) {
	var workflows []workflow.Workflow
	query := r.applyFilter(dbFromContext(ctx, r.db).Model(&workflow.Workflow{}), filter)

	if err := query.
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("workflow_steps.step_index ASC")
		}).
		Find(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

// Save creates or updates a workflow and its steps
func (r *GormWorkflowRepository) Save(ctx context.Context, w *workflow.Workflow) error {
	return dbFromContext(ctx, r.db).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(w).Error
}

// SaveWithLock saves the workflow only if the stored version is older
// than the in-memory one
func (r *GormWorkflowRepository) SaveWithLock(ctx context.Context, w *workflow.Workflow) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		var current workflow.Workflow
		err := tx.Select("version").First(&current, "id = ?", w.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && current.Version >= w.Version {
			return shared.ErrConcurrentModification
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(w).Error
	})
}

// Delete deletes a workflow and its steps
func (r *GormWorkflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&workflow.WorkflowStep{}, "workflow_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&workflow.Workflow{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts workflows matching the filter
func (r *GormWorkflowRepository) Count(ctx context.Context, filter workflow.WorkflowFilter) (int64, error) {
	var count int64
	query := r.applyConditions(dbFromContext(ctx, r.db).Model(&workflow.Workflow{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormWorkflowRepository) applyFilter(query *gorm.DB, filter workflow.WorkflowFilter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

func (r *GormWorkflowRepository) applyConditions(query *gorm.DB, filter workflow.WorkflowFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SubjectType != nil {
		query = query.Where("subject_type = ?", *filter.SubjectType)
	}
	if filter.ApproverID != nil {
		query = query.Where(
			"status = ? AND id IN (SELECT workflow_id FROM workflow_steps WHERE approver_id = ? AND status = ?)",
			workflow.WorkflowStatusInProgress, *filter.ApproverID, workflow.StepStatusPending)
	}
	return query
}

// Ensure GormWorkflowRepository implements WorkflowRepository
var _ workflow.WorkflowRepository = (*GormWorkflowRepository)(nil)
