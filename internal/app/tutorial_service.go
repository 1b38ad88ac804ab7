package app

import (
	"context"
	"fmt"
	"strings"

	"tutorials_api/internal/domain/tutorial"
)

// CreateTutorialInput is the payload accepted by Create.
type CreateTutorialInput struct {
	Title       string
	Description *string
	Published   *bool // nil defaults to false
}

// TutorialService holds the per-operation rules on top of the repository.
// Every request-facing method performs at most one repository call.
type TutorialService struct {
	repo tutorial.Repository
}

func NewTutorialService(repo tutorial.Repository) *TutorialService {
	return &TutorialService{repo: repo}
}

// Create validates the input and stores a new tutorial. An empty title fails
// with tutorial.ErrTitleRequired before storage is touched.
func (s *TutorialService) Create(ctx context.Context, in CreateTutorialInput) (*tutorial.Tutorial, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, tutorial.ErrTitleRequired
	}

	t := &tutorial.Tutorial{
		Title:       in.Title,
		Description: in.Description,
	}
	if in.Published != nil {
		t.Published = *in.Published
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tutorial in repository: %w", err)
	}
	return t, nil
}

// List returns every tutorial whose title contains titleContains, or all of them when it is empty.
func (s *TutorialService) List(ctx context.Context, titleContains string) ([]*tutorial.Tutorial, error) {
	return s.repo.List(ctx, tutorial.Filter{TitleContains: titleContains})
}

// ListPublished returns every published tutorial.
func (s *TutorialService) ListPublished(ctx context.Context) ([]*tutorial.Tutorial, error) {
	return s.repo.List(ctx, tutorial.Filter{PublishedOnly: true})
}

func (s *TutorialService) Get(ctx context.Context, id uint) (*tutorial.Tutorial, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies patch to the tutorial with the given id. Zero affected rows,
// including an empty patch, is reported as tutorial.ErrNotFound.
func (s *TutorialService) Update(ctx context.Context, id uint, patch tutorial.Patch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return tutorial.ErrTitleRequired
	}

	n, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	if n != 1 {
		return tutorial.ErrNotFound
	}
	return nil
}

func (s *TutorialService) Delete(ctx context.Context, id uint) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n != 1 {
		return tutorial.ErrNotFound
	}
	return nil
}

// DeleteAll removes every tutorial and returns how many were removed.
func (s *TutorialService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

// Inventory is a point-in-time row count used by the stats job.
type Inventory struct {
	Stored    int64
	Published int64
}

// Inventory counts stored and published tutorials.
func (s *TutorialService) Inventory(ctx context.Context) (Inventory, error) {
	var inv Inventory
	var err error
	if inv.Stored, err = s.repo.Count(ctx, tutorial.Filter{}); err != nil {
		return Inventory{}, fmt.Errorf("failed to count tutorials: %w", err)
	}
	if inv.Published, err = s.repo.Count(ctx, tutorial.Filter{PublishedOnly: true}); err != nil {
		return Inventory{}, fmt.Errorf("failed to count published tutorials: %w", err)
	}
	return inv, nil
}
