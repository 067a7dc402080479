package resource

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/portal/core"
)

// Kinds
const (
	KindDocument = "document"
	KindLink     = "link"
	KindVideo    = "video"
)

var ErrNotFound = core.NewNotFoundError("resource")

// Resource is a learning material, attached to a course or shared with everyone (nil CourseID).
type Resource struct {
	ID         string    `json:"id" db:"id"`
	CourseID   *string   `json:"course_id" db:"course_id"`
	Title      string    `json:"title" db:"title"`
	Kind       string    `json:"kind" db:"kind"`
	URL        string    `json:"url" db:"url"`
	UploadedBy string    `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

var Columns = []string{"id", "course_id", "title", "kind", "uploaded_by", "created_at"}

type NewResource struct {
	CourseID string `json:"course_id" validate:"omitempty,uuid"`
	Title    string `json:"title" validate:"required,max=200"`
	Kind     string `json:"kind" validate:"omitempty,oneof=document link video"`
	URL      string `json:"url" validate:"required,url"`
}

func (nr *NewResource) Validate(validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Kind = core.CleanString(nr.Kind, true /* lower */)
	nr.URL = core.CleanString(nr.URL)
	return validate.Struct(nr)
}

type (
	Repository interface {
		QueryResources(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]Resource, error)
		CountResources(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
		GetResource(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (Resource, error)
		CreateResource(ctx context.Context, r Resource, exec ...core.DBExecutor) (Resource, error)
		DeleteResources(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, uploaderID string, nr NewResource) (Resource, error) {
	r := Resource{
		ID:         uuid.New().String(),
		Title:      nr.Title,
		Kind:       nr.Kind,
		URL:        nr.URL,
		UploadedBy: uploaderID,
		CreatedAt:  time.Now().UTC(),
	}
	if r.Kind == "" {
		r.Kind = KindDocument
	}
	if nr.CourseID != "" {
		r.CourseID = &nr.CourseID
	}
	return svc.repo.CreateResource(ctx, r)
}

func (svc *Service) Get(ctx context.Context, id string) (Resource, error) {
	return svc.repo.GetResource(ctx, core.Filter{"id": id})
}

func (svc *Service) Query(ctx context.Context, q core.Query) ([]Resource, error) {
	return svc.repo.QueryResources(ctx, q.Only(Columns...))
}

func (svc *Service) Count(ctx context.Context, filter core.Filter) (int, error) {
	return svc.repo.CountResources(ctx, core.Query{Filter: filter}.Only(Columns...).Filter)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteResources(ctx, core.Filter{"id": ids})
}
