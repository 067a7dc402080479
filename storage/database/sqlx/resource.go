package sqlxrepos

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/resource"
	"github.com/trezcool/portal/storage/database"
)

type resourceRepository struct {
	repo
	resources Table
}

var _ resource.Repository = (*resourceRepository)(nil)

func NewResourceRepository(exec core.DBExecutor) *resourceRepository {
	return &resourceRepository{
		repo:      repo{exec: exec},
		resources: Table{Name: database.TableResources, NotFound: resource.ErrNotFound},
	}
}

func (r resourceRepository) QueryResources(ctx context.Context, q core.Query, exec ...core.DBExecutor) ([]resource.Resource, error) {
	resources := make([]resource.Resource, 0)
	err := r.resources.Select(ctx, r.getExec(exec), q, &resources)
	return resources, err
}

func (r resourceRepository) CountResources(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.resources.Count(ctx, r.getExec(exec), filter)
}

func (r resourceRepository) GetResource(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (resource.Resource, error) {
	var res resource.Resource
	err := r.resources.Get(ctx, r.getExec(exec), filter, &res)
	return res, err
}

func (r resourceRepository) CreateResource(ctx context.Context, res resource.Resource, exec ...core.DBExecutor) (resource.Resource, error) {
	var created resource.Resource
	err := r.resources.Insert(ctx, r.getExec(exec), res, &created)
	return created, err
}

func (r resourceRepository) DeleteResources(ctx context.Context, filter core.Filter, exec ...core.DBExecutor) (int, error) {
	return r.resources.Delete(ctx, r.getExec(exec), filter)
}
