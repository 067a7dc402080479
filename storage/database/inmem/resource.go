package inmemdb

import (
	"context"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/resource"
)

type resourceRepository struct {
	resources *table[resource.Resource]
}

var _ resource.Repository = (*resourceRepository)(nil)

func NewResourceRepository(db *DB) *resourceRepository {
	return &resourceRepository{resources: db.resources}
}

func (r *resourceRepository) QueryResources(_ context.Context, q core.Query, _ ...core.DBExecutor) ([]resource.Resource, error) {
	return r.resources.Select(q), nil
}

func (r *resourceRepository) CountResources(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.resources.Count(filter), nil
}

func (r *resourceRepository) GetResource(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (resource.Resource, error) {
	return r.resources.Get(filter)
}

func (r *resourceRepository) CreateResource(_ context.Context, res resource.Resource, _ ...core.DBExecutor) (resource.Resource, error) {
	return r.resources.Insert(res)
}

func (r *resourceRepository) DeleteResources(_ context.Context, filter core.Filter, _ ...core.DBExecutor) (int, error) {
	return r.resources.Delete(filter), nil
}
