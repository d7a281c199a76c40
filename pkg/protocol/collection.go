package protocol

import "context"

// CollectionResolver maps a collection name to its identifier within a tenant.
type CollectionResolver interface {
	ResolveCollectionID(ctx context.Context, tenantID, collectionName string) (string, error)
}
