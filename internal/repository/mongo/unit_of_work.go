package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"fitwell/backend/internal/repository"
)

type mongoUnitOfWork struct {
	client *mongo.Client
}

// NewUnitOfWork runs callbacks in a MongoDB session transaction. The server
// must be a replica set or sharded cluster; see RequireTransactions.
func NewUnitOfWork(client *mongo.Client) repository.UnitOfWork {
	return &mongoUnitOfWork{client: client}
}

func (u *mongoUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := u.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
