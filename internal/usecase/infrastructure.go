package usecase

import "context"

type ImagesInfra interface {
	UploadProductImage(ctx context.Context, productID string, image ProductImage) (string, error)
	CleanupImages(keys []string)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// TxManager выполняет fn атомарно, если хранилище это поддерживает.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type TokenManager interface {
	Issue(claims TokenClaims) (string, error)
	Parse(token string) (*TokenClaims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
