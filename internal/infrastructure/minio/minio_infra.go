package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"

	"github.com/google/uuid"
)

const (
	cleanupAttempts       = 3
	cleanupBackoffMax     = 10 * time.Second
	defaultCleanupTimeout = 30 * time.Second
)

// MinioInfrastructure загружает изображения товаров и в фоне удаляет
// объекты, на которые больше не ссылается ни один товар.
type MinioInfrastructure struct {
	imageRepo      usecase.ImageRepository
	bucket         string
	logger         logger.Logger
	shutdownCtx    context.Context
	uploads        chan struct{} // общий на процесс лимит одновременных PutObject
	cleanups       sync.WaitGroup
	cleanupTimeout time.Duration
	cleanupBackoff time.Duration
}

func NewMinioInfrastructure(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	limit := max(cfg.UploadImagesLimit, 1)
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = defaultCleanupTimeout
	}

	return &MinioInfrastructure{
		imageRepo:      imageRepo,
		bucket:         cfg.BucketName,
		logger:         logger,
		shutdownCtx:    shutdownCtx,
		uploads:        make(chan struct{}, limit),
		cleanupTimeout: cleanupTimeout,
		cleanupBackoff: time.Second,
	}
}

// ObjectKey формирует ключ объекта: products/<id товара>/<uuid>.<расширение>.
func ObjectKey(productID, imageID, ext string) string {
	return fmt.Sprintf("products/%s/%s.%s", productID, imageID, ext)
}

// UploadProductImage кладёт изображение под новым ключом и возвращает этот ключ.
// Ключ всегда новый, поэтому замена картинки не портит кэш браузеров и CDN.
func (m *MinioInfrastructure) UploadProductImage(ctx context.Context, productID string, image usecase.ProductImage) (string, error) {
	const op = "MinioInfrastructure.UploadProductImage"

	if len(image.Data) == 0 {
		return "", e.Wrap(op, e.ErrNoImages)
	}
	ext, err := infrastructure.ImageExtension(image.MimeType, image.Data)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	select {
	case m.uploads <- struct{}{}:
		defer func() { <-m.uploads }()
	case <-ctx.Done():
		return "", e.Wrap(op, ctx.Err())
	}

	imageID := uuid.NewString()
	size := int64(len(image.Data))
	mime := image.MimeType
	key, err := m.imageRepo.Upload(ctx, domain.NewImage(imageID, m.bucket, ObjectKey(productID, imageID, ext), image.Data, &size, &mime))
	if err != nil {
		return "", e.Wrap(op, fmt.Errorf("upload %s: %w", image.Name, err))
	}

	m.logger.Debugf("image %s uploaded for product %s as %s", image.Name, productID, key)
	return key, nil
}

// CleanupImages удаляет объекты в фоне. Вызывающий не ждёт результата.
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}

	m.cleanups.Add(1)
	go func() {
		defer m.cleanups.Done()
		m.cleanup(keys)
	}()
}

func (m *MinioInfrastructure) cleanup(keys []string) {
	const op = "MinioInfrastructure.cleanup"

	ctx, cancel := context.WithTimeout(m.shutdownCtx, m.cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		if err := m.deleteWithRetry(ctx, key); err != nil {
			m.logger.Errorf(e.Wrap(op, err), "orphaned image left in storage, key=%s", key)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (m *MinioInfrastructure) deleteWithRetry(ctx context.Context, key string) error {
	var err error
	for attempt := 0; attempt < cleanupAttempts; attempt++ {
		if err = m.imageRepo.Delete(ctx, key); err == nil {
			return nil
		}
		if attempt == cleanupAttempts-1 {
			break
		}

		select {
		case <-time.After(jitter.ExponentialBackoff(m.cleanupBackoff, cleanupBackoffMax, attempt, jitter.DefaultJitter)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// WaitForCleanup ждёт фоновые удаления, но не дольше ctx.
func (m *MinioInfrastructure) WaitForCleanup(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.cleanups.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", ctx.Err())
	}
}
