package notify

import (
	"context"

	"github.com/keyward/core/internal/models"
)

// DestinationStore loads the webhook destinations registered by an account.
type DestinationStore interface {
	GetDestinationsForAccount(ctx context.Context, accountID string) ([]models.WebhookModel, error)
}

// UserStore resolves app-user references for activity records. A missing user
// is reported as (nil, nil), distinct from a store failure.
type UserStore interface {
	GetAppUserByID(ctx context.Context, id string) (*models.AppUserModel, error)
}

// ActivityStore appends to the activity log.
type ActivityStore interface {
	Append(ctx context.Context, entry *models.ActivityModel) error
}
