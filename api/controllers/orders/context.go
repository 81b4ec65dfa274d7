package orders

import (
	"net/http"

	"github.com/angelmondragon/wholesale-backend/api/middleware"
	internalorders "github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/pkg/enums"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
)

func viewerFromRequest(r *http.Request) (internalorders.Viewer, error) {
	accountID, err := middleware.CallerID(r.Context())
	if err != nil {
		return internalorders.Viewer{}, err
	}
	return internalorders.Viewer{
		AccountID: accountID,
		Role:      enums.AccountRole(middleware.RoleFromContext(r.Context())),
	}, nil
}

func actorFor(v internalorders.Viewer) *outbox.ActorRef {
	return &outbox.ActorRef{AccountID: v.AccountID, Role: string(v.Role)}
}
