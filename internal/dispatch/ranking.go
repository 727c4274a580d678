package dispatch

import (
	"context"
	"sort"

	"aquaalert.org/aquaalert/internal/storage"
	"aquaalert.org/aquaalert/models"
)

// RankedDeployment pairs a deployment with its computed priority score.
type RankedDeployment struct {
	Deployment *models.Deployment `json:"deployment"`
	Score      int                `json:"score"`
}

// RankActive orders all active deployments by urgency: score descending,
// then start date ascending (older requests first), then ID ascending for
// full determinism. The ranking is recomputed on every call and holds no
// cached state, since priority updates can change scores at any time. It
// is advisory: it does not lock out concurrent lifecycle writes and may
// observe a slightly stale snapshot.
func (c *Controller) RankActive(ctx context.Context) ([]RankedDeployment, error) {
	active, err := c.store.ListDeployments(ctx, storage.Filter{"status": models.DeploymentStatusActive})
	if err != nil {
		return nil, storageErr("list deployments", err)
	}

	ranked := make([]RankedDeployment, 0, len(active))
	for _, d := range active {
		ranked = append(ranked, RankedDeployment{Deployment: d, Score: Score(d)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		di, dj := ranked[i].Deployment, ranked[j].Deployment
		if !di.StartDate.Equal(dj.StartDate) {
			return di.StartDate.Before(dj.StartDate)
		}
		return di.ID < dj.ID
	})

	return ranked, nil
}
