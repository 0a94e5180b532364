// internal/referral/network.go
package referral

import (
	"context"
	"database/sql"

	"trm-match-engine/internal/common/errors"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/models"
)

// Network answers bounded-depth downline queries over the referrals table.
// The graph itself is owned by the platform; this package only reads it.
type Network struct {
	db  *sql.DB
	log logger.Logger
}

func NewNetwork(db *sql.DB, log logger.Logger) *Network {
	return &Network{db: db, log: log}
}

// Downline returns every candidate reachable from referrerID within maxDepth
// referral hops, each tagged with the shortest depth found. The walk is a
// recursive CTE bounded by maxDepth, so referral cycles cannot loop it.
func (n *Network) Downline(ctx context.Context, referrerID string, maxDepth int) ([]models.CandidateRef, error) {
	rows, err := n.db.QueryContext(ctx, `
		WITH RECURSIVE downline AS (
			SELECT r.referred_id, 1 AS depth
			FROM referrals r
			WHERE r.referrer_id = $1
			UNION
			SELECT r.referred_id, d.depth + 1
			FROM referrals r
			JOIN downline d ON r.referrer_id = d.referred_id
			WHERE d.depth < $2
		)
		SELECT referred_id, MIN(depth)
		FROM downline
		GROUP BY referred_id
		ORDER BY MIN(depth), referred_id`, referrerID, maxDepth)
	if err != nil {
		return nil, errors.NewReferralLookupFailedError(referrerID, err)
	}
	defer rows.Close()

	var refs []models.CandidateRef
	for rows.Next() {
		var ref models.CandidateRef
		if err := rows.Scan(&ref.CandidateID, &ref.Depth); err != nil {
			return nil, errors.NewReferralLookupFailedError(referrerID, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewReferralLookupFailedError(referrerID, err)
	}

	n.log.Debug("downline resolved", map[string]interface{}{
		"referrerId": referrerID,
		"maxDepth":   maxDepth,
		"candidates": len(refs),
	})
	return refs, nil
}
