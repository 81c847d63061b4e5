package cases

// BalanceSelectSQL computes the live balance of a money case: the sum of
// attributed collections that are not yet part of any recolte, minus the sum
// of attributed expenses that were not rejected. Collections keep their
// case_id after batching, so exclusion goes through the join table.
const BalanceSelectSQL = `
SELECT COALESCE((
    SELECT SUM(c.amount) FROM collections c
    WHERE c.case_id = $1
      AND NOT EXISTS (SELECT 1 FROM recolte_collections rc WHERE rc.collection_id = c.id)
), 0) - COALESCE((
    SELECT SUM(e.amount) FROM expenses e
    WHERE e.case_id = $1 AND e.status <> 'rejected'
), 0)`

// SnapshotUpdateSQL persists the derived balance into the cached column.
// Repositories in other packages run this inside their own transactions
// whenever a mutation touches a case, so the snapshot can never be forgotten
// by a caller.
const SnapshotUpdateSQL = `
UPDATE money_cases SET balance = (` + BalanceSelectSQL + `), updated_at = NOW()
WHERE id = $1
RETURNING balance`
