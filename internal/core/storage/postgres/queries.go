package postgres

// SQL for the event log and rollup bucket maintenance.

const (
	// queryInsertEvent appends an event. ON CONFLICT DO NOTHING returns no
	// rows (sql.ErrNoRows) when the id is already stored; the duplicate
	// signal for idempotent retries. RETURNING retrieves the auto-generated
	// ingest_seq.
	queryInsertEvent = `
		INSERT INTO events (
			id, user_id, anonymous_id, name, properties, occurred_at, ingested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
		RETURNING ingest_seq
	`

	// queryMarkContribution records that an event has contributed to a
	// definition's bucket. The primary key (definition, event_id) makes the
	// bucket increment conditional: zero rows affected means the increment
	// was already applied by an earlier attempt and must be skipped.
	queryMarkContribution = `
		INSERT INTO rollup_contributions (definition, event_id)
		VALUES ($1, $2)
		ON CONFLICT (definition, event_id) DO NOTHING
	`

	// queryUpsertBucket creates a bucket on first contribution or applies an
	// atomic increment. The addition happens inside the statement, so
	// concurrent ingestions incrementing the same bucket never lose updates.
	queryUpsertBucket = `
		INSERT INTO rollup_buckets (
			definition, day, dimension, value, event_count, first_seen_at, updated_at
		)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		ON CONFLICT (definition, day, dimension)
		DO UPDATE SET
			value       = rollup_buckets.value + EXCLUDED.value,
			event_count = rollup_buckets.event_count + 1,
			updated_at  = EXCLUDED.updated_at
	`

	// queryDecrementBucket is the exact inverse of queryUpsertBucket's
	// update arm. Zero rows affected means the bucket is already gone
	// (e.g. a concurrent prune run); callers log and skip.
	queryDecrementBucket = `
		UPDATE rollup_buckets
		SET value = value - $4, event_count = event_count - 1, updated_at = $5
		WHERE definition = $1 AND day = $2 AND dimension = $3
	`

	queryUnmarkContribution = `
		DELETE FROM rollup_contributions WHERE definition = $1 AND event_id = $2
	`

	queryDeleteEventContributions = `
		DELETE FROM rollup_contributions WHERE event_id = $1
	`

	queryDropEmptyBuckets = `
		DELETE FROM rollup_buckets WHERE event_count <= 0
	`

	// querySelectPrunable locks the oldest expired events for this batch.
	// SKIP LOCKED keeps concurrent prune runs and ingestion of new events
	// out of each other's way.
	querySelectPrunable = `
		SELECT id, user_id, anonymous_id, name, properties, occurred_at, ingested_at, ingest_seq
		FROM events
		WHERE occurred_at < $1
		ORDER BY occurred_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	queryDeleteEvent = `DELETE FROM events WHERE id = $1`

	queryListEventsByUser = `
		SELECT id, user_id, anonymous_id, name, properties, occurred_at, ingested_at, ingest_seq
		FROM events
		WHERE user_id = $1
		ORDER BY occurred_at DESC, ingest_seq DESC
		LIMIT $2
	`

	queryListEventsByAnonymous = `
		SELECT id, user_id, anonymous_id, name, properties, occurred_at, ingested_at, ingest_seq
		FROM events
		WHERE anonymous_id = $1
		ORDER BY occurred_at DESC, ingest_seq DESC
		LIMIT $2
	`

	// queryLinkIdentity stitches anonymous history to an authenticated
	// identity. Only events with no user yet are touched, which makes the
	// operation idempotent: a second run matches zero rows.
	queryLinkIdentity = `
		UPDATE events
		SET user_id = $2
		WHERE anonymous_id = $1 AND user_id IS NULL
	`

	// queryDistinctActors reproduces Event.ActorID in SQL: authenticated id
	// wins, otherwise the anonymous id, prefixed so the two namespaces never
	// collide. $2 = '' disables the property filter.
	queryDistinctActors = `
		SELECT DISTINCT
			CASE
				WHEN user_id IS NOT NULL THEN 'user:' || user_id
				ELSE 'anon:' || anonymous_id
			END AS actor
		FROM events
		WHERE name = $1
		  AND ($2 = '' OR properties ->> $2 = $3)
		  AND occurred_at >= $4
		  AND occurred_at < $5
		  AND (user_id IS NOT NULL OR anonymous_id IS NOT NULL)
	`
)

// Read-side SQL over rollup_buckets.
const (
	querySumByDay = `
		SELECT day, SUM(value)
		FROM rollup_buckets
		WHERE definition = $1 AND day >= $2 AND day <= $3
		GROUP BY day
	`

	querySumRange = `
		SELECT COALESCE(SUM(value), 0)
		FROM rollup_buckets
		WHERE definition = $1 AND day >= $2 AND day <= $3
	`

	querySumByDimension = `
		SELECT COALESCE(SUM(value), 0)
		FROM rollup_buckets
		WHERE definition = $1 AND day >= $2 AND day <= $3 AND dimension = $4
	`

	// queryCountRowsByDay counts bucket ROWS per day. For activeUsers this
	// is the distinct-actor count: one row per (day, actor).
	queryCountRowsByDay = `
		SELECT day, COUNT(*)
		FROM rollup_buckets
		WHERE definition = $1 AND day >= $2 AND day <= $3
		GROUP BY day
	`

	queryCountDistinctDimensions = `
		SELECT COUNT(DISTINCT dimension)
		FROM rollup_buckets
		WHERE definition = $1
		  AND day >= $2 AND day <= $3
		  AND ($4 = '' OR dimension LIKE $4 || '%')
	`

	queryTopDimensions = `
		SELECT dimension, SUM(value), SUM(event_count)
		FROM rollup_buckets
		WHERE definition = $1 AND day >= $2 AND day <= $3
		GROUP BY dimension
		ORDER BY SUM(value) DESC, MIN(first_seen_at) ASC
		LIMIT $4
	`
)
