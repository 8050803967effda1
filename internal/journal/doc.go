// Package journal provides a SQLite-backed append-only log of player
// sessions and the anchors they published.
//
// Every anchor a session publishes is journaled with the hard sync that
// produced it, so a session can be replayed: re-applying the journaled
// syncs to the start anchor must reproduce every journaled anchor exactly.
//
// # Logical Ordering
//
//   - Anchors are ordered by the player's seq, never by timestamps
//   - All queries use ORDER BY seq ASC
//   - Session IDs are UUIDv7, so ORDER BY id follows creation order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
