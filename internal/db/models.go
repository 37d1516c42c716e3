// Package db provides SQLite persistence for reader settings and reading progress.
package db

import "time"

// Reading is one entry of the reading history.
type Reading struct {
	ID         int64
	Preview    string
	WordCount  int
	Progress   float64
	CreatedAt  time.Time
	LastReadAt time.Time
}
