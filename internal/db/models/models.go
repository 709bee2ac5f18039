// Package models defines the persisted data model for the job-tracking queue
package models

// ListOptions provides pagination options for list operations
type ListOptions struct {
	Limit  int
	Offset int
}
