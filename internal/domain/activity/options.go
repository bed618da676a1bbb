package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	ProjectID    string
	DocumentID   *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}

// DefaultLimit caps Recent when no limit is given.
const DefaultLimit = 50
