package resources

import "time"

// PublishedStatus is derived from a resource's flags and publish window.
// It is never stored.
type PublishedStatus int

const (
	StatusDeleted PublishedStatus = iota
	StatusUnpublished
	StatusExpired
	StatusScheduled
	StatusLive
)

type statusInfo struct {
	code  string
	label string
	help  string
}

var statusTable = map[PublishedStatus]statusInfo{
	StatusDeleted:     {"deleted", "Deleted", "This resource has been deleted."},
	StatusUnpublished: {"unpublished", "Unpublished", "This resource is not published."},
	StatusExpired:     {"expired", "Expired", "The unpublish date of this resource has passed."},
	StatusScheduled:   {"scheduled", "Scheduled", "This resource will be published on its publish date."},
	StatusLive:        {"live", "Live", "This resource is visible to the public."},
}

func (s PublishedStatus) Code() string     { return statusTable[s].code }
func (s PublishedStatus) Label() string    { return statusTable[s].label }
func (s PublishedStatus) HelpText() string { return statusTable[s].help }
func (s PublishedStatus) String() string   { return s.Code() }

// MarshalText encodes the status code.
func (s PublishedStatus) MarshalText() ([]byte, error) {
	return []byte(s.Code()), nil
}

// StatusOf applies the status rules in order: deleted, unpublished,
// scheduled, expired, live. Both window bounds are exclusive: a resource is
// live at exactly its publish or unpublish instant.
func StatusOf(deleted, published bool, publishDate, unpublishDate *time.Time, now time.Time) PublishedStatus {
	switch {
	case deleted:
		return StatusDeleted
	case !published:
		return StatusUnpublished
	case publishDate != nil && now.Before(*publishDate):
		return StatusScheduled
	case unpublishDate != nil && now.After(*unpublishDate):
		return StatusExpired
	default:
		return StatusLive
	}
}

// ParseStatus returns the status with code.
func ParseStatus(code string) (PublishedStatus, bool) {
	for status, info := range statusTable {
		if info.code == code {
			return status, true
		}
	}
	return 0, false
}
