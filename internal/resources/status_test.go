package resources_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-resource-cms/internal/resources"
)

func TestStatusOfGrid(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	windows := []struct {
		name string
		at   *time.Time
	}{
		{"unset", nil},
		{"past", &past},
		{"future", &future},
	}

	for _, deleted := range []bool{false, true} {
		for _, published := range []bool{false, true} {
			for _, pub := range windows {
				for _, unpub := range windows {
					name := fmt.Sprintf("deleted=%t/published=%t/publish=%s/unpublish=%s", deleted, published, pub.name, unpub.name)
					t.Run(name, func(t *testing.T) {
						got := resources.StatusOf(deleted, published, pub.at, unpub.at, now)

						var want resources.PublishedStatus
						switch {
						case deleted:
							want = resources.StatusDeleted
						case !published:
							want = resources.StatusUnpublished
						case pub.at != nil && pub.at.After(now):
							want = resources.StatusScheduled
						case unpub.at != nil && unpub.at.Before(now):
							want = resources.StatusExpired
						default:
							want = resources.StatusLive
						}
						if got != want {
							t.Fatalf("expected %s got %s", want, got)
						}

						r := &resources.Resource{Deleted: deleted, Published: published, PublishDate: pub.at, UnpublishDate: unpub.at}
						if r.IsLiveAt(now) != (want == resources.StatusLive) {
							t.Fatalf("IsLiveAt disagrees with status %s", want)
						}
					})
				}
			}
		}
	}
}

func TestStatusOfWindowBoundsAreLive(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := resources.StatusOf(false, true, &now, nil, now); got != resources.StatusLive {
		t.Fatalf("publish instant: expected live got %s", got)
	}
	if got := resources.StatusOf(false, true, nil, &now, now); got != resources.StatusLive {
		t.Fatalf("unpublish instant: expected live got %s", got)
	}
}

func TestPublishedStatusText(t *testing.T) {
	cases := map[resources.PublishedStatus]string{
		resources.StatusDeleted:     "deleted",
		resources.StatusUnpublished: "unpublished",
		resources.StatusExpired:     "expired",
		resources.StatusScheduled:   "scheduled",
		resources.StatusLive:        "live",
	}
	for status, code := range cases {
		if status.Code() != code {
			t.Fatalf("expected code %q got %q", code, status.Code())
		}
		text, err := status.MarshalText()
		if err != nil || string(text) != code {
			t.Fatalf("marshal %q: %s %v", code, text, err)
		}
		if status.Label() == "" || status.HelpText() == "" {
			t.Fatalf("status %q missing label or help text", code)
		}
		if parsed, ok := resources.ParseStatus(code); !ok || parsed != status {
			t.Fatalf("parse %q: got %v %v", code, parsed, ok)
		}
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	if _, ok := resources.ParseStatus("draft"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}
