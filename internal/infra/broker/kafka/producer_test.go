package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicFor(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		event  string
		want   string
	}{
		{name: "calendar event", event: "calendar.blocked", want: "calendar.events.v1"},
		{name: "sync event", event: "synclink.completed", want: "synclink.events.v1"},
		{name: "deployment prefix", prefix: "staging.", event: "calendar.repriced", want: "staging.calendar.events.v1"},
		{name: "name without dot", event: "calendar", want: "calendar.events.v1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TopicFor(tc.prefix, tc.event))
		})
	}
}
