package platformtest

import (
	"time"

	"github.com/apexmgmt/fansync/internal/platform"
)

// DemoCreatorID is the creator seeded by NewDemo.
const DemoCreatorID = "creator-demo"

// NewDemo returns a fake gateway pre-seeded with a small roster and a
// bit of history, used by `fansync console --demo`.
func NewDemo() *Fake {
	f := NewFake()
	now := time.Now().UTC()

	f.SetThreads(DemoCreatorID, []platform.Thread{
		{
			FanID: "fan-ada", Handle: "ada_l", DisplayName: "Ada",
			LTV: 182_50 * 10, UnreadCount: 2,
			LastMessage: platform.LastMessageSummary{
				Text: "did you see my request?", Timestamp: now.Add(-3 * time.Minute),
			},
			RegisteredAt: now.Add(-400 * 24 * time.Hour),
		},
		{
			FanID: "fan-bo", Handle: "bo88", DisplayName: "Bo",
			LTV: 12_00, UnreadCount: 0,
			LastMessage: platform.LastMessageSummary{
				Text: "thanks!", Timestamp: now.Add(-2 * time.Hour), FromCreator: true,
			},
			RegisteredAt: now.Add(-30 * 24 * time.Hour),
		},
		{
			FanID: "fan-cy", Handle: "cy_new", DisplayName: "Cy",
			LTV: 0, UnreadCount: 1,
			LastMessage: platform.LastMessageSummary{
				Text: "hey there", Timestamp: now.Add(-10 * time.Minute),
			},
			RegisteredAt: now.Add(-2 * 24 * time.Hour),
		},
	})

	f.SetHistory(DemoCreatorID, "fan-ada",
		platform.MessagePage{Messages: []platform.Message{
			{ServerID: "m-101", Timestamp: now.Add(-20 * time.Minute), Text: "loved the last drop", Status: platform.StatusConfirmed},
			{ServerID: "m-102", Timestamp: now.Add(-15 * time.Minute), Text: "glad you did!", FromCreator: true, Status: platform.StatusConfirmed},
			{ServerID: "m-103", Timestamp: now.Add(-3 * time.Minute), Text: "did you see my request?", Status: platform.StatusConfirmed},
		}},
		platform.MessagePage{Messages: []platform.Message{
			{ServerID: "m-001", Timestamp: now.Add(-48 * time.Hour), Text: "hi, new here", Status: platform.StatusConfirmed},
			{ServerID: "m-002", Timestamp: now.Add(-47 * time.Hour), Text: "welcome aboard", FromCreator: true, Status: platform.StatusConfirmed},
		}},
	)

	f.SetHistory(DemoCreatorID, "fan-bo",
		platform.MessagePage{Messages: []platform.Message{
			{ServerID: "m-201", Timestamp: now.Add(-3 * time.Hour), Text: "any new sets?", Status: platform.StatusConfirmed},
			{ServerID: "m-202", Timestamp: now.Add(-2 * time.Hour), Text: "thanks!", FromCreator: true, Status: platform.StatusConfirmed},
		}},
	)

	f.SetHistory(DemoCreatorID, "fan-cy",
		platform.MessagePage{Messages: []platform.Message{
			{ServerID: "m-301", Timestamp: now.Add(-10 * time.Minute), Text: "hey there", Status: platform.StatusConfirmed},
		}},
	)

	return f
}
