package platform

import "context"

// Gateway is the contract the sync engine requires from the remote
// messaging platform. All calls are blocking, honor context
// cancellation, and classify failures via *Error. A cancelled call
// returns ctx.Err() unclassified: abandonment is not a failure report.
type Gateway interface {
	// ListThreads lists the creator's conversation threads.
	ListThreads(ctx context.Context, creatorID string) ([]Thread, error)

	// ListMessages lists one page of a conversation. An empty pageToken
	// requests the latest page; the returned NextPageToken requests the
	// next-older one.
	ListMessages(ctx context.Context, creatorID, fanID, pageToken string) (MessagePage, error)

	// SendMessage delivers a message to a fan and returns the
	// platform's receipt.
	SendMessage(ctx context.Context, creatorID, fanID string, payload SendPayload) (SendReceipt, error)
}
