package events

// Topic constants for domain events emitted by the storefront core.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicLoyaltyIssued      = "loyalty.issued"
	TopicLoyaltyRedeemed    = "loyalty.redeemed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderStatusChanged,
		TopicLoyaltyIssued,
		TopicLoyaltyRedeemed,
	}
}
