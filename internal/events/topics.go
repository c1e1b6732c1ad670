package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderPreferenceSet = "order.preference_set"
	TopicInstallmentPaid    = "installment.paid"
	TopicInstallmentOverdue = "installment.overdue"
	TopicOrderCompleted     = "order.completed"
	TopicOrderStatusChanged = "order.status_changed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPreferenceSet,
		TopicInstallmentPaid,
		TopicInstallmentOverdue,
		TopicOrderCompleted,
		TopicOrderStatusChanged,
	}
}
