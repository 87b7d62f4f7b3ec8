package kafka

// Topics для Kafka
const (
	TopicProductEvents   = "catalog.product.events"
	TopicOrderEvents     = "catalog.order.events"
	TopicDeadLetterQueue = "catalog.dlq" // Dead Letter Queue для failed messages
)

// Агрегаты, по которым события маршрутизируются в топики.
const (
	AggregateProduct = "product"
	AggregateOrder   = "order"
)

// TopicForAggregate возвращает топик для типа агрегата.
// Неизвестный агрегат уходит в топик заказов, чтобы событие не потерялось.
func TopicForAggregate(aggregateType string) string {
	switch aggregateType {
	case AggregateProduct:
		return TopicProductEvents
	case AggregateOrder:
		return TopicOrderEvents
	default:
		return TopicOrderEvents
	}
}
