package rabbitmq

// UserEventsExchange — exchange для событий жизненного цикла учётных записей.
const UserEventsExchange = "user-events"

// QueueConfig связывает имя очереди с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetUserEventQueues возвращает очереди событий пользователей.
func GetUserEventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "user.registered", RoutingKey: "registered"},
		{QueueName: "user.deleted", RoutingKey: "deleted"},
	}
}
