package rabbitmq

// Ключи маршрутизации событий документа.
const (
	KeyDocumentUpdated = "document.updated"
	KeyDocumentDeleted = "document.deleted"
)

// AuditQueue очередь, в которую попадают все события документов.
const AuditQueue = "documents.audit"

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// DocumentQueues очереди сервера синхронизации.
func DocumentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: AuditQueue, RoutingKey: "document.*"},
	}
}
