package rabbitmq

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SkipRabbitMQTestsEnv значение SKIP_RABBITMQ_TESTS, отключающее тесты с брокером.
const SkipRabbitMQTestsEnv = "true"

const (
	amqpPort       nat.Port = "5672/tcp"
	managementPort nat.Port = "15672/tcp"
)

func SetupRabbitMQContainer(ctx context.Context, t *testing.T) (testcontainers.Container, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{string(amqpPort), string(managementPort)},
		Env: map[string]string{
			"RABBITMQ_DEFAULT_USER":  "guest",
			"RABBITMQ_DEFAULT_PASS":  "guest",
			"RABBITMQ_DEFAULT_VHOST": "/",
		},
		WaitingFor: wait.ForListeningPort(amqpPort).
			WithStartupTimeout(2 * time.Minute),
	}

	rmqContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	cleanup := func() {
		if err := rmqContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	}
	return rmqContainer, cleanup
}

func GetAmqpURI(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, amqpPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port()), nil
}

// brokerURI адрес брокера для теста: внешний из TEST_RABBITMQ_URL или контейнер.
func brokerURI(ctx context.Context, t *testing.T) string {
	t.Helper()
	if os.Getenv("SKIP_RABBITMQ_TESTS") == SkipRabbitMQTestsEnv {
		t.Skip("Skipping RabbitMQ tests")
	}
	if uri := os.Getenv("TEST_RABBITMQ_URL"); uri != "" {
		t.Logf("Using external RabbitMQ service: %s", uri)
		return uri
	}

	rmqContainer, cleanup := SetupRabbitMQContainer(ctx, t)
	t.Cleanup(cleanup)

	uri, err := GetAmqpURI(ctx, rmqContainer)
	require.NoError(t, err)
	return uri
}
