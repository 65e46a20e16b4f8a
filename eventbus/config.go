package eventbus

import (
	"os"
	"strconv"
	"strings"

	"social-pilot/internal/logger"
)

// Brokers returns KAFKA_BOOTSTRAP_SERVERS. ok is false when Kafka is not configured.
func Brokers() (string, bool) {
	v := strings.TrimSpace(os.Getenv("KAFKA_BOOTSTRAP_SERVERS"))
	return v, v != ""
}

// GetBrokers is Brokers for binaries that cannot run without Kafka.
func GetBrokers() string {
	v, ok := Brokers()
	if !ok {
		panic("KAFKA_BOOTSTRAP_SERVERS environment variable is required")
	}
	return v
}

// GetGroupID returns KAFKA_GROUP_ID, defaulting to "social-pilot".
func GetGroupID() string {
	if v := strings.TrimSpace(os.Getenv("KAFKA_GROUP_ID")); v != "" {
		return v
	}
	return "social-pilot"
}

// envPositiveInt 는 양의 정수 환경변수를 읽는다. 비었거나 잘못된 값이면 0 (라이브러리 기본값).
func envPositiveInt(key string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logger.Log.Warnf("%s 환경변수 값이 올바르지 않습니다 (%q). 기본값 사용.", key, raw)
		return 0
	}
	return v
}
